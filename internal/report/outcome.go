package report

import "fmt"

// CheckKind identifies one of the checks run against every partition.
type CheckKind int

const (
	AssignmentValidity CheckKind = iota
	ServerConsistency
	StorageConsistency
	QuorumStatus
)

// Kinds lists every CheckKind in declaration order.
var Kinds = []CheckKind{AssignmentValidity, ServerConsistency, StorageConsistency, QuorumStatus}

func (k CheckKind) String() string {
	switch k {
	case AssignmentValidity:
		return "ASSIGNMENT_VALIDITY"
	case ServerConsistency:
		return "SERVER_CONSISTENCY"
	case StorageConsistency:
		return "STORAGE_CONSISTENCY"
	case QuorumStatus:
		return "QUORUM_STATUS"
	default:
		return fmt.Sprintf("CheckKind(%d)", int(k))
	}
}

// Status is the result of a single check.
type Status int

const (
	Pass Status = iota
	Fail
)

func (s Status) String() string {
	if s == Fail {
		return "FAIL"
	}
	return "PASS"
}

// Outcome is the result of one check for one partition. Detail is empty on PASS.
type Outcome struct {
	Kind   CheckKind
	Status Status
	Detail string
}

// Passed returns a PASS outcome for kind.
func Passed(kind CheckKind) Outcome {
	return Outcome{Kind: kind, Status: Pass}
}

// Failed returns a FAIL outcome for kind with the given detail.
func Failed(kind CheckKind, format string, args ...any) Outcome {
	return Outcome{Kind: kind, Status: Fail, Detail: fmt.Sprintf(format, args...)}
}

// merge combines two outcomes of the same kind for the same partition.
// A failure always wins; two failures keep both details in order.
func merge(prev, next Outcome) Outcome {
	switch {
	case prev.Status == Fail && next.Status == Fail:
		return Outcome{Kind: prev.Kind, Status: Fail, Detail: prev.Detail + "; " + next.Detail}
	case prev.Status == Fail:
		return prev
	default:
		return next
	}
}

// StrayOutcome is an outcome for a partition id outside [0, numPartitions).
type StrayOutcome struct {
	Partition int
	Outcome
}
