package verify

import (
	"context"
	"log"

	"github.com/google/uuid"

	"clusterverify/internal/metrics"
	"clusterverify/internal/report"
	"clusterverify/internal/topology"
)

// ServerClient queries a server node for its live assignment.
type ServerClient interface {
	GetServerPartitionAssignments(ctx context.Context, ep topology.Endpoint) ([]int, error)
}

// StorageAdmin is an open admin connection to one storage node.
type StorageAdmin interface {
	GetAssignedPartitionStatus(ctx context.Context) (map[int]bool, error)
	Close() error
}

// StorageDialer opens a storage admin connection to addr.
type StorageDialer func(ctx context.Context, addr string) (StorageAdmin, error)

// Verifier runs the verification phases against one metadata snapshot.
type Verifier struct {
	runID   string
	snap    *topology.Snapshot
	servers ServerClient
	dial    StorageDialer
	metrics *metrics.Metrics
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithMetrics records node queries and run results in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Verifier) {
		v.metrics = m
	}
}

// New creates a Verifier. Each Verifier gets a fresh run ID used in its logs.
func New(snap *topology.Snapshot, servers ServerClient, dial StorageDialer, opts ...Option) *Verifier {
	v := &Verifier{
		runID:   uuid.NewString(),
		snap:    snap,
		servers: servers,
		dial:    dial,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// RunID returns the identifier used in this verifier's log lines.
func (v *Verifier) RunID() string {
	return v.runID
}

// Run executes every phase and returns the populated table, which holds
// exactly one outcome per check kind for every partition. Once ctx is done
// the phases stop waiting for nodes and report their partitions as failed.
func (v *Verifier) Run(ctx context.Context) *report.Table {
	table := report.NewTable(v.snap.NumPartitions())

	log.Printf("[%s] verifying %d partitions: %d servers, %d storage nodes",
		v.runID, v.snap.NumPartitions(), len(v.snap.Servers()), len(v.snap.StorageConnections()))

	v.validateAssignment(table)
	v.checkServers(ctx, table)
	v.checkStorage(ctx, table)

	for _, kind := range report.Kinds {
		if filled := table.FillMissing(kind, "no result"); len(filled) > 0 {
			log.Printf("[%s] no %s result for partitions %v", v.runID, kind, filled)
		}
	}
	return table
}
