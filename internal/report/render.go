package report

import (
	"fmt"
	"io"
)

// AllPartitions selects every partition in Render.
const AllPartitions = -1

// Summary is the aggregate of a rendered table.
type Summary struct {
	Partitions     int
	Failures       int
	FailuresByKind map[CheckKind]int
	Passed         bool
}

// Render prints every failed outcome of the selected partition (or of all
// partitions when partition is AllPartitions), followed by every stray
// outcome and a summary line. A kind with no recorded outcome is printed as
// a failure. Render never modifies the table.
func Render(w io.Writer, t *Table, partition int) Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sum := Summary{FailuresByKind: make(map[CheckKind]int)}

	for p, row := range t.rows {
		if partition != AllPartitions && p != partition {
			continue
		}
		sum.Partitions++
		for _, kind := range Kinds {
			o, ok := row[kind]
			if !ok {
				o = Outcome{Kind: kind, Status: Fail, Detail: "no result"}
			}
			if o.Status != Fail {
				continue
			}
			sum.Failures++
			sum.FailuresByKind[kind]++
			fmt.Fprintf(w, "Validation %s failed for partition %d\n", kind, p)
			fmt.Fprintf(w, "Validation error is: %s\n", o.Detail)
		}
	}

	for _, s := range t.strays {
		sum.Failures++
		sum.FailuresByKind[s.Kind]++
		fmt.Fprintf(w, "Validation %s failed for unknown partition %d\n", s.Kind, s.Partition)
		fmt.Fprintf(w, "Validation error is: %s\n", s.Detail)
	}

	sum.Passed = sum.Failures == 0
	fmt.Fprintf(w, "checked %d partitions, %d failures\n", sum.Partitions, sum.Failures)
	return sum
}
