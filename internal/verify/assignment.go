package verify

import (
	"log"

	"clusterverify/internal/report"
)

// validateAssignment checks the metadata assignment on its own. Servers are
// visited in ascending ID order and partitions in list order; the first
// server to claim a partition owns it and every later claim fails.
func (v *Verifier) validateAssignment(table *report.Table) {
	n := v.snap.NumPartitions()
	owner := make(map[int]int, n)

	for _, id := range v.snap.OwnerIDs() {
		for _, p := range v.snap.PartitionsFor(id) {
			if p < 0 || p >= n {
				table.Record(p, report.Failed(report.AssignmentValidity,
					"partition %d assigned to server %d is out of range [0, %d)", p, id, n))
				continue
			}
			if first, ok := owner[p]; ok {
				if first != id {
					table.Record(p, report.Failed(report.AssignmentValidity,
						"partition %d is assigned to server %d and server %d", p, first, id))
				}
				continue
			}
			owner[p] = id
			table.Record(p, report.Passed(report.AssignmentValidity))
		}
	}

	var unowned []int
	for p := 0; p < n; p++ {
		if _, ok := owner[p]; !ok {
			table.Record(p, report.Failed(report.AssignmentValidity, "not handled by any server"))
			unowned = append(unowned, p)
		}
	}
	if len(unowned) > 0 {
		log.Printf("[%s] partitions %v are not handled by any server", v.runID, unowned)
	}
}
