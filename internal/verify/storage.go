package verify

import (
	"context"
	"log"
	"time"

	"golang.org/x/exp/slices"

	"clusterverify/internal/metrics"
	"clusterverify/internal/quorum"
	"clusterverify/internal/report"
)

// checkStorage queries every registered storage node for the partitions it
// holds and records STORAGE_CONSISTENCY and QUORUM_STATUS for every partition.
// A node that cannot be reached contributes nothing but still counts towards
// the quorum denominator.
func (v *Verifier) checkStorage(ctx context.Context, table *report.Table) {
	n := v.snap.NumPartitions()

	// Invert connection -> partitions into partition -> replica set
	authoritative := make([]map[string]bool, n)
	for p := range authoritative {
		authoritative[p] = make(map[string]bool)
	}
	replicaAssignment := v.snap.ReplicaAssignment()
	replicaConns := make([]string, 0, len(replicaAssignment))
	for conn := range replicaAssignment {
		replicaConns = append(replicaConns, conn)
	}
	slices.Sort(replicaConns)
	for _, conn := range replicaConns {
		for _, p := range replicaAssignment[conn] {
			if p < 0 || p >= n {
				table.Record(p, report.Failed(report.StorageConsistency,
					"partition %d replicated on %s is out of range [0, %d)", p, conn, n))
				continue
			}
			authoritative[p][conn] = true
		}
	}

	conns := v.snap.StorageConnections()
	results := quorum.Gather(ctx, conns, func(ctx context.Context, conn string) (map[int]bool, error) {
		start := time.Now()
		status, err := v.partitionStatus(ctx, conn)
		v.metrics.ObserveNodeQuery(metrics.PhaseStorage, time.Since(start), err)
		return status, err
	})

	// Invert connection -> status into partition -> {connection: available}
	live := make([]map[string]bool, n)
	for p := range live {
		live[p] = make(map[string]bool)
	}
	for _, r := range results {
		if !r.Done {
			v.metrics.ObserveIncomplete(metrics.PhaseStorage)
			log.Printf("[%s] storage node %s did not answer before the phase ended", v.runID, r.Target)
			continue
		}
		if r.Err != nil {
			log.Printf("[%s] storage node %s failed: %v", v.runID, r.Target, r.Err)
			continue
		}

		partitions := make([]int, 0, len(r.Value))
		for p := range r.Value {
			partitions = append(partitions, p)
		}
		slices.Sort(partitions)
		for _, p := range partitions {
			if p < 0 || p >= n {
				table.Record(p, report.Failed(report.StorageConsistency,
					"storage node %s reports partition %d which is out of range [0, %d)", r.Target, p, n))
				continue
			}
			live[p][r.Target] = r.Value[p]
		}
	}

	for p := 0; p < n; p++ {
		if want, got := len(authoritative[p]), len(live[p]); want != got {
			table.Record(p, report.Failed(report.StorageConsistency,
				"partition %d has %d replicas in metadata but %d storage nodes report it", p, want, got))
		} else {
			table.Record(p, report.Passed(report.StorageConsistency))
		}

		available := 0
		for _, ok := range live[p] {
			if ok {
				available++
			}
		}
		if quorum.Achieved(available, len(conns)) {
			table.Record(p, report.Passed(report.QuorumStatus))
		} else {
			log.Printf("[%s] partition %d: %d of %d storage nodes available, %d needed",
				v.runID, p, available, len(conns), quorum.Required(len(conns)))
			table.Record(p, report.Failed(report.QuorumStatus, "quorum not achieved"))
		}
	}
}

// partitionStatus opens an admin connection to the storage node behind conn,
// asks for its partition status and closes the connection again.
func (v *Verifier) partitionStatus(ctx context.Context, conn string) (map[int]bool, error) {
	addr, err := v.snap.StorageAdminAddr(conn)
	if err != nil {
		return nil, err
	}

	admin, err := v.dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := admin.Close(); err != nil {
			log.Printf("[%s] closing admin connection to %s: %v", v.runID, addr, err)
		}
	}()

	return admin.GetAssignedPartitionStatus(ctx)
}
