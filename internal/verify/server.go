package verify

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/exp/slices"

	"clusterverify/internal/metrics"
	"clusterverify/internal/quorum"
	"clusterverify/internal/report"
	"clusterverify/internal/topology"
)

// MatchClass says where a partition appeared when diffing a server's live
// assignment against the metadata.
type MatchClass int

const (
	AuthoritativeOnly MatchClass = iota
	LiveOnly
	Both
)

func (c MatchClass) String() string {
	switch c {
	case AuthoritativeOnly:
		return "AUTHORITATIVE_ONLY"
	case LiveOnly:
		return "LIVE_ONLY"
	case Both:
		return "BOTH"
	default:
		return fmt.Sprintf("MatchClass(%d)", int(c))
	}
}

// DiffAssignments classifies every partition appearing in either list.
func DiffAssignments(authoritative, live []int) map[int]MatchClass {
	classes := make(map[int]MatchClass, len(authoritative)+len(live))
	for _, p := range authoritative {
		classes[p] = AuthoritativeOnly
	}
	for _, p := range live {
		if c, ok := classes[p]; ok && c != LiveOnly {
			classes[p] = Both
		} else {
			classes[p] = LiveOnly
		}
	}
	return classes
}

// checkServers queries every server for its live assignment and records a
// SERVER_CONSISTENCY outcome for every partition involved. A server that has
// not answered when the fanout joins fails all of its partitions with
// "timeout", as do partitions no server was asked about.
func (v *Verifier) checkServers(ctx context.Context, table *report.Table) {
	servers := v.snap.Servers()
	endpoints := make(map[string]topology.Endpoint, len(servers))
	targets := make([]string, len(servers))
	for i, sd := range servers {
		targets[i] = sd.Endpoint.String()
		endpoints[targets[i]] = sd.Endpoint
	}

	results := quorum.Gather(ctx, targets, func(ctx context.Context, addr string) ([]int, error) {
		start := time.Now()
		live, err := v.servers.GetServerPartitionAssignments(ctx, endpoints[addr])
		v.metrics.ObserveNodeQuery(metrics.PhaseServer, time.Since(start), err)
		return live, err
	})

	n := v.snap.NumPartitions()
	for i, r := range results {
		sd := servers[i]
		authoritative := v.snap.PartitionsFor(sd.ID)

		if !r.Done {
			v.metrics.ObserveIncomplete(metrics.PhaseServer)
			log.Printf("[%s] server %d (%s) did not answer before the phase ended", v.runID, sd.ID, sd.Endpoint)
			for _, p := range authoritative {
				table.Record(p, report.Failed(report.ServerConsistency, "timeout"))
			}
			continue
		}
		if r.Err != nil {
			log.Printf("[%s] server %d (%s) failed: %v", v.runID, sd.ID, sd.Endpoint, r.Err)
			for _, p := range authoritative {
				table.Record(p, report.Failed(report.ServerConsistency, "%v", r.Err))
			}
			continue
		}

		classes := DiffAssignments(authoritative, r.Value)
		partitions := make([]int, 0, len(classes))
		for p := range classes {
			partitions = append(partitions, p)
		}
		slices.Sort(partitions)

		for _, p := range partitions {
			switch c := classes[p]; {
			case c != Both:
				table.Record(p, report.Failed(report.ServerConsistency,
					"partition %d mismatch between metadata and server %d: %s", p, sd.ID, c))
			case p < 0 || p >= n:
				// already reported as an out-of-range assignment
			default:
				table.Record(p, report.Passed(report.ServerConsistency))
			}
		}
	}

	if filled := table.FillMissing(report.ServerConsistency, "timeout"); len(filled) > 0 {
		log.Printf("[%s] no server consistency result for partitions %v", v.runID, filled)
	}
}
