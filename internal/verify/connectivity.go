package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/exp/slices"

	"clusterverify/internal/metrics"
	"clusterverify/internal/topology"
)

var errUnreachable = errors.New("unreachable")

// ConnectivityClient asks servers which storage nodes they can reach.
// Endpoints that could not be asked are absent from the result or map to nil.
type ConnectivityClient interface {
	CheckServerConnections(ctx context.Context, endpoints []topology.Endpoint) map[topology.Endpoint]map[string]bool
}

// ConnectivityReport is the reachability of every server endpoint and, for
// reachable ones, the storage reachability they reported.
type ConnectivityReport struct {
	Endpoints []topology.Endpoint
	Status    map[topology.Endpoint]map[string]bool
}

// CheckConnectivity asks every server in snap for its storage reachability.
// m may be nil.
func CheckConnectivity(ctx context.Context, snap *topology.Snapshot, client ConnectivityClient, m *metrics.Metrics) *ConnectivityReport {
	seen := make(map[topology.Endpoint]bool)
	var endpoints []topology.Endpoint
	for _, sd := range snap.Servers() {
		if !seen[sd.Endpoint] {
			seen[sd.Endpoint] = true
			endpoints = append(endpoints, sd.Endpoint)
		}
	}
	slices.SortFunc(endpoints, func(a, b topology.Endpoint) int {
		switch sa, sb := a.String(), b.String(); {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		default:
			return 0
		}
	})

	start := time.Now()
	status := client.CheckServerConnections(ctx, endpoints)
	elapsed := time.Since(start)

	r := &ConnectivityReport{
		Endpoints: endpoints,
		Status:    make(map[topology.Endpoint]map[string]bool, len(endpoints)),
	}
	for _, ep := range endpoints {
		reach, ok := status[ep]
		if !ok || reach == nil {
			m.ObserveNodeQuery(metrics.PhaseConnectivity, elapsed, errUnreachable)
			continue
		}
		m.ObserveNodeQuery(metrics.PhaseConnectivity, elapsed, nil)
		r.Status[ep] = reach
	}
	return r
}

// Reachable reports whether ep answered the connectivity check.
func (r *ConnectivityReport) Reachable(ep topology.Endpoint) bool {
	_, ok := r.Status[ep]
	return ok
}

// Render prints one line per endpoint, sorted by endpoint.
func (r *ConnectivityReport) Render(w io.Writer) {
	for _, ep := range r.Endpoints {
		reach, ok := r.Status[ep]
		if !ok {
			fmt.Fprintf(w, "Connectivity status of %s is: UNREACHABLE\n", ep)
			continue
		}
		fmt.Fprintf(w, "Connectivity status of %s is: %v\n", ep, reach)
	}
}
