package topology

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"

	"golang.org/x/exp/slices"
)

// ErrMalformed is returned by Load when the metadata cannot be verified against.
var ErrMalformed = errors.New("malformed cluster metadata")

// Source is the authoritative metadata store.
type Source interface {
	ServerDescriptors(ctx context.Context) ([]ServerDescriptor, error)
	NumPartitions(ctx context.Context) (int, error)
	// PartitionAssignment maps server ID to the ordered partitions it owns.
	PartitionAssignment(ctx context.Context) (map[int][]int, error)
	// ReplicaAssignment maps a storage connection string to the partitions it replicates.
	ReplicaAssignment(ctx context.Context) (map[string][]int, error)
	// StorageConnections maps a storage connection string to its admin port.
	StorageConnections(ctx context.Context) (map[string]int, error)
}

// Snapshot is an immutable copy of the authoritative assignment.
type Snapshot struct {
	numPartitions int
	servers       []ServerDescriptor // sorted by ID
	ownership     map[int][]int
	replicas      map[string][]int
	storage       map[string]int
}

// Load reads everything the verifier needs from src. Any error is fatal for
// the run and wraps ErrMalformed.
func Load(ctx context.Context, src Source) (*Snapshot, error) {
	numPartitions, err := src.NumPartitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: partition count: %w", ErrMalformed, err)
	}
	if numPartitions <= 0 {
		return nil, fmt.Errorf("%w: partition count must be positive, got %d", ErrMalformed, numPartitions)
	}

	servers, err := src.ServerDescriptors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: server descriptors: %w", ErrMalformed, err)
	}
	known := make(map[int]bool, len(servers))
	for _, sd := range servers {
		if known[sd.ID] {
			return nil, fmt.Errorf("%w: duplicate server id %d", ErrMalformed, sd.ID)
		}
		if sd.Endpoint.Host == "" || !validPort(sd.Endpoint.Port) {
			return nil, fmt.Errorf("%w: server %d has invalid endpoint %q", ErrMalformed, sd.ID, sd.Endpoint)
		}
		known[sd.ID] = true
	}
	servers = slices.Clone(servers)
	slices.SortFunc(servers, func(a, b ServerDescriptor) int { return a.ID - b.ID })

	assignment, err := src.PartitionAssignment(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: partition assignment: %w", ErrMalformed, err)
	}
	ownership := make(map[int][]int, len(assignment))
	for id, partitions := range assignment {
		if !known[id] {
			log.Printf("[topology] partition assignment lists server %d which has no descriptor", id)
		}
		ownership[id] = slices.Clone(partitions)
	}

	replicaAssignment, err := src.ReplicaAssignment(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: replica assignment: %w", ErrMalformed, err)
	}
	replicas := make(map[string][]int, len(replicaAssignment))
	for conn, partitions := range replicaAssignment {
		replicas[conn] = slices.Clone(partitions)
	}

	connections, err := src.StorageConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: storage connections: %w", ErrMalformed, err)
	}
	storage := make(map[string]int, len(connections))
	for conn, adminPort := range connections {
		if _, _, err := net.SplitHostPort(conn); err != nil {
			return nil, fmt.Errorf("%w: storage connection %q: %w", ErrMalformed, conn, err)
		}
		if !validPort(adminPort) {
			return nil, fmt.Errorf("%w: storage connection %q has invalid admin port %d", ErrMalformed, conn, adminPort)
		}
		storage[conn] = adminPort
	}

	return &Snapshot{
		numPartitions: numPartitions,
		servers:       servers,
		ownership:     ownership,
		replicas:      replicas,
		storage:       storage,
	}, nil
}

// NumPartitions returns the number of partitions in the cluster.
func (s *Snapshot) NumPartitions() int {
	return s.numPartitions
}

// Servers returns the server descriptors ordered by ID.
func (s *Snapshot) Servers() []ServerDescriptor {
	return slices.Clone(s.servers)
}

// OwnerIDs returns every server ID present in the partition assignment,
// including IDs without a descriptor, in ascending order.
func (s *Snapshot) OwnerIDs() []int {
	ids := make([]int, 0, len(s.ownership))
	for id := range s.ownership {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// PartitionsFor returns the partitions owned by serverID, in metadata order.
func (s *Snapshot) PartitionsFor(serverID int) []int {
	return slices.Clone(s.ownership[serverID])
}

// ReplicaAssignment returns a copy of the storage connection -> partitions mapping.
func (s *Snapshot) ReplicaAssignment() map[string][]int {
	out := make(map[string][]int, len(s.replicas))
	for conn, partitions := range s.replicas {
		out[conn] = slices.Clone(partitions)
	}
	return out
}

// StorageConnections returns the registered storage connection strings, sorted.
func (s *Snapshot) StorageConnections() []string {
	conns := make([]string, 0, len(s.storage))
	for conn := range s.storage {
		conns = append(conns, conn)
	}
	slices.Sort(conns)
	return conns
}

// StorageAdminAddr returns the admin address of a registered storage
// connection: the connection's host with the registered admin port.
func (s *Snapshot) StorageAdminAddr(conn string) (string, error) {
	adminPort, ok := s.storage[conn]
	if !ok {
		return "", fmt.Errorf("storage connection %q is not registered", conn)
	}
	host, _, err := net.SplitHostPort(conn)
	if err != nil {
		return "", fmt.Errorf("storage connection %q: %w", conn, err)
	}
	return net.JoinHostPort(host, strconv.Itoa(adminPort)), nil
}
