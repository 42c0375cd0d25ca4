package metadata

import (
	"context"
	"sync"

	"clusterverify/internal/topology"
)

// Memory is an in-memory topology.Source. It may be edited between loads.
type Memory struct {
	mu          sync.RWMutex
	partitions  int
	servers     []topology.ServerDescriptor
	assignment  map[int][]int
	replicas    map[string][]int
	connections map[string]int
	err         error
}

// NewMemory creates an in-memory source with the given partition count.
func NewMemory(numPartitions int) *Memory {
	return &Memory{
		partitions:  numPartitions,
		assignment:  make(map[int][]int),
		replicas:    make(map[string][]int),
		connections: make(map[string]int),
	}
}

// AddServer registers a server descriptor and the partitions it owns.
func (m *Memory) AddServer(sd topology.ServerDescriptor, partitions ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers = append(m.servers, sd)
	m.assignment[sd.ID] = append([]int(nil), partitions...)
}

// SetAssignment overrides the ownership list of a server ID, with or without
// a descriptor.
func (m *Memory) SetAssignment(serverID int, partitions ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignment[serverID] = append([]int(nil), partitions...)
}

// AddStorage registers a storage connection, its admin port and the
// partitions it replicates according to the metadata.
func (m *Memory) AddStorage(conn string, adminPort int, partitions ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn] = adminPort
	m.replicas[conn] = append([]int(nil), partitions...)
}

// SetReplicas overrides the replica assignment of a storage connection
// without touching the connection registry.
func (m *Memory) SetReplicas(conn string, partitions ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replicas[conn] = append([]int(nil), partitions...)
}

// FailWith makes every read return err. A nil err clears the failure.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// ServerDescriptors returns the servers in the order they were added.
func (m *Memory) ServerDescriptors(ctx context.Context) ([]topology.ServerDescriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]topology.ServerDescriptor(nil), m.servers...), nil
}

// NumPartitions returns the partition count given to NewMemory.
func (m *Memory) NumPartitions(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.partitions, nil
}

// PartitionAssignment returns a copy of the server ownership lists.
func (m *Memory) PartitionAssignment(ctx context.Context) (map[int][]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[int][]int, len(m.assignment))
	for id, partitions := range m.assignment {
		out[id] = append([]int(nil), partitions...)
	}
	return out, nil
}

// ReplicaAssignment returns a copy of the storage replica lists.
func (m *Memory) ReplicaAssignment(ctx context.Context) (map[string][]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string][]int, len(m.replicas))
	for conn, partitions := range m.replicas {
		out[conn] = append([]int(nil), partitions...)
	}
	return out, nil
}

// StorageConnections returns a copy of the storage connection registry.
func (m *Memory) StorageConnections(ctx context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]int, len(m.connections))
	for conn, port := range m.connections {
		out[conn] = port
	}
	return out, nil
}
