package it

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"clusterverify/internal/adminpb"
	"clusterverify/internal/metadata"
	"clusterverify/internal/topology"
)

// Cluster is an in-process test cluster: server and storage nodes serving
// the admin gRPC services on loopback listeners, plus the metadata that
// describes them.
type Cluster struct {
	mu       sync.Mutex
	meta     *metadata.Memory
	servers  []*ServerNode
	storage  []*StorageNode
	nextConn int
}

// ServerNode is a fake server node.
type ServerNode struct {
	adminpb.UnimplementedServerAdminServer

	ID       int
	Endpoint topology.Endpoint

	cluster *Cluster
	srv     *grpc.Server

	mu         sync.Mutex
	partitions []int
}

// StorageNode is a fake storage node. Only its admin endpoint listens; Conn
// is the connection string recorded in the metadata.
type StorageNode struct {
	adminpb.UnimplementedStorageAdminServer

	Conn      string
	AdminAddr string

	srv *grpc.Server

	mu      sync.Mutex
	status  map[int]bool
	stopped bool
}

// NewCluster creates an empty cluster with numPartitions partitions.
func NewCluster(numPartitions int) *Cluster {
	return &Cluster{
		meta:     metadata.NewMemory(numPartitions),
		nextConn: 40000,
	}
}

// Metadata returns the metadata describing the cluster.
func (c *Cluster) Metadata() *metadata.Memory {
	return c.meta
}

func serve(register func(*grpc.Server)) (*grpc.Server, net.Listener, error) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen: %w", err)
	}
	srv := grpc.NewServer()
	register(srv)
	go srv.Serve(lis)
	return srv, lis, nil
}

// StartServer starts a server node that owns partitions both in the
// metadata and in its live assignment.
func (c *Cluster) StartServer(id int, partitions ...int) (*ServerNode, error) {
	node := &ServerNode{
		ID:         id,
		cluster:    c,
		partitions: append([]int(nil), partitions...),
	}

	srv, lis, err := serve(func(s *grpc.Server) { adminpb.RegisterServerAdminServer(s, node) })
	if err != nil {
		return nil, fmt.Errorf("failed to start server %d: %w", id, err)
	}
	ep, err := topology.ParseEndpoint(lis.Addr().String())
	if err != nil {
		srv.Stop()
		return nil, err
	}
	node.srv = srv
	node.Endpoint = ep

	c.mu.Lock()
	c.servers = append(c.servers, node)
	c.mu.Unlock()

	c.meta.AddServer(topology.ServerDescriptor{ID: id, Endpoint: ep}, partitions...)
	return node, nil
}

// StartStorage starts a storage node that replicates partitions according
// to the metadata and reports every one of them available.
func (c *Cluster) StartStorage(partitions ...int) (*StorageNode, error) {
	node := &StorageNode{status: make(map[int]bool, len(partitions))}
	for _, p := range partitions {
		node.status[p] = true
	}

	srv, lis, err := serve(func(s *grpc.Server) { adminpb.RegisterStorageAdminServer(s, node) })
	if err != nil {
		return nil, fmt.Errorf("failed to start storage node: %w", err)
	}
	adminPort := lis.Addr().(*net.TCPAddr).Port
	node.srv = srv
	node.AdminAddr = lis.Addr().String()

	c.mu.Lock()
	node.Conn = net.JoinHostPort("127.0.0.1", strconv.Itoa(c.nextConn))
	c.nextConn++
	c.storage = append(c.storage, node)
	c.mu.Unlock()

	c.meta.AddStorage(node.Conn, adminPort, partitions...)
	return node, nil
}

// Server returns the server node with the given ID.
func (c *Cluster) Server(id int) *ServerNode {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range c.servers {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Stop stops every node in the cluster.
func (c *Cluster) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range c.servers {
		n.Stop()
	}
	for _, n := range c.storage {
		n.Stop()
	}
}

// SetLivePartitions changes the partitions the server reports serving,
// without touching the metadata.
func (n *ServerNode) SetLivePartitions(partitions ...int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.partitions = append([]int(nil), partitions...)
}

// Stop kills the server node.
func (n *ServerNode) Stop() {
	n.srv.Stop()
}

func (n *ServerNode) GetPartitionAssignments(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return adminpb.PartitionsToProto(n.partitions), nil
}

// CheckStorageConnections reports every storage node of the cluster as
// reachable unless it was stopped.
func (n *ServerNode) CheckStorageConnections(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	n.cluster.mu.Lock()
	storage := append([]*StorageNode(nil), n.cluster.storage...)
	n.cluster.mu.Unlock()

	reach := make(map[string]bool, len(storage))
	for _, s := range storage {
		s.mu.Lock()
		reach[s.Conn] = !s.stopped
		s.mu.Unlock()
	}
	return adminpb.ReachabilityToProto(reach), nil
}

// SetStatus replaces the partition status the storage node reports.
func (n *StorageNode) SetStatus(status map[int]bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.status = make(map[int]bool, len(status))
	for p, ok := range status {
		n.status[p] = ok
	}
}

// Stop kills the storage node.
func (n *StorageNode) Stop() {
	n.mu.Lock()
	n.stopped = true
	n.mu.Unlock()
	n.srv.Stop()
}

func (n *StorageNode) GetAssignedPartitionStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return adminpb.PartitionStatusToProto(n.status), nil
}
