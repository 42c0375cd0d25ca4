package rpc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"

	"clusterverify/internal/adminpb"
	"clusterverify/internal/quorum"
	"clusterverify/internal/topology"
)

const (
	// DefaultDialTimeout bounds connection setup to a node.
	DefaultDialTimeout = 5 * time.Second
	// DefaultRequestTimeout bounds a single admin request.
	DefaultRequestTimeout = 10 * time.Second
)

// Options bounds every dial and every request made through a ClientManager.
type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	return o
}

// ClientManager manages gRPC connections to server nodes. Connections are
// cached per address and closed by Close.
type ClientManager struct {
	opts Options

	mu      sync.RWMutex
	conns   map[string]*grpc.ClientConn
	clients map[string]adminpb.ServerAdminClient
}

// NewClientManager creates a new client manager.
func NewClientManager(opts Options) *ClientManager {
	return &ClientManager{
		opts:    opts.withDefaults(),
		conns:   make(map[string]*grpc.ClientConn),
		clients: make(map[string]adminpb.ServerAdminClient),
	}
}

func (cm *ClientManager) dial(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	ctx, cancel := context.WithTimeout(ctx, cm.opts.DialTimeout)
	defer cancel()

	conn, err := grpc.DialContext(ctx, addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return conn, nil
}

// serverClient returns a ServerAdmin client for addr, dialing on first use.
func (cm *ClientManager) serverClient(ctx context.Context, addr string) (adminpb.ServerAdminClient, error) {
	cm.mu.RLock()
	client, exists := cm.clients[addr]
	cm.mu.RUnlock()

	if exists {
		return client, nil
	}

	// Dial outside the lock so one slow node does not serialize the fanout
	conn, err := cm.dial(ctx, addr)
	if err != nil {
		return nil, err
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	// Double-check after acquiring write lock
	if client, exists := cm.clients[addr]; exists {
		conn.Close()
		return client, nil
	}

	client = adminpb.NewServerAdminClient(conn)
	cm.conns[addr] = conn
	cm.clients[addr] = client
	return client, nil
}

// GetServerPartitionAssignments asks the server at ep for the partitions it
// is currently serving.
func (cm *ClientManager) GetServerPartitionAssignments(ctx context.Context, ep topology.Endpoint) ([]int, error) {
	client, err := cm.serverClient(ctx, ep.String())
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, cm.opts.RequestTimeout)
	defer cancel()

	resp, err := client.GetPartitionAssignments(reqCtx, &emptypb.Empty{})
	if err != nil {
		return nil, fmt.Errorf("get partition assignments from %s: %w", ep, err)
	}
	partitions, err := adminpb.ProtoToPartitions(resp)
	if err != nil {
		return nil, fmt.Errorf("decode partition assignments from %s: %w", ep, err)
	}
	return partitions, nil
}

// CheckServerConnections asks every endpoint in parallel for its view of the
// storage fleet. Endpoints that could not be reached are absent from the
// returned map.
func (cm *ClientManager) CheckServerConnections(ctx context.Context, endpoints []topology.Endpoint) map[topology.Endpoint]map[string]bool {
	targets := make([]string, len(endpoints))
	for i, ep := range endpoints {
		targets[i] = ep.String()
	}

	results := quorum.Gather(ctx, targets, func(ctx context.Context, addr string) (map[string]bool, error) {
		client, err := cm.serverClient(ctx, addr)
		if err != nil {
			return nil, err
		}

		reqCtx, cancel := context.WithTimeout(ctx, cm.opts.RequestTimeout)
		defer cancel()

		resp, err := client.CheckStorageConnections(reqCtx, &emptypb.Empty{})
		if err != nil {
			return nil, err
		}
		return adminpb.ProtoToReachability(resp)
	})

	out := make(map[topology.Endpoint]map[string]bool, len(endpoints))
	for i, r := range results {
		if r.Err != nil {
			log.Printf("[rpc] connectivity check of %s failed: %v", r.Target, r.Err)
			continue
		}
		out[endpoints[i]] = r.Value
	}
	return out
}

// Close closes all cached connections.
func (cm *ClientManager) Close() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	var errs []error
	for addr, conn := range cm.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", addr, err))
		}
	}
	cm.conns = make(map[string]*grpc.ClientConn)
	cm.clients = make(map[string]adminpb.ServerAdminClient)
	return errors.Join(errs...)
}

// StorageAdmin is a dedicated connection to one storage node's admin endpoint.
// It is not cached; the caller owns it and must Close it.
type StorageAdmin struct {
	addr           string
	conn           *grpc.ClientConn
	client         adminpb.StorageAdminClient
	requestTimeout time.Duration
}

// DialStorageAdmin opens an admin connection to addr.
func (cm *ClientManager) DialStorageAdmin(ctx context.Context, addr string) (*StorageAdmin, error) {
	conn, err := cm.dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &StorageAdmin{
		addr:           addr,
		conn:           conn,
		client:         adminpb.NewStorageAdminClient(conn),
		requestTimeout: cm.opts.RequestTimeout,
	}, nil
}

// GetAssignedPartitionStatus returns, for every partition the node holds,
// whether it is currently available.
func (s *StorageAdmin) GetAssignedPartitionStatus(ctx context.Context) (map[int]bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	resp, err := s.client.GetAssignedPartitionStatus(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fmt.Errorf("get assigned partition status from %s: %w", s.addr, err)
	}
	status, err := adminpb.ProtoToPartitionStatus(resp)
	if err != nil {
		return nil, fmt.Errorf("decode partition status from %s: %w", s.addr, err)
	}
	return status, nil
}

// Close closes the admin connection.
func (s *StorageAdmin) Close() error {
	return s.conn.Close()
}
