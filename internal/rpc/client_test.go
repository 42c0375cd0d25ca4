package rpc

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"clusterverify/internal/adminpb"
	"clusterverify/internal/topology"
)

type fakeServerAdmin struct {
	adminpb.UnimplementedServerAdminServer
	partitions []int
	reach      map[string]bool
	err        error
}

func (f *fakeServerAdmin) GetPartitionAssignments(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	if f.err != nil {
		return nil, f.err
	}
	return adminpb.PartitionsToProto(f.partitions), nil
}

func (f *fakeServerAdmin) CheckStorageConnections(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	if f.err != nil {
		return nil, f.err
	}
	return adminpb.ReachabilityToProto(f.reach), nil
}

type fakeStorageAdmin struct {
	adminpb.UnimplementedStorageAdminServer
	status map[int]bool
}

func (f *fakeStorageAdmin) GetAssignedPartitionStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return adminpb.PartitionStatusToProto(f.status), nil
}

func serve(t *testing.T, register func(*grpc.Server)) topology.Endpoint {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	register(srv)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	ep, err := topology.ParseEndpoint(lis.Addr().String())
	require.NoError(t, err)
	return ep
}

// deadEndpoint returns an address nothing is listening on.
func deadEndpoint(t *testing.T) topology.Endpoint {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().(*net.TCPAddr)
	require.NoError(t, lis.Close())
	return topology.Endpoint{Host: "127.0.0.1", Port: addr.Port}
}

func testOptions() Options {
	return Options{DialTimeout: 300 * time.Millisecond, RequestTimeout: time.Second}
}

func TestGetServerPartitionAssignments(t *testing.T) {
	ep := serve(t, func(s *grpc.Server) {
		adminpb.RegisterServerAdminServer(s, &fakeServerAdmin{partitions: []int{3, 0, 7}})
	})

	cm := NewClientManager(testOptions())
	defer cm.Close()

	got, err := cm.GetServerPartitionAssignments(context.Background(), ep)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0, 7}, got)

	// Second call reuses the cached connection
	got, err = cm.GetServerPartitionAssignments(context.Background(), ep)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0, 7}, got)
	assert.Len(t, cm.conns, 1)
}

func TestGetServerPartitionAssignments_ServerError(t *testing.T) {
	ep := serve(t, func(s *grpc.Server) {
		adminpb.RegisterServerAdminServer(s, &fakeServerAdmin{err: status.Error(codes.Unavailable, "draining")})
	})

	cm := NewClientManager(testOptions())
	defer cm.Close()

	_, err := cm.GetServerPartitionAssignments(context.Background(), ep)
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Contains(t, err.Error(), ep.String())
}

func TestGetServerPartitionAssignments_Unreachable(t *testing.T) {
	cm := NewClientManager(testOptions())
	defer cm.Close()

	_, err := cm.GetServerPartitionAssignments(context.Background(), deadEndpoint(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to dial")
	assert.Empty(t, cm.conns)
}

func TestCheckServerConnections(t *testing.T) {
	up := serve(t, func(s *grpc.Server) {
		adminpb.RegisterServerAdminServer(s, &fakeServerAdmin{reach: map[string]bool{"s1:9000": true, "s2:9000": false}})
	})
	failing := serve(t, func(s *grpc.Server) {
		adminpb.RegisterServerAdminServer(s, &fakeServerAdmin{err: status.Error(codes.Internal, "boom")})
	})
	dead := deadEndpoint(t)

	cm := NewClientManager(testOptions())
	defer cm.Close()

	got := cm.CheckServerConnections(context.Background(), []topology.Endpoint{up, failing, dead})

	require.Len(t, got, 1)
	assert.Equal(t, map[string]bool{"s1:9000": true, "s2:9000": false}, got[up])
	assert.NotContains(t, got, failing)
	assert.NotContains(t, got, dead)
}

func TestDialStorageAdmin(t *testing.T) {
	ep := serve(t, func(s *grpc.Server) {
		adminpb.RegisterStorageAdminServer(s, &fakeStorageAdmin{status: map[int]bool{0: true, 4: false}})
	})

	cm := NewClientManager(testOptions())
	defer cm.Close()

	admin, err := cm.DialStorageAdmin(context.Background(), ep.String())
	require.NoError(t, err)

	got, err := admin.GetAssignedPartitionStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{0: true, 4: false}, got)

	require.NoError(t, admin.Close())
	// storage admin connections are owned by the caller, not the manager
	assert.Empty(t, cm.conns)
}

func TestDialStorageAdmin_Unreachable(t *testing.T) {
	cm := NewClientManager(testOptions())
	defer cm.Close()

	dead := deadEndpoint(t)
	admin, err := cm.DialStorageAdmin(context.Background(), net.JoinHostPort(dead.Host, strconv.Itoa(dead.Port)))
	require.Error(t, err)
	assert.Nil(t, admin)
}

func TestStorageAdmin_Unimplemented(t *testing.T) {
	ep := serve(t, func(s *grpc.Server) {
		adminpb.RegisterStorageAdminServer(s, adminpb.UnimplementedStorageAdminServer{})
	})

	cm := NewClientManager(testOptions())
	admin, err := cm.DialStorageAdmin(context.Background(), ep.String())
	require.NoError(t, err)
	defer admin.Close()

	_, err = admin.GetAssignedPartitionStatus(context.Background())
	require.Error(t, err)
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestClose(t *testing.T) {
	ep := serve(t, func(s *grpc.Server) {
		adminpb.RegisterServerAdminServer(s, &fakeServerAdmin{partitions: []int{1}})
	})

	cm := NewClientManager(testOptions())
	_, err := cm.GetServerPartitionAssignments(context.Background(), ep)
	require.NoError(t, err)

	require.NoError(t, cm.Close())
	assert.Empty(t, cm.conns)
	assert.Empty(t, cm.clients)
}

func TestOptionsDefaults(t *testing.T) {
	cm := NewClientManager(Options{})
	assert.Equal(t, DefaultDialTimeout, cm.opts.DialTimeout)
	assert.Equal(t, DefaultRequestTimeout, cm.opts.RequestTimeout)
}
