package adminpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServerAdminServiceName  = "clusterverify.admin.ServerAdmin"
	StorageAdminServiceName = "clusterverify.admin.StorageAdmin"

	GetPartitionAssignmentsMethod    = "/" + ServerAdminServiceName + "/GetPartitionAssignments"
	CheckStorageConnectionsMethod    = "/" + ServerAdminServiceName + "/CheckStorageConnections"
	GetAssignedPartitionStatusMethod = "/" + StorageAdminServiceName + "/GetAssignedPartitionStatus"
)

// ServerAdminClient is the client API for the ServerAdmin service.
type ServerAdminClient interface {
	GetPartitionAssignments(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
	CheckStorageConnections(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type serverAdminClient struct {
	cc grpc.ClientConnInterface
}

// NewServerAdminClient creates a ServerAdmin client over cc.
func NewServerAdminClient(cc grpc.ClientConnInterface) ServerAdminClient {
	return &serverAdminClient{cc: cc}
}

func (c *serverAdminClient) GetPartitionAssignments(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, GetPartitionAssignmentsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *serverAdminClient) CheckStorageConnections(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CheckStorageConnectionsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ServerAdminServer is the server API for the ServerAdmin service.
type ServerAdminServer interface {
	GetPartitionAssignments(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	CheckStorageConnections(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// UnimplementedServerAdminServer can be embedded to have forward compatible implementations.
type UnimplementedServerAdminServer struct{}

func (UnimplementedServerAdminServer) GetPartitionAssignments(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPartitionAssignments not implemented")
}

func (UnimplementedServerAdminServer) CheckStorageConnections(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CheckStorageConnections not implemented")
}

// RegisterServerAdminServer registers srv on s.
func RegisterServerAdminServer(s grpc.ServiceRegistrar, srv ServerAdminServer) {
	s.RegisterService(&ServerAdminServiceDesc, srv)
}

func getPartitionAssignmentsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ServerAdminServer).GetPartitionAssignments(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetPartitionAssignmentsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ServerAdminServer).GetPartitionAssignments(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func checkStorageConnectionsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ServerAdminServer).CheckStorageConnections(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CheckStorageConnectionsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ServerAdminServer).CheckStorageConnections(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ServerAdminServiceDesc is the grpc.ServiceDesc for the ServerAdmin service.
var ServerAdminServiceDesc = grpc.ServiceDesc{
	ServiceName: ServerAdminServiceName,
	HandlerType: (*ServerAdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetPartitionAssignments", Handler: getPartitionAssignmentsHandler},
		{MethodName: "CheckStorageConnections", Handler: checkStorageConnectionsHandler},
	},
	Streams: []grpc.StreamDesc{},
}

// StorageAdminClient is the client API for the StorageAdmin service.
type StorageAdminClient interface {
	GetAssignedPartitionStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type storageAdminClient struct {
	cc grpc.ClientConnInterface
}

// NewStorageAdminClient creates a StorageAdmin client over cc.
func NewStorageAdminClient(cc grpc.ClientConnInterface) StorageAdminClient {
	return &storageAdminClient{cc: cc}
}

func (c *storageAdminClient) GetAssignedPartitionStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetAssignedPartitionStatusMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// StorageAdminServer is the server API for the StorageAdmin service.
type StorageAdminServer interface {
	GetAssignedPartitionStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// UnimplementedStorageAdminServer can be embedded to have forward compatible implementations.
type UnimplementedStorageAdminServer struct{}

func (UnimplementedStorageAdminServer) GetAssignedPartitionStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAssignedPartitionStatus not implemented")
}

// RegisterStorageAdminServer registers srv on s.
func RegisterStorageAdminServer(s grpc.ServiceRegistrar, srv StorageAdminServer) {
	s.RegisterService(&StorageAdminServiceDesc, srv)
}

func getAssignedPartitionStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorageAdminServer).GetAssignedPartitionStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetAssignedPartitionStatusMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StorageAdminServer).GetAssignedPartitionStatus(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// StorageAdminServiceDesc is the grpc.ServiceDesc for the StorageAdmin service.
var StorageAdminServiceDesc = grpc.ServiceDesc{
	ServiceName: StorageAdminServiceName,
	HandlerType: (*StorageAdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetAssignedPartitionStatus", Handler: getAssignedPartitionStatusHandler},
	},
	Streams: []grpc.StreamDesc{},
}
