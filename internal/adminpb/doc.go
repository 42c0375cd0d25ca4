// Package adminpb defines the admin gRPC services exposed by log servers and
// storage nodes, using protobuf well-known types as payloads so no generated
// code is required.
//
// ServerAdmin:
//
//	GetPartitionAssignments(Empty) -> ListValue   partition ids the server runs
//	CheckStorageConnections(Empty) -> Struct      storage connection -> reachable
//
// StorageAdmin:
//
//	GetAssignedPartitionStatus(Empty) -> Struct   partition id -> read/write available
package adminpb
