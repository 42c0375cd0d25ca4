// Package rpc is the gRPC transport the verifier uses to reach server nodes
// and storage admin endpoints.
package rpc
