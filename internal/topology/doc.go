// Package topology holds the authoritative view of the cluster: which server
// owns which partition, which storage replicas carry each partition, and the
// storage admin endpoints. A Snapshot is loaded once per run and is read-only.
package topology
