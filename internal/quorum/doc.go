// Package quorum provides the fan-out used to query cluster nodes and the
// majority arithmetic applied to the answers. It handles parallel dispatch,
// joining on completion or cancellation, and quorum validation.
package quorum
