// Package metadata provides topology.Source implementations: a Consul KV
// backed source used in production and an in-memory source for tests and
// local harnesses.
package metadata
