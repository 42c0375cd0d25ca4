package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	consulapi "github.com/hashicorp/consul/api"

	"clusterverify/internal/topology"
)

// ErrNotFound is returned when a required key is absent from the store.
var ErrNotFound = errors.New("metadata key not found")

const (
	partitionCountKey = "partitions/count"
	serversPrefix     = "servers/"
	assignmentPrefix  = "assignment/"
	connectionsKey    = "store/connections"
	replicasKey       = "store/replicas"
)

// ConsulConfig configures the Consul-backed source.
type ConsulConfig struct {
	Addr  string
	Token string
	// Root is the key prefix of the cluster, e.g. "logcluster/prod".
	Root string
}

// Consul reads cluster metadata from Consul KV. Layout under Root:
//
//	partitions/count    decimal partition count
//	servers/<id>        {"host": "...", "port": 5000}
//	assignment/<id>     [0, 3, 7]
//	store/connections   {"host:port": adminPort}
//	store/replicas      {"host:port": [0, 1]}
type Consul struct {
	kv   *consulapi.KV
	root string
}

type serverValue struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// NewConsul creates a Consul source. No request is made until the first read.
func NewConsul(cfg ConsulConfig) (*Consul, error) {
	ccfg := consulapi.DefaultConfig()
	if cfg.Addr != "" {
		ccfg.Address = cfg.Addr
	}
	if cfg.Token != "" {
		ccfg.Token = cfg.Token
	}
	cli, err := consulapi.NewClient(ccfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return &Consul{kv: cli.KV(), root: strings.Trim(cfg.Root, "/")}, nil
}

func (c *Consul) key(k string) string {
	if c.root == "" {
		return k
	}
	return c.root + "/" + k
}

func (c *Consul) get(ctx context.Context, k string) ([]byte, error) {
	full := c.key(k)
	pair, _, err := c.kv.Get(full, (&consulapi.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("consul get %s: %w", full, err)
	}
	if pair == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, full)
	}
	return pair.Value, nil
}

// list returns the values under prefix keyed by the remainder of the key.
func (c *Consul) list(ctx context.Context, prefix string) (map[string][]byte, error) {
	full := c.key(prefix)
	pairs, _, err := c.kv.List(full, (&consulapi.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("consul list %s: %w", full, err)
	}
	out := make(map[string][]byte, len(pairs))
	for _, p := range pairs {
		name := strings.TrimPrefix(p.Key, full)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		out[name] = p.Value
	}
	return out, nil
}

// NumPartitions reads partitions/count.
func (c *Consul) NumPartitions(ctx context.Context) (int, error) {
	raw, err := c.get(ctx, partitionCountKey)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", c.key(partitionCountKey), err)
	}
	return n, nil
}

// ServerDescriptors reads every servers/<id> key.
func (c *Consul) ServerDescriptors(ctx context.Context) ([]topology.ServerDescriptor, error) {
	values, err := c.list(ctx, serversPrefix)
	if err != nil {
		return nil, err
	}
	servers := make([]topology.ServerDescriptor, 0, len(values))
	for name, raw := range values {
		id, err := strconv.Atoi(name)
		if err != nil {
			return nil, fmt.Errorf("server key %q: %w", c.key(serversPrefix+name), err)
		}
		var v serverValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode server %d: %w", id, err)
		}
		servers = append(servers, topology.ServerDescriptor{
			ID:       id,
			Endpoint: topology.Endpoint{Host: v.Host, Port: v.Port},
		})
	}
	return servers, nil
}

// PartitionAssignment reads every assignment/<id> key.
func (c *Consul) PartitionAssignment(ctx context.Context) (map[int][]int, error) {
	values, err := c.list(ctx, assignmentPrefix)
	if err != nil {
		return nil, err
	}
	out := make(map[int][]int, len(values))
	for name, raw := range values {
		id, err := strconv.Atoi(name)
		if err != nil {
			return nil, fmt.Errorf("assignment key %q: %w", c.key(assignmentPrefix+name), err)
		}
		var partitions []int
		if err := json.Unmarshal(raw, &partitions); err != nil {
			return nil, fmt.Errorf("decode assignment of server %d: %w", id, err)
		}
		out[id] = partitions
	}
	return out, nil
}

// ReplicaAssignment reads store/replicas. It returns an empty mapping when
// no storage is registered.
func (c *Consul) ReplicaAssignment(ctx context.Context) (map[string][]int, error) {
	out := make(map[string][]int)
	if err := c.getOptionalJSON(ctx, replicasKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StorageConnections reads store/connections. It returns an empty mapping
// when no storage is registered.
func (c *Consul) StorageConnections(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)
	if err := c.getOptionalJSON(ctx, connectionsKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Consul) getOptionalJSON(ctx context.Context, k string, v any) error {
	raw, err := c.get(ctx, k)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", c.key(k), err)
	}
	return nil
}
