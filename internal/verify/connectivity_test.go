package verify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"clusterverify/internal/metadata"
	"clusterverify/internal/topology"
)

type fakeConnectivity struct {
	status map[topology.Endpoint]map[string]bool
	asked  []topology.Endpoint
}

func (f *fakeConnectivity) CheckServerConnections(ctx context.Context, endpoints []topology.Endpoint) map[topology.Endpoint]map[string]bool {
	f.asked = endpoints
	out := make(map[topology.Endpoint]map[string]bool)
	for _, ep := range endpoints {
		if reach, ok := f.status[ep]; ok {
			out[ep] = reach
		}
	}
	return out
}

func TestCheckConnectivity_OneServerDown(t *testing.T) {
	mem := metadata.NewMemory(2)
	mem.AddServer(topology.ServerDescriptor{ID: 2, Endpoint: endpoint(5002)}, 1)
	mem.AddServer(topology.ServerDescriptor{ID: 1, Endpoint: endpoint(5001)}, 0)

	client := &fakeConnectivity{status: map[topology.Endpoint]map[string]bool{
		endpoint(5001): {"storage1:9000": false, "storage0:9000": true},
	}}

	r := CheckConnectivity(context.Background(), load(t, mem), client, nil)

	assert.True(t, r.Reachable(endpoint(5001)))
	assert.False(t, r.Reachable(endpoint(5002)))

	var buf bytes.Buffer
	r.Render(&buf)
	assert.Equal(t,
		"Connectivity status of 127.0.0.1:5001 is: map[storage0:9000:true storage1:9000:false]\n"+
			"Connectivity status of 127.0.0.1:5002 is: UNREACHABLE\n",
		buf.String())
}

func TestCheckConnectivity_SharedEndpointAskedOnce(t *testing.T) {
	mem := metadata.NewMemory(2)
	mem.AddServer(topology.ServerDescriptor{ID: 1, Endpoint: endpoint(5001)}, 0)
	mem.AddServer(topology.ServerDescriptor{ID: 2, Endpoint: endpoint(5001)}, 1)

	client := &fakeConnectivity{status: map[topology.Endpoint]map[string]bool{
		endpoint(5001): {},
	}}

	r := CheckConnectivity(context.Background(), load(t, mem), client, nil)

	assert.Equal(t, []topology.Endpoint{endpoint(5001)}, client.asked)
	var buf bytes.Buffer
	r.Render(&buf)
	assert.Equal(t, "Connectivity status of 127.0.0.1:5001 is: map[]\n", buf.String())
}

func TestCheckConnectivity_NilMapIsUnreachable(t *testing.T) {
	mem := metadata.NewMemory(1)
	mem.AddServer(topology.ServerDescriptor{ID: 1, Endpoint: endpoint(5001)}, 0)

	client := &fakeConnectivity{status: map[topology.Endpoint]map[string]bool{
		endpoint(5001): nil,
	}}

	r := CheckConnectivity(context.Background(), load(t, mem), client, nil)
	assert.False(t, r.Reachable(endpoint(5001)))
}
