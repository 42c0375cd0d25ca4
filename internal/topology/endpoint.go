package topology

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Endpoint is the network address of a server or storage node.
type Endpoint struct {
	Host string
	Port int
}

// String renders the endpoint as host:port.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// ParseEndpoint parses an address in the form "host:port".
func ParseEndpoint(s string) (Endpoint, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(s))
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: %w", s, err)
	}
	if host == "" {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: empty host", s)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || !validPort(port) {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: bad port %q", s, portStr)
	}
	return Endpoint{Host: host, Port: port}, nil
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}

// ServerDescriptor identifies a server node.
type ServerDescriptor struct {
	ID       int
	Endpoint Endpoint
}
