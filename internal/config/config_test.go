package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"clusterverify/internal/rpc"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// isolate runs the test in an empty directory with none of the override
// variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	for _, key := range []string{EnvConsulAddr, EnvRoot, EnvConsulToken} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Config
		wantErr bool
	}{
		{
			name: "full config",
			input: `
metadata:
  consul_addr: consul.internal:8500
  root: logcluster/prod
  token: secret
rpc:
  dial_timeout: 2s
  request_timeout: 1m
metrics:
  textfile: /var/lib/node_exporter/clusterverify.prom
`,
			want: &Config{
				Metadata: MetadataConfig{ConsulAddr: "consul.internal:8500", Root: "logcluster/prod", Token: "secret"},
				RPC:      RPCConfig{DialTimeout: 2 * time.Second, RequestTimeout: time.Minute},
				Metrics:  MetricsConfig{Textfile: "/var/lib/node_exporter/clusterverify.prom"},
			},
		},
		{
			name:  "defaults",
			input: "metadata:\n  root: logcluster/dev\n",
			want: &Config{
				Metadata: MetadataConfig{ConsulAddr: "127.0.0.1:8500", Root: "logcluster/dev"},
				RPC:      RPCConfig{DialTimeout: rpc.DefaultDialTimeout, RequestTimeout: rpc.DefaultRequestTimeout},
			},
		},
		{
			name:    "missing root",
			input:   "metadata:\n  consul_addr: 127.0.0.1:8500\n",
			wantErr: true,
		},
		{
			name:    "empty document",
			input:   "",
			wantErr: true,
		},
		{
			name:    "unknown field",
			input:   "metadata:\n  root: a\n  zk_connect: localhost:2181\n",
			wantErr: true,
		},
		{
			name:    "bad duration",
			input:   "metadata:\n  root: a\nrpc:\n  dial_timeout: soon\n",
			wantErr: true,
		},
		{
			name:    "negative timeout",
			input:   "metadata:\n  root: a\nrpc:\n  request_timeout: -1s\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			got, err := Parse([]byte(tt.input))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("Parse() error = %v, want ErrInvalid", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "cluster.yaml", "metadata:\n  root: file/root\n  consul_addr: file:8500\n  token: file-token\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Metadata.Root != "file/root" {
		t.Errorf("Root = %q, want file/root", cfg.Metadata.Root)
	}

	// .env beats the file
	writeFile(t, dir, ".env", EnvRoot+"=dotenv/root\n"+EnvConsulAddr+"=dotenv:8500\n")
	t.Cleanup(func() {
		os.Unsetenv(EnvRoot)
		os.Unsetenv(EnvConsulAddr)
	})
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := MetadataConfig{ConsulAddr: "dotenv:8500", Root: "dotenv/root", Token: "file-token"}
	if cfg.Metadata != want {
		t.Errorf("Metadata = %+v, want %+v", cfg.Metadata, want)
	}

	// the process environment beats .env
	t.Setenv(EnvRoot, "env/root")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Metadata.Root != "env/root" {
		t.Errorf("Root = %q, want env/root", cfg.Metadata.Root)
	}
}

func TestConfigAccessors(t *testing.T) {
	cfg := &Config{
		Metadata: MetadataConfig{ConsulAddr: "c:8500", Root: "r", Token: "t"},
		RPC:      RPCConfig{DialTimeout: time.Second, RequestTimeout: 3 * time.Second},
	}

	consul := cfg.ConsulConfig()
	if consul.Addr != "c:8500" || consul.Root != "r" || consul.Token != "t" {
		t.Errorf("ConsulConfig() = %+v", consul)
	}

	want := rpc.Options{DialTimeout: time.Second, RequestTimeout: 3 * time.Second}
	if got := cfg.RPCOptions(); got != want {
		t.Errorf("RPCOptions() = %+v, want %+v", got, want)
	}
}
