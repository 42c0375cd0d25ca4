package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"clusterverify/internal/metadata"
	"clusterverify/internal/rpc"
)

// Environment variables that override the config file.
const (
	EnvConsulAddr  = "CLUSTERVERIFY_CONSUL_ADDR"
	EnvRoot        = "CLUSTERVERIFY_ROOT"
	EnvConsulToken = "CLUSTERVERIFY_CONSUL_TOKEN"
)

const defaultConsulAddr = "127.0.0.1:8500"

// ErrInvalid is returned when the configuration cannot be used.
var ErrInvalid = errors.New("invalid config")

// Config holds the verifier configuration.
type Config struct {
	Metadata MetadataConfig `yaml:"metadata"`
	RPC      RPCConfig      `yaml:"rpc"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// MetadataConfig locates the cluster metadata in Consul.
type MetadataConfig struct {
	ConsulAddr string `yaml:"consul_addr"`
	Root       string `yaml:"root"`
	Token      string `yaml:"token"`
}

// RPCConfig bounds calls to server and storage nodes.
type RPCConfig struct {
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// MetricsConfig controls metrics export. An empty Textfile disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Load reads the YAML config at path. A .env file in the working directory
// is loaded first; environment variables then override file values and
// unset fields get their defaults.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML config data and applies environment overrides and defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Metadata.ConsulAddr = getenv(EnvConsulAddr, c.Metadata.ConsulAddr)
	c.Metadata.Root = getenv(EnvRoot, c.Metadata.Root)
	c.Metadata.Token = getenv(EnvConsulToken, c.Metadata.Token)
}

func (c *Config) applyDefaults() {
	if c.Metadata.ConsulAddr == "" {
		c.Metadata.ConsulAddr = defaultConsulAddr
	}
	if c.RPC.DialTimeout == 0 {
		c.RPC.DialTimeout = rpc.DefaultDialTimeout
	}
	if c.RPC.RequestTimeout == 0 {
		c.RPC.RequestTimeout = rpc.DefaultRequestTimeout
	}
}

// Validate checks that the config is complete.
func (c *Config) Validate() error {
	if strings.Trim(c.Metadata.Root, "/") == "" {
		return fmt.Errorf("%w: metadata.root is required", ErrInvalid)
	}
	if c.RPC.DialTimeout < 0 {
		return fmt.Errorf("%w: rpc.dial_timeout must be positive, got %s", ErrInvalid, c.RPC.DialTimeout)
	}
	if c.RPC.RequestTimeout < 0 {
		return fmt.Errorf("%w: rpc.request_timeout must be positive, got %s", ErrInvalid, c.RPC.RequestTimeout)
	}
	return nil
}

// ConsulConfig returns the settings for the Consul metadata source.
func (c *Config) ConsulConfig() metadata.ConsulConfig {
	return metadata.ConsulConfig{
		Addr:  c.Metadata.ConsulAddr,
		Token: c.Metadata.Token,
		Root:  c.Metadata.Root,
	}
}

// RPCOptions returns the transport options.
func (c *Config) RPCOptions() rpc.Options {
	return rpc.Options{
		DialTimeout:    c.RPC.DialTimeout,
		RequestTimeout: c.RPC.RequestTimeout,
	}
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
