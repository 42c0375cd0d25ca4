// Command clustercli verifies that the partition assignment recorded in the
// cluster metadata matches what the server and storage fleets are running.
//
// Usage:
//
//	clustercli check-connectivity -c cluster.yaml
//	clustercli verify -c cluster.yaml [-p partition]
//
// The exit status is 0 when everything checked passed, 1 when a failure was
// reported and 2 when the run could not be set up.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"clusterverify/internal/config"
	"clusterverify/internal/metadata"
	"clusterverify/internal/metrics"
	"clusterverify/internal/report"
	"clusterverify/internal/rpc"
	"clusterverify/internal/topology"
	"clusterverify/internal/verify"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitSetup  = 2
)

// newSource opens the metadata store described by cfg.
var newSource = func(cfg *config.Config) (topology.Source, error) {
	return metadata.NewConsul(cfg.ConsulConfig())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  clustercli check-connectivity -c <config.yaml>")
	fmt.Fprintln(w, "  clustercli verify -c <config.yaml> [-p <partition>]")
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitSetup
	}

	switch args[0] {
	case "check-connectivity":
		return checkConnectivity(ctx, args[1:], stdout, stderr)
	case "verify":
		return verifyCluster(ctx, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return exitSetup
	}
}

// parseFlags parses args into fs. It returns a non-negative exit code when
// the command should stop.
func parseFlags(fs *flag.FlagSet, args []string, configPath *string) int {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitSetup
	}
	if *configPath == "" {
		fmt.Fprintln(fs.Output(), "missing required flag -c")
		fs.Usage()
		return exitSetup
	}
	return -1
}

// load reads the config and the metadata snapshot.
func load(ctx context.Context, configPath string) (*config.Config, *topology.Snapshot, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	src, err := newSource(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("metadata store: %w", err)
	}
	snap, err := topology.Load(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	return cfg, snap, nil
}

func writeMetrics(cfg *config.Config, m *metrics.Metrics) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		log.Printf("[clustercli] writing metrics to %s: %v", cfg.Metrics.Textfile, err)
	}
}

func checkConnectivity(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check-connectivity", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("c", "", "cluster config file (required)")
	if code := parseFlags(fs, args, configPath); code >= 0 {
		return code
	}

	cfg, snap, err := load(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to check topology: %v\n", err)
		return exitSetup
	}

	cm := rpc.NewClientManager(cfg.RPCOptions())
	defer cm.Close()

	m := metrics.New()
	r := verify.CheckConnectivity(ctx, snap, cm, m)
	r.Render(stdout)
	writeMetrics(cfg, m)

	for _, ep := range r.Endpoints {
		if !r.Reachable(ep) {
			return exitFailed
		}
	}
	return exitOK
}

func verifyCluster(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("c", "", "cluster config file (required)")
	partition := fs.Int("p", report.AllPartitions, "only report this partition")
	if code := parseFlags(fs, args, configPath); code >= 0 {
		return code
	}

	cfg, snap, err := load(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to verify cluster: %v\n", err)
		return exitSetup
	}
	if *partition != report.AllPartitions && (*partition < 0 || *partition >= snap.NumPartitions()) {
		fmt.Fprintf(stderr, "Failed to verify cluster: partition %d out of range [0, %d)\n", *partition, snap.NumPartitions())
		return exitSetup
	}

	cm := rpc.NewClientManager(cfg.RPCOptions())
	defer cm.Close()

	dial := func(ctx context.Context, addr string) (verify.StorageAdmin, error) {
		admin, err := cm.DialStorageAdmin(ctx, addr)
		if err != nil {
			return nil, err
		}
		return admin, nil
	}

	m := metrics.New()
	v := verify.New(snap, cm, dial, verify.WithMetrics(m))
	table := v.Run(ctx)

	sum := report.Render(stdout, table, *partition)
	m.RecordRun(sum, time.Now())
	writeMetrics(cfg, m)

	log.Printf("[%s] verification finished: %d partitions checked, %d failures", v.RunID(), sum.Partitions, sum.Failures)
	if !sum.Passed {
		return exitFailed
	}
	return exitOK
}
