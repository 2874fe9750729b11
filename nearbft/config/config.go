// Package config provides environment-variable-and-flag configuration for
// the orchestrator and CLI: an env var default, overridable by a small
// positional --flag value scanner.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the orchestrator/CLI configuration.
type Config struct {
	RootDir string

	// RPCEndpoint is the NEAR JSON-RPC node the orchestrator's (external)
	// block/validator fetcher talks to; this system only consumes the
	// bytes a fetcher hands it (§1), so this value is a placeholder the
	// surrounding deployment wires up, not something the core reads.
	RPCEndpoint string

	// WorkerBusTopic names the libp2p-pubsub topic the external worker
	// pool of §5.2 uses for its JSON request/reply contract.
	WorkerBusTopic string

	// CircuitCacheDir names a directory for compiled circuit data. The
	// in-memory nearbft/circuitcache does not read it; nothing is persisted
	// between runs.
	CircuitCacheDir string

	// Workers bounds the intra-batch worker-pool size (§5.1); 0 means "use
	// GOMAXPROCS".
	Workers int
}

// NewConfig parses configuration from environment variables, then
// positional --flag value overrides in args.
func NewConfig(args ...string) *Config {
	cfg := &Config{
		RootDir:         getEnv("ROOT", "."),
		RPCEndpoint:     getEnv("NEAR_RPC_ENDPOINT", "https://rpc.mainnet.near.org"),
		WorkerBusTopic:  getEnv("WORKER_BUS_TOPIC", "near-bft-zk/ed25519-proofs/v1"),
		CircuitCacheDir: getEnv("CIRCUIT_CACHE_DIR", ".cache/circuits"),
		Workers:         0,
	}

	for i := 0; i < len(args); i++ {
		if len(args) <= i+1 {
			panic(fmt.Errorf("config: missing argument for %s", args[i]))
		}
		switch args[i] {
		case "--root":
			cfg.RootDir = args[i+1]
			i++
		case "--rpc":
			cfg.RPCEndpoint = args[i+1]
			i++
		case "--worker-bus-topic":
			cfg.WorkerBusTopic = args[i+1]
			i++
		case "--circuit-cache-dir":
			cfg.CircuitCacheDir = args[i+1]
			i++
		case "--workers":
			n, _ := strconv.Atoi(args[i+1])
			cfg.Workers = n
			i++
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
