package network

import (
	"fmt"
	"time"
)

// RPCConfig holds the connection parameters for a BSV node's JSON-RPC interface.
// Timeout bounds each HTTP request and PollInterval paces BroadcastAndWait's
// acceptance checks; zero values fall back to the package defaults.
type RPCConfig struct {
	URL          string        `json:"url"`
	User         string        `json:"user"`
	Password     string        `json:"password"`
	Network      string        `json:"network"`
	Timeout      time.Duration `json:"timeout,omitempty"`
	PollInterval time.Duration `json:"poll_interval,omitempty"`
}

// NetworkPresets contains default RPC configurations for known networks.
// Mainnet is intentionally omitted to require explicit configuration.
var NetworkPresets = map[string]RPCConfig{
	"regtest": {URL: "http://localhost:18332", User: "cobalt", Password: "cobalt"},
	"testnet": {URL: "http://localhost:18333", User: "cobalt", Password: "cobalt"},
}

// ResolveConfig merges RPC configuration from three sources with decreasing priority:
//  1. CLI flags (highest priority)
//  2. Environment variables (COBALT_RPC_URL, COBALT_RPC_USER, COBALT_RPC_PASS)
//  3. Network presets (lowest priority, regtest/testnet only)
//
// For mainnet, explicit configuration is required -- there is no preset.
func ResolveConfig(flags *RPCConfig, env map[string]string, network string) (*RPCConfig, error) {
	result := RPCConfig{Network: network}

	// Layer 1: start with preset defaults if available.
	if preset, ok := NetworkPresets[network]; ok {
		result = preset
		result.Network = network
	}

	// Layer 2: environment variables override preset defaults.
	if env != nil {
		if v, ok := env["COBALT_RPC_URL"]; ok && v != "" {
			result.URL = v
		}
		if v, ok := env["COBALT_RPC_USER"]; ok && v != "" {
			result.User = v
		}
		if v, ok := env["COBALT_RPC_PASS"]; ok && v != "" {
			result.Password = v
		}
	}

	// Layer 3: CLI flags have highest priority.
	if flags != nil {
		if flags.URL != "" {
			result.URL = flags.URL
		}
		if flags.User != "" {
			result.User = flags.User
		}
		if flags.Password != "" {
			result.Password = flags.Password
		}
		if flags.Timeout > 0 {
			result.Timeout = flags.Timeout
		}
		if flags.PollInterval > 0 {
			result.PollInterval = flags.PollInterval
		}
	}

	// Validate: URL must be set (mainnet has no preset, so this catches unconfigured mainnet).
	if result.URL == "" {
		return nil, fmt.Errorf("network: %s requires explicit RPC configuration (set --rpc-url, COBALT_RPC_URL, or config file)", network)
	}

	return &result, nil
}
