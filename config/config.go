// Copyright (c) 2024 The Cobalt developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config holds wallet pipeline settings: fee policy bounds, the
// node RPC endpoint, worker pool sizing, and data directory layout.
// Configuration is resolved in three layers: built-in defaults, an
// optional key=value file, and COBALT_* environment overrides.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Fee policy defaults, in satoshis per kilobyte unless noted.
const (
	// DefaultFeeRatePerKB is the standard rate applied to new transactions.
	DefaultFeeRatePerKB = 500

	// DefaultMaxFeeRatePerKB is the hard ceiling; any transaction whose
	// implied rate exceeds it is rejected before signing.
	DefaultMaxFeeRatePerKB = 50000

	// DefaultDustLimit is the smallest change output worth creating;
	// anything below folds into the fee.
	DefaultDustLimit = 546

	// DefaultWorkers is the size of the sign/broadcast worker pool.
	DefaultWorkers = 4

	// DefaultBroadcastTimeout bounds one broadcast-and-wait attempt.
	DefaultBroadcastTimeout = 30 * time.Second

	// DefaultRequestTimeout bounds one payment request fetch or submit.
	DefaultRequestTimeout = 15 * time.Second
)

// Config holds all resolved settings for the wallet pipeline.
type Config struct {
	DataDir string // wallet data directory (invoice and tx-state stores)
	Network string // "mainnet", "testnet", or "regtest"

	RPCAddr string // node JSON-RPC address, host:port
	RPCUser string
	RPCPass string

	FeeRatePerKB    uint64 // rate for new transactions, sat/KB
	MaxFeeRatePerKB uint64 // ceiling rate, sat/KB
	DustLimit       uint64 // minimum change output, satoshis

	Workers          int           // sign/broadcast worker pool size
	BroadcastTimeout time.Duration // per broadcast attempt
	RequestTimeout   time.Duration // per payment request round-trip

	LogLevel string
	LogFile  string // empty means stderr
}

// DefaultDataDir returns the default wallet data directory (~/.cobalt).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cobalt"
	}
	return filepath.Join(home, ".cobalt")
}

// ConfigPath returns the config file path inside a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:          DefaultDataDir(),
		Network:          "mainnet",
		RPCAddr:          "127.0.0.1:8332",
		FeeRatePerKB:     DefaultFeeRatePerKB,
		MaxFeeRatePerKB:  DefaultMaxFeeRatePerKB,
		DustLimit:        DefaultDustLimit,
		Workers:          DefaultWorkers,
		BroadcastTimeout: DefaultBroadcastTimeout,
		RequestTimeout:   DefaultRequestTimeout,
		LogLevel:         "info",
		LogFile:          "",
	}
}

// LoadConfig reads a key=value config file and returns the result of
// layering it over DefaultConfig. Missing file is an error; unknown keys
// are ignored so older binaries tolerate newer files.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}

		if err := applyKey(&cfg, key, value); err != nil {
			return cfg, fmt.Errorf("config: line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	return cfg, nil
}

// parseKeyValue splits "key = value" on the first '=' only, so values may
// themselves contain '='.
func parseKeyValue(line string) (string, string, error) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", ErrInvalidConfigLine
	}
	key := strings.ToLower(strings.TrimSpace(line[:idx]))
	value := strings.TrimSpace(line[idx+1:])
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, value, nil
}

// applyKey sets one config field from its file key. Unknown keys are
// silently ignored.
func applyKey(cfg *Config, key, value string) error {
	switch key {
	case "datadir":
		cfg.DataDir = value
	case "network":
		cfg.Network = value
	case "rpcaddr":
		cfg.RPCAddr = value
	case "rpcuser":
		cfg.RPCUser = value
	case "rpcpass":
		cfg.RPCPass = value
	case "feerate":
		return setUint(&cfg.FeeRatePerKB, key, value)
	case "maxfeerate":
		return setUint(&cfg.MaxFeeRatePerKB, key, value)
	case "dustlimit":
		return setUint(&cfg.DustLimit, key, value)
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
		}
		cfg.Workers = n
	case "broadcasttimeout":
		return setDuration(&cfg.BroadcastTimeout, key, value)
	case "requesttimeout":
		return setDuration(&cfg.RequestTimeout, key, value)
	case "loglevel":
		cfg.LogLevel = value
	case "logfile":
		cfg.LogFile = value
	}
	return nil
}

func setUint(dst *uint64, key, value string) error {
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
	}
	*dst = d
	return nil
}

// ApplyEnv overlays COBALT_* environment variables onto cfg. Recognized:
// COBALT_DATADIR, COBALT_NETWORK, COBALT_RPCADDR, COBALT_RPCUSER,
// COBALT_RPCPASS, COBALT_FEERATE, COBALT_MAXFEERATE, COBALT_WORKERS,
// COBALT_LOGLEVEL, COBALT_LOGFILE.
func ApplyEnv(cfg *Config) error {
	for _, key := range []string{
		"datadir", "network", "rpcaddr", "rpcuser", "rpcpass",
		"feerate", "maxfeerate", "workers", "loglevel", "logfile",
	} {
		env := "COBALT_" + strings.ToUpper(key)
		value, ok := os.LookupEnv(env)
		if !ok {
			continue
		}
		if err := applyKey(cfg, key, value); err != nil {
			return err
		}
	}
	return nil
}

// SaveConfig writes cfg to path in key=value form, creating parent
// directories as needed. Credentials are written as-is; the file is 0600.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Cobalt Configuration\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "network = %s\n", cfg.Network)
	fmt.Fprintf(&b, "rpcaddr = %s\n", cfg.RPCAddr)
	fmt.Fprintf(&b, "rpcuser = %s\n", cfg.RPCUser)
	fmt.Fprintf(&b, "rpcpass = %s\n", cfg.RPCPass)
	fmt.Fprintf(&b, "feerate = %d\n", cfg.FeeRatePerKB)
	fmt.Fprintf(&b, "maxfeerate = %d\n", cfg.MaxFeeRatePerKB)
	fmt.Fprintf(&b, "dustlimit = %d\n", cfg.DustLimit)
	fmt.Fprintf(&b, "workers = %d\n", cfg.Workers)
	fmt.Fprintf(&b, "broadcasttimeout = %s\n", cfg.BroadcastTimeout)
	fmt.Fprintf(&b, "requesttimeout = %s\n", cfg.RequestTimeout)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
