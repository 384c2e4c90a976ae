// Copyright (c) 2024 The Cobalt developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"mainnet\", \"testnet\", or \"regtest\")")

	// ErrInvalidRPCAddr indicates the node RPC address is malformed.
	ErrInvalidRPCAddr = errors.New("config: invalid rpc address")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")

	// ErrInvalidValue indicates a config value failed to parse for its key.
	ErrInvalidValue = errors.New("config: invalid value")

	// ErrInvalidFeeRate indicates a fee rate is zero or exceeds the ceiling.
	ErrInvalidFeeRate = errors.New("config: invalid fee rate")

	// ErrInvalidWorkers indicates the worker pool size is not positive.
	ErrInvalidWorkers = errors.New("config: worker count must be positive")
)
