// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package config

// Operator configuration for the agent.  Everything has a compiled in
// default, a TOML file can override the defaults, and command line flags
// processed by the caller win over both.

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
)

// Config carries every tunable the agent exposes to exam operators
type Config struct {
	ExecutorAddr string `toml:"executor_addr"` // Execution endpoint listen address
	MonitorAddr  string `toml:"monitor_addr"`  // Monitor endpoint listen address
	PromAddr     string `toml:"prom_addr"`     // Prometheus listen address, empty disables the listener

	Workers       int    `toml:"workers"`        // Worker pool size, 0 means one per CPU
	QueueCapacity int    `toml:"queue_capacity"` // Per band queue capacity
	MaxRetries    uint32 `toml:"max_retries"`    // Nack budget before dead lettering

	Origins []string `toml:"origins"` // Exam client origins permitted by CORS

	ScanInterval duration `toml:"scan_interval"` // Forbidden process sweep period
}

// duration lets TOML carry values like "30s"
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) (errGo error) {
	d.Duration, errGo = time.ParseDuration(string(text))
	return errGo
}

// Default returns the configuration used when the operator supplies nothing
func Default() (cfg *Config) {
	return &Config{
		ExecutorAddr:  "127.0.0.1:8910",
		MonitorAddr:   "127.0.0.1:8765",
		PromAddr:      "",
		Workers:       0,
		QueueCapacity: 10000,
		MaxRetries:    3,
		Origins:       []string{"*"},
		ScanInterval:  duration{30 * time.Second},
	}
}

// SetScanInterval overrides the sweep period, used by the flag layer
func (cfg *Config) SetScanInterval(d time.Duration) {
	cfg.ScanInterval = duration{d}
}

// ScanPeriod returns the sweep interval with a floor preventing an operator
// typo from turning the monitor into a busy loop
func (cfg *Config) ScanPeriod() time.Duration {
	if cfg.ScanInterval.Duration < time.Second {
		return 30 * time.Second
	}
	return cfg.ScanInterval.Duration
}

// Load reads a TOML file over the defaults.  An empty file name returns the
// defaults untouched, a missing file is an operator error.
func Load(fn string) (cfg *Config, err kv.Error) {
	cfg = Default()
	if len(fn) == 0 {
		return cfg, nil
	}

	data, errGo := os.ReadFile(fn)
	if errGo != nil {
		return nil, kv.Wrap(errGo).With("file", fn).With("stack", stack.Trace().TrimRuntime())
	}
	if errGo = toml.Unmarshal(data, cfg); errGo != nil {
		return nil, kv.Wrap(errGo).With("file", fn).With("stack", stack.Trace().TrimRuntime())
	}
	return cfg, nil
}
