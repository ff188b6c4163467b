// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/xid"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.ExecutorAddr != "127.0.0.1:8910" || cfg.MonitorAddr != "127.0.0.1:8765" {
		t.Fatalf("unexpected default addresses %+v", cfg)
	}
	if cfg.QueueCapacity != 10000 || cfg.MaxRetries != 3 {
		t.Fatalf("unexpected queue defaults %+v", cfg)
	}
	if cfg.ScanPeriod() != 30*time.Second {
		t.Fatalf("unexpected scan period %v", cfg.ScanPeriod())
	}
}

func TestLoadOverrides(t *testing.T) {
	fn := filepath.Join(t.TempDir(), xid.New().String()+".toml")
	body := `
executor_addr = "127.0.0.1:9910"
workers = 4
queue_capacity = 64
origins = ["http://localhost:3000"]
scan_interval = "5s"
`
	if errGo := os.WriteFile(fn, []byte(body), 0600); errGo != nil {
		t.Fatal(errGo)
	}

	cfg, err := Load(fn)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ExecutorAddr != "127.0.0.1:9910" || cfg.Workers != 4 || cfg.QueueCapacity != 64 {
		t.Fatalf("overrides not applied %+v", cfg)
	}
	// Values the file does not mention keep their defaults
	if cfg.MonitorAddr != "127.0.0.1:8765" || cfg.MaxRetries != 3 {
		t.Fatalf("defaults lost %+v", cfg)
	}
	if len(cfg.Origins) != 1 || cfg.Origins[0] != "http://localhost:3000" {
		t.Fatalf("origins not applied %+v", cfg.Origins)
	}
	if cfg.ScanPeriod() != 5*time.Second {
		t.Fatalf("scan interval not applied %v", cfg.ScanPeriod())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("missing file must be reported")
	}
}

func TestScanPeriodFloor(t *testing.T) {
	cfg := Default()
	cfg.ScanInterval = duration{time.Millisecond}
	if cfg.ScanPeriod() != 30*time.Second {
		t.Fatal("sub second scan interval must fall back to the default")
	}
}
