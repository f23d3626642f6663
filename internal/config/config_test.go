package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vol-trader-arslancm/BloombergData/internal/selector"
)

const validYAML = `
environment:
  mode: paper
  log_level: info

gateway:
  provider: mock
  requests_per_sec: 10
  burst: 2

strategy:
  start_date: "2025-01-01"
  end_date: "2025-06-30"
  lookahead_days: 90
  delta_tolerance: 0.05
  legs:
    - target_delta: 0.50
      quantity: -1
      role: SHORT
    - target_delta: 0.10
      quantity: 2
      role: LONG
  strikes:
    min: 10
    max: 50
    step: 2
    dense: [12, 15, 18, 22, 25, 28, 32, 35, 38, 42, 45, 48]
  hedge:
    enabled: true
    quantity: -1
  multipliers:
    option: 100
    future: 1000
  concurrency: 4

storage:
  manifest_path: data/position_manifest.csv
  summary_path: data/run_summary.json

dashboard:
  enabled: false
  port: 9090
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !cfg.IsPaper() {
		t.Error("expected paper mode")
	}
	if len(cfg.Strategy.Legs) != 2 {
		t.Fatalf("got %d legs, want 2", len(cfg.Strategy.Legs))
	}
	short := cfg.Strategy.Legs[0]
	if short.TargetDelta != 0.50 || short.Quantity != -1 || short.Role != selector.RoleShort {
		t.Errorf("short leg = %+v", short)
	}
	if cfg.StartTime() != time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("StartTime = %v", cfg.StartTime())
	}
	if cfg.Lookahead() != 90*24*time.Hour {
		t.Errorf("Lookahead = %v", cfg.Lookahead())
	}
	if cfg.Strategy.Multipliers.Future != 1000 {
		t.Errorf("future multiplier = %v", cfg.Strategy.Multipliers.Future)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	bad := strings.Replace(validYAML, "log_level: info", "log_level: info\n  surprise: 1", 1)
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("MANIFEST_DIR", "/tmp/vixdata")
	content := strings.Replace(validYAML,
		"manifest_path: data/position_manifest.csv",
		"manifest_path: ${MANIFEST_DIR}/manifest.csv", 1)

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.ManifestPath != "/tmp/vixdata/manifest.csv" {
		t.Errorf("manifest_path = %q", cfg.Storage.ManifestPath)
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			"bad mode",
			func(c *Config) { c.Environment.Mode = "yolo" },
			"environment.mode",
		},
		{
			"no legs",
			func(c *Config) { c.Strategy.Legs = nil },
			"strategy.legs",
		},
		{
			"leg sign contradicts role",
			func(c *Config) { c.Strategy.Legs[0].Quantity = 1 },
			"strategy.legs[0]",
		},
		{
			"tolerance too wide",
			func(c *Config) { c.Strategy.DeltaTolerance = 0.9 },
			"delta_tolerance",
		},
		{
			"dates reversed",
			func(c *Config) { c.Strategy.StartDate, c.Strategy.EndDate = c.Strategy.EndDate, c.Strategy.StartDate },
			"end_date",
		},
		{
			"zero strike step",
			func(c *Config) { c.Strategy.Strikes.Step = 0 },
			"strikes.step",
		},
		{
			"hedge enabled without quantity",
			func(c *Config) { c.Strategy.Hedge.Quantity = 0 },
			"hedge.quantity",
		},
		{
			"zero multiplier",
			func(c *Config) { c.Strategy.Multipliers.Option = 0 },
			"multipliers",
		},
		{
			"missing manifest path",
			func(c *Config) { c.Storage.ManifestPath = "" },
			"manifest_path",
		},
		{
			"dashboard without port",
			func(c *Config) { c.Dashboard.Enabled = true; c.Dashboard.Port = 0 },
			"dashboard.port",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, validYAML))
			if err != nil {
				t.Fatalf("baseline config invalid: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	content := strings.NewReplacer(
		"  requests_per_sec: 10\n", "",
		"  burst: 2\n", "",
		"  lookahead_days: 90\n", "",
		"  delta_tolerance: 0.05\n", "",
		"  concurrency: 4\n", "",
	).Replace(validYAML)

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.RequestsPerSec != defaultRequestsPerSec {
		t.Errorf("requests_per_sec default = %v", cfg.Gateway.RequestsPerSec)
	}
	if cfg.Gateway.Burst != 1 {
		t.Errorf("burst default = %v", cfg.Gateway.Burst)
	}
	if cfg.Strategy.LookaheadDays != defaultLookaheadDays {
		t.Errorf("lookahead default = %v", cfg.Strategy.LookaheadDays)
	}
	if cfg.Strategy.DeltaTolerance != selector.DefaultTolerance {
		t.Errorf("tolerance default = %v", cfg.Strategy.DeltaTolerance)
	}
	if cfg.Strategy.Concurrency != defaultConcurrency {
		t.Errorf("concurrency default = %v", cfg.Strategy.Concurrency)
	}
}
