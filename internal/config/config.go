// Package config provides configuration management for the strategy collector.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/vol-trader-arslancm/BloombergData/internal/selector"
	"github.com/vol-trader-arslancm/BloombergData/internal/tracker"
)

const (
	// defaultLookaheadDays extends the expiry calendar past the end date so
	// in-progress cycles stay in scope
	defaultLookaheadDays = 90
	// defaultRequestsPerSec is used when gateway.requests_per_sec is unset
	defaultRequestsPerSec = 5.0
	// defaultConcurrency bounds parallel expiry/symbol work when unset
	defaultConcurrency = 4
)

// dateLayout is the format of date fields in the config file.
const dateLayout = "2006-01-02"

// Config represents the complete application configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Gateway     GatewayConfig     `yaml:"gateway"`
	Strategy    StrategyConfig    `yaml:"strategy"`
	Storage     StorageConfig     `yaml:"storage"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
}

// EnvironmentConfig defines the environment settings.
type EnvironmentConfig struct {
	Mode     string `yaml:"mode"`      // paper | live
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// GatewayConfig defines market data gateway settings.
type GatewayConfig struct {
	Provider       string  `yaml:"provider"` // mock is the only built-in provider
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	Burst          int     `yaml:"burst"`
	// BreakerEnabled wraps the gateway in a circuit breaker
	BreakerEnabled bool `yaml:"breaker_enabled"`
}

// StrategyConfig defines the strategy parameters: which legs to target, the
// candidate strike ladder, and the contract multipliers.
type StrategyConfig struct {
	StartDate      string              `yaml:"start_date"` // YYYY-MM-DD
	EndDate        string              `yaml:"end_date"`   // YYYY-MM-DD
	LookaheadDays  int                 `yaml:"lookahead_days"`
	Legs           []selector.TargetLeg `yaml:"legs"`
	DeltaTolerance float64             `yaml:"delta_tolerance"`
	Strikes        StrikeConfig        `yaml:"strikes"`
	Hedge          HedgeConfig         `yaml:"hedge"`
	Multipliers    tracker.Multipliers `yaml:"multipliers"`
	Concurrency    int                 `yaml:"concurrency"`
}

// StrikeConfig defines the candidate strike ladder: coarse uniform spacing
// over [min,max] plus dense near-the-money points.
type StrikeConfig struct {
	Min   float64   `yaml:"min"`
	Max   float64   `yaml:"max"`
	Step  float64   `yaml:"step"`
	Dense []float64 `yaml:"dense"`
}

// HedgeConfig defines the front-month futures hedge. Quantity is the signed
// number of contracts per cycle; sizing is an input here, never computed.
type HedgeConfig struct {
	Enabled  bool `yaml:"enabled"`
	Quantity int  `yaml:"quantity"`
}

// StorageConfig defines where run artifacts are persisted.
type StorageConfig struct {
	ManifestPath string `yaml:"manifest_path"`
	SummaryPath  string `yaml:"summary_path"`
}

// DashboardConfig defines the read-only results dashboard.
type DashboardConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks that all configuration values are valid and consistent,
// normalizing unset fields to defaults first.
func (c *Config) Validate() error {
	c.normalize()

	// Environment validation
	if c.Environment.Mode != "paper" && c.Environment.Mode != "live" {
		return fmt.Errorf("environment.mode must be 'paper' or 'live'")
	}

	// Gateway validation
	if c.Gateway.Provider == "" {
		return fmt.Errorf("gateway.provider is required")
	}
	if c.Gateway.RequestsPerSec <= 0 {
		return fmt.Errorf("gateway.requests_per_sec must be > 0")
	}
	if c.Gateway.Burst <= 0 {
		return fmt.Errorf("gateway.burst must be > 0")
	}

	// Strategy validation
	start, err := time.Parse(dateLayout, c.Strategy.StartDate)
	if err != nil {
		return fmt.Errorf("strategy.start_date invalid: %w", err)
	}
	end, err := time.Parse(dateLayout, c.Strategy.EndDate)
	if err != nil {
		return fmt.Errorf("strategy.end_date invalid: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("strategy.end_date (%s) must not precede start_date (%s)",
			c.Strategy.EndDate, c.Strategy.StartDate)
	}
	if c.Strategy.LookaheadDays < 0 {
		return fmt.Errorf("strategy.lookahead_days must be >= 0")
	}
	if len(c.Strategy.Legs) == 0 {
		return fmt.Errorf("strategy.legs must configure at least one leg")
	}
	for i, leg := range c.Strategy.Legs {
		if err := leg.Validate(); err != nil {
			return fmt.Errorf("strategy.legs[%d]: %w", i, err)
		}
	}
	if c.Strategy.DeltaTolerance <= 0 || c.Strategy.DeltaTolerance > 0.5 {
		return fmt.Errorf("strategy.delta_tolerance must be in (0, 0.5]")
	}
	if c.Strategy.Strikes.Min <= 0 || c.Strategy.Strikes.Max < c.Strategy.Strikes.Min {
		return fmt.Errorf("strategy.strikes must have 0 < min <= max")
	}
	if c.Strategy.Strikes.Step <= 0 {
		return fmt.Errorf("strategy.strikes.step must be > 0")
	}
	if c.Strategy.Hedge.Enabled && c.Strategy.Hedge.Quantity == 0 {
		return fmt.Errorf("strategy.hedge.quantity must be non-zero when the hedge is enabled")
	}
	if err := c.Strategy.Multipliers.Validate(); err != nil {
		return fmt.Errorf("strategy.multipliers: %w", err)
	}
	if c.Strategy.Concurrency <= 0 {
		return fmt.Errorf("strategy.concurrency must be > 0")
	}

	// Storage validation
	if c.Storage.ManifestPath == "" {
		return fmt.Errorf("storage.manifest_path is required")
	}

	// Dashboard validation
	if c.Dashboard.Enabled && (c.Dashboard.Port <= 0 || c.Dashboard.Port > 65535) {
		return fmt.Errorf("dashboard.port must be in (0, 65535] when the dashboard is enabled")
	}

	return nil
}

// normalize sets defaults for unset optional fields.
func (c *Config) normalize() {
	if c.Gateway.Provider == "" && c.Environment.Mode == "paper" {
		c.Gateway.Provider = "mock"
	}
	if c.Gateway.RequestsPerSec == 0 {
		c.Gateway.RequestsPerSec = defaultRequestsPerSec
	}
	if c.Gateway.Burst == 0 {
		c.Gateway.Burst = 1
	}
	if c.Strategy.LookaheadDays == 0 {
		c.Strategy.LookaheadDays = defaultLookaheadDays
	}
	if c.Strategy.DeltaTolerance == 0 {
		c.Strategy.DeltaTolerance = selector.DefaultTolerance
	}
	if c.Strategy.Concurrency == 0 {
		c.Strategy.Concurrency = defaultConcurrency
	}
}

// IsPaper returns true if the collector runs against synthetic data.
func (c *Config) IsPaper() bool {
	return c.Environment.Mode == "paper"
}

// StartTime returns the parsed strategy start date. Call after Validate.
func (c *Config) StartTime() time.Time {
	t, _ := time.Parse(dateLayout, c.Strategy.StartDate)
	return t
}

// EndTime returns the parsed strategy end date. Call after Validate.
func (c *Config) EndTime() time.Time {
	t, _ := time.Parse(dateLayout, c.Strategy.EndDate)
	return t
}

// Lookahead returns the calendar lookahead buffer as a duration.
func (c *Config) Lookahead() time.Duration {
	return time.Duration(c.Strategy.LookaheadDays) * 24 * time.Hour
}
