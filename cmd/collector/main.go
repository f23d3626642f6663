package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"

	"github.com/vol-trader-arslancm/BloombergData/internal/config"
	"github.com/vol-trader-arslancm/BloombergData/internal/contracts"
	"github.com/vol-trader-arslancm/BloombergData/internal/dashboard"
	"github.com/vol-trader-arslancm/BloombergData/internal/manifest"
	"github.com/vol-trader-arslancm/BloombergData/internal/marketdata"
	"github.com/vol-trader-arslancm/BloombergData/internal/mock"
	"github.com/vol-trader-arslancm/BloombergData/internal/report"
	"github.com/vol-trader-arslancm/BloombergData/internal/strategy"
	"github.com/vol-trader-arslancm/BloombergData/internal/tracker"
)

type collector struct {
	config  *config.Config
	gateway marketdata.Gateway
	store   manifest.Store
	logger  *logrus.Logger
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg.Environment.LogLevel)
	logger.Infof("Starting VIX backspread collector in %s mode", cfg.Environment.Mode)

	gateway, err := buildGateway(cfg)
	if err != nil {
		logger.Fatalf("Failed to build gateway: %v", err)
	}

	c := &collector{
		config:  cfg,
		gateway: gateway,
		store:   manifest.NewStore(cfg.Storage.ManifestPath),
		logger:  logger,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := c.run(ctx); err != nil {
		logger.Fatalf("Collector error: %v", err)
	}

	if cfg.Dashboard.Enabled {
		if err := c.serveDashboard(ctx); err != nil {
			logger.Fatalf("Dashboard error: %v", err)
		}
	}

	logger.Info("Collector finished")
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// buildGateway assembles the provider and its decorators: rate limiting
// always, the circuit breaker when enabled.
func buildGateway(cfg *config.Config) (marketdata.Gateway, error) {
	var gateway marketdata.Gateway
	switch cfg.Gateway.Provider {
	case "mock":
		gateway = mock.NewGateway()
	default:
		return nil, fmt.Errorf("unknown gateway provider: %q", cfg.Gateway.Provider)
	}

	gateway = marketdata.NewRateLimitedGateway(gateway, cfg.Gateway.RequestsPerSec, cfg.Gateway.Burst)
	if cfg.Gateway.BreakerEnabled {
		gateway = marketdata.NewCircuitBreakerGateway(gateway)
	}
	return gateway, nil
}

func (c *collector) run(ctx context.Context) error {
	cfg := c.config

	hedgeQty := 0
	if cfg.Strategy.Hedge.Enabled {
		hedgeQty = cfg.Strategy.Hedge.Quantity
	}

	params := strategy.Params{
		Start:          cfg.StartTime(),
		End:            cfg.EndTime(),
		Lookahead:      cfg.Lookahead(),
		Legs:           cfg.Strategy.Legs,
		DeltaTolerance: cfg.Strategy.DeltaTolerance,
		Strikes: contracts.StrikeLadder(
			cfg.Strategy.Strikes.Min,
			cfg.Strategy.Strikes.Max,
			cfg.Strategy.Strikes.Step,
			cfg.Strategy.Strikes.Dense,
		),
		HedgeQuantity: hedgeQty,
		Concurrency:   cfg.Strategy.Concurrency,
	}

	pipeline := strategy.New(c.gateway, c.logger)
	result, err := pipeline.Run(ctx, params)
	if err != nil {
		return fmt.Errorf("selection pass: %w", err)
	}
	c.logger.Infof("Selection complete: %d cycles found, %d skipped, %d manifest entries",
		result.Found(), result.Skipped(), len(result.Entries))

	if err := c.store.Save(result.Entries); err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	c.logger.Infof("Manifest saved to %s", cfg.Storage.ManifestPath)

	trk := tracker.New(c.gateway, cfg.Strategy.Multipliers, cfg.Strategy.Concurrency, c.logger)
	records, err := trk.Track(ctx, result.Entries)
	if err != nil {
		return fmt.Errorf("tracking positions: %w", err)
	}
	daily := tracker.AggregateDaily(records)

	summary, err := report.Build(result, daily)
	if err != nil {
		return fmt.Errorf("building run summary: %w", err)
	}
	if err := summary.Save(cfg.Storage.SummaryPath); err != nil {
		return fmt.Errorf("saving run summary: %w", err)
	}
	c.logger.Infof("Run summary saved to %s", cfg.Storage.SummaryPath)

	printOutcomes(result)
	printStats(summary.Stats)
	return nil
}

func printOutcomes(result *strategy.Result) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Expiry", "Code", "Status", "Reason"})
	for _, o := range result.Outcomes {
		status := "found"
		if !o.Found {
			status = "skipped"
		}
		table.Append([]string{
			o.Expiry.String(),
			o.Expiry.CalendarCode(),
			status,
			o.Reason,
		})
	}
	table.Render()
}

func printStats(stats report.PnLStats) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Days", "Total P&L", "Mean Daily", "Stddev Daily", "Max Drawdown", "Win Ratio"})
	table.Append([]string{
		fmt.Sprintf("%d", stats.Days),
		fmt.Sprintf("%.2f", stats.TotalPnL),
		fmt.Sprintf("%.2f", stats.MeanDaily),
		fmt.Sprintf("%.2f", stats.StdDevDaily),
		fmt.Sprintf("%.2f", stats.MaxDrawdown),
		fmt.Sprintf("%.2f%%", stats.WinDayRatio*100),
	})
	table.Render()
}

// serveDashboard blocks until the signal context is cancelled, then shuts
// the server down gracefully.
func (c *collector) serveDashboard(ctx context.Context) error {
	srv := dashboard.NewServer(dashboard.Config{
		Port:        c.config.Dashboard.Port,
		AuthToken:   c.config.Dashboard.AuthToken,
		SummaryPath: c.config.Storage.SummaryPath,
	}, c.store, c.logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
