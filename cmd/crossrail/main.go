package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fintaar/crossrail/internal/config"
	"github.com/fintaar/crossrail/internal/deals"
	httpiface "github.com/fintaar/crossrail/internal/interfaces/http"
	"github.com/fintaar/crossrail/internal/interfaces/http/handlers"
	"github.com/fintaar/crossrail/internal/multirail"
	"github.com/fintaar/crossrail/internal/pricing"
	"github.com/fintaar/crossrail/internal/rates"
	"github.com/fintaar/crossrail/internal/refdata"
	"github.com/fintaar/crossrail/internal/routing"
	"github.com/fintaar/crossrail/internal/rules"
)

const (
	appName = "crossrail"
	version = "v1.4.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Cross-rail FX routing and pricing engine",
		Version: version,
		Long: `crossrail routes and prices currency conversions across fiat
correspondent banking, CBDC corridors (mBridge, Project Nexus) and
stablecoin rails, with tiered pricing, negotiated deals and a
JSON rules engine.`,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	serveCmd.Flags().String("config", "", "Path to YAML configuration file")
	serveCmd.Flags().String("log-level", "info", "Log level (trace|debug|info|warn|error)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Printf("%s %s\n", appName, version)
		},
	}

	rootCmd.AddCommand(serveCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	levelStr, _ := cmd.Flags().GetString("log-level")
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	registry, err := refdata.New(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}

	source := buildRateSource(cfg)

	ruleEngine, err := rules.NewEngine(cfg.Rules.ProviderRulesFile, cfg.Rules.MarginRulesFile)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	store, err := buildDealStore(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	dealService, err := deals.NewService(ctx, store, cfg.Deals.MaxValidity)
	if err != nil {
		return err
	}

	loc := cfg.Location()
	router := routing.NewEngine(registry, source, ruleEngine, routing.Options{
		TriangulationMinSavingsBps: cfg.Routing.TriangulationMinSavingsBps,
		ExposureWarnRatio:          cfg.Routing.ExposureWarnRatio,
		Location:                   loc,
	})
	pricer := pricing.NewEngine(registry, source, ruleEngine, cfg.Pricing.QuoteValidity, loc)

	metrics := handlers.NewMetrics()
	h := handlers.NewHandlers(
		registry,
		source,
		router,
		multirail.NewRouter(registry, source),
		pricer,
		dealService,
		ruleEngine,
		metrics,
	)
	server := httpiface.NewServer(cfg.Server, h, metrics)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildRateSource wires the treasury rate cache, optionally backed by
// Redis so multiple instances share one cache.
func buildRateSource(cfg *config.Config) *rates.CachedSource {
	opts := rates.Options{
		TTL:          cfg.Rates.CacheTTL,
		StaleFor:     cfg.Rates.StaleFor,
		FetchTimeout: cfg.Rates.FetchTimeout,
		RefreshRPS:   cfg.Rates.RefreshRPS,
	}
	upstream := rates.NewStaticSource(nil)
	if cfg.Rates.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Rates.RedisAddr})
		log.Info().Str("addr", cfg.Rates.RedisAddr).Msg("rate cache backed by redis")
		return rates.NewCachedSourceWithStore(upstream, rates.NewRedisStore(client, cfg.Rates.StaleFor), opts)
	}
	return rates.NewCachedSource(upstream, opts)
}

// buildDealStore prefers Postgres when a DSN is configured and falls
// back to the append-oriented JSON file.
func buildDealStore(cfg *config.Config) (deals.DurableStore, error) {
	if cfg.Deals.PostgresDSN != "" {
		store, err := deals.NewPostgresStore(cfg.Deals.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect deal store: %w", err)
		}
		return store, nil
	}
	return deals.NewFileStore(cfg.Deals.File)
}
