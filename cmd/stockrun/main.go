package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sawpanic/stockrun/internal/cell"
	"github.com/sawpanic/stockrun/internal/config"
	"github.com/sawpanic/stockrun/internal/provider/finnhub"
	"github.com/sawpanic/stockrun/internal/query"
	"github.com/sawpanic/stockrun/internal/telemetry/metrics"
	"github.com/sawpanic/stockrun/internal/warmup"

	httpserver "github.com/sawpanic/stockrun/internal/interfaces/http"
)

const (
	appName = "StockRun"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     "stockrun",
		Short:   "Rate-limited stock profile cache with a read-only HTTP API",
		Version: version,
		Long: appName + ` ingests the symbol universe from Finnhub, enriches every
symbol with its company profile under a rate limit, and serves the
result from per-symbol in-memory cells.`,
		RunE: runServe,
	}

	rootCmd.Flags().String("config", "", "Path to YAML config file")
	rootCmd.Flags().Int("port", 0, "HTTP listen port (overrides config)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and schedule the warm-up",
		RunE:  runServe,
	}
	serveCmd.Flags().String("config", "", "Path to YAML config file")
	serveCmd.Flags().Int("port", 0, "HTTP listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	portOverride, _ := cmd.Flags().GetInt("port")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if portOverride > 0 {
		cfg.Server.Port = portOverride
	}

	// Constructor wiring, leaves first.
	client := finnhub.NewClient(finnhub.Config{
		APIKey:         cfg.Finnhub.APIKey,
		BaseURL:        cfg.Finnhub.BaseURL,
		Exchange:       cfg.Finnhub.Exchange,
		MIC:            cfg.Finnhub.MIC,
		RequestTimeout: cfg.Finnhub.RequestTimeout(),
	})

	m := metrics.Default()
	registry := cell.NewRegistry()
	progress := warmup.NewProgress()
	pipeline := warmup.NewPipeline(client, registry, progress, warmup.Config{
		RateLimit:          cfg.Warmup.RateLimit,
		Burst:              cfg.Warmup.Burst,
		MaxParallelFetches: cfg.Warmup.MaxParallelFetches,
	}, m)
	bridge := query.NewBridge(registry, cfg.Server.AskTimeout(), m)
	readiness := query.NewReadinessReporter(progress)
	handlers := httpserver.NewHandlers(bridge, readiness, registry)

	serverCfg := httpserver.DefaultServerConfig()
	serverCfg.Host = cfg.Server.Host
	serverCfg.Port = cfg.Server.Port

	server, err := httpserver.NewServer(serverCfg, handlers, m)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// The process is ready as soon as the listener is up; warm-up runs
	// behind it and never gates readiness.
	go pipeline.Run(ctx)

	log.Info().Str("addr", server.Address()).Str("version", version).Msg("stockrun up")

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
