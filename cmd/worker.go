package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/filehub/internal/collector"
	"github.com/frahmantamala/filehub/internal/ingest"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that run without the web server.`,
}

var collectorWorkerCmd = &cobra.Command{
	Use:   "collector",
	Short: "Start the chat collector",
	Long: `Start the chat collector on its own. With an API base URL configured it forwards
collected messages to a FileHub server, otherwise it ingests them locally.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startCollectorWorker(); err != nil {
			fmt.Fprintf(os.Stderr, "collector: %v\n", err)
			os.Exit(1)
		}
	},
}

var (
	apiURL     string
	maxWorkers int
	queueSize  int
)

func startCollectorWorker() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Discord.Enabled = true
	cfg.Discord.APIBaseURL = getStringFlag(apiURL, cfg.Discord.APIBaseURL)
	cfg.Ingest.Workers = getIntFlag(maxWorkers, cfg.Ingest.Workers)
	cfg.Ingest.QueueSize = getIntFlag(queueSize, cfg.Ingest.QueueSize)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()
	lg := a.logger

	var (
		sink     collector.Sink
		endpoint string
		drain    func(context.Context) error
	)
	if cfg.Discord.APIBaseURL != "" {
		sink = ingest.NewHTTPForwarder(cfg.Discord.APIBaseURL, cfg.Security.APIKey, cfg.Ingest.DownloadTimeout, lg)
		endpoint = cfg.Discord.APIBaseURL
		lg.Info("forwarding collected messages", "endpoint", endpoint)
	} else {
		pool := a.newPool()
		sink, endpoint, drain = pool, localEndpoint(a.store), pool.Shutdown
		lg.Info("ingesting collected messages locally",
			"workers", cfg.Ingest.Workers,
			"queue_size", cfg.Ingest.QueueSize)
	}

	listener, gw, err := a.newCollector(sink, endpoint)
	if err != nil {
		return fmt.Errorf("init collector: %w", err)
	}

	lg.Info("collector is running. Press Ctrl+C to stop.")
	runErr := runCollector(ctx, listener, gw, lg)

	if drain != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := drain(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			lg.Error("ingest pool shutdown failed", "error", err)
		} else if err != nil {
			lg.Warn("shutdown timeout reached, in-flight downloads cancelled")
		}
	}

	if runErr != nil {
		return runErr
	}
	lg.Info("collector shutdown complete")
	return nil
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	collectorWorkerCmd.Flags().StringVar(&apiURL, "api-url", "", "FileHub endpoint to forward messages to (overrides config)")
	collectorWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Number of ingestion workers (overrides config)")
	collectorWorkerCmd.Flags().IntVar(&queueSize, "queue-size", 0, "Ingestion queue size (overrides config)")

	workerCmd.AddCommand(collectorWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}
