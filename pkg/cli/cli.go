// Package cli defines the users-api command tree: serve and version.
package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/messagebroker/users-api/pkg/api"
	"github.com/messagebroker/users-api/pkg/config"
	"github.com/messagebroker/users-api/pkg/health"
	"github.com/messagebroker/users-api/pkg/observability/logger"
	"github.com/messagebroker/users-api/pkg/observability/metrics"
	"github.com/messagebroker/users-api/pkg/server"
	"github.com/messagebroker/users-api/pkg/store/mongodb"
	"github.com/messagebroker/users-api/pkg/users"
	"github.com/messagebroker/users-api/pkg/version"
)

const serviceName = "users-api"

// NewRootCommand builds the root command with its subcommands.
func NewRootCommand() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   serviceName,
		Short: "HTTP API over the subscriber user collection",
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config-file", "c", "", "config file path")

	var portOverride int
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API and management servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewViperLoader(configFile, "").Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.HTTP.Port = portOverride
			}
			return RunServe(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().IntVarP(&portOverride, "port", "p", 0, "override the public listen port")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Current(serviceName)
			fmt.Printf("Service:    %s\n", info.Service)
			fmt.Printf("Version:    %s\n", info.Version)
			fmt.Printf("Commit:     %s\n", info.Commit)
			fmt.Printf("Build Time: %s\n", info.BuildTime)
		},
	}

	rootCmd.AddCommand(serveCmd, versionCmd)
	return rootCmd
}

// RunServe wires the service together and blocks until shutdown: config,
// logger, store, repository, HTTP handlers, both servers, and signal-driven
// graceful stop.
func RunServe(ctx context.Context, cfg *config.Config) error {
	level, err := logger.ParseLevel(cfg.Observability.LogLevel)
	if err != nil {
		return err
	}
	format, err := logger.ParseFormat(cfg.Observability.LogFormat)
	if err != nil {
		return err
	}
	log, err := logger.NewZapLogger(logger.Config{Level: level, Format: format})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting service", "version", version.Current(serviceName).String(), "environment", cfg.Service.Environment)

	adapter, err := mongodb.NewAdapter(mongodb.Config{
		URL:              cfg.Database.URL,
		Database:         cfg.Database.DatabaseName,
		ConnectTimeout:   cfg.Database.ConnectTimeout,
		OperationTimeout: cfg.Database.OperationTimeout,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := adapter.Close(); err != nil {
			log.Error("failed to close mongodb connection", "error", err)
		}
	}()

	repository := users.NewRepository(adapter, cfg.Database.Collection, log)
	handler := api.NewHandler(repository, log, cfg.Pagination)

	metricsRegistry := metrics.NewRegistry()
	healthRegistry := health.NewRegistry()
	healthRegistry.Register(health.NewAdapterChecker("mongodb", adapter, cfg.Database.OperationTimeout))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)

	publicServer := server.NewPublicServer(cfg.HTTP, handler, log)
	go func() {
		errChan <- publicServer.Start(ctx)
	}()

	if cfg.Management.Enabled {
		mgmtServer := server.NewManagementServer(cfg.Management, log, healthRegistry, metricsRegistry)
		go func() {
			errChan <- mgmtServer.Start(ctx)
		}()
	}

	if err := <-errChan; err != nil {
		return err
	}
	log.Info("service stopped")
	return nil
}
