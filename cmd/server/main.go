package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/barsea/schedpoint/internal/api"
	"github.com/barsea/schedpoint/internal/auth"
	"github.com/barsea/schedpoint/internal/config"
	"github.com/barsea/schedpoint/internal/metrics"
	"github.com/barsea/schedpoint/internal/service"
	"github.com/barsea/schedpoint/internal/storage/sqlite"
	"github.com/barsea/schedpoint/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "schedpoint",
		Short:         "Daily plan and actual time tracking API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newServeCommand(), newMigrateCommand(), newSeedCommand())
	return cmd
}

// env is what every subcommand needs: configuration, a logger and the store.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *sqlite.SQLiteStore
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.Setup(cfg.LogLevel)
	logger.Info("Configuration loaded", "config", cfg.String())

	store, err := sqlite.New(cfg.Database.Path, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "database", cfg.Database.Path)

	return &env{cfg: cfg, logger: logger, store: store}, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.store.Close()
			return serve(cmd.Context(), e)
		},
	}
}

func serve(ctx context.Context, e *env) error {
	cfg := e.cfg

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	authService := service.NewAuthService(
		auth.NewPasswordAuthenticator(e.store),
		auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		e.store, m, e.logger,
	)

	server := api.New(api.Deps{
		Auth:       authService,
		Blocks:     service.NewTimeBlockService(e.store, cfg.Location, m, e.logger),
		Categories: service.NewCategoryService(e.store, e.logger),
		Health:     e.store,
		Metrics:    m,
		Gatherer:   reg,
		Logger:     e.logger,
	}, api.Options{
		AllowOrigin: cfg.HTTP.FrontendURL,
		Location:    cfg.Location,
		LoginRate:   rate.Limit(cfg.HTTP.LoginRate),
		LoginBurst:  cfg.HTTP.LoginBurst,

		TrustedProxies: cfg.HTTP.TrustedProxies,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.HTTP.Address)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	e.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.store.Close()

			if err := e.store.Migrate(cmd.Context()); err != nil {
				return err
			}
			e.logger.Info("Schema applied", "database", e.cfg.Database.Path)
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace all categories with the built-in set",
		Long:  "Replace all categories with the built-in set. Existing plans and actuals are removed with them.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.store.Close()

			if _, err := service.NewCategoryService(e.store, e.logger).Seed(cmd.Context()); err != nil {
				return err
			}
			return nil
		},
	}
}
