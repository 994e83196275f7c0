package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/lending-workflow-go/lending/api"
	"github.com/AntonStoeckl/lending-workflow-go/lending/config"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/listitem"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/itemdetails"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/itemsofowner"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/ownerinbox"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/requestdetails"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/requestsforitem"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/transition"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell"
)

const (
	logMsgStarting     = "lendingd starting"
	logMsgListening    = "http server listening"
	logMsgShuttingDown = "lendingd shutting down"
	logMsgStopped      = "lendingd stopped"
	logMsgShutdownFail = "graceful shutdown failed"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := newLogger(cfg.Log, os.Stderr)
	logger.InfoContext(ctx, logMsgStarting, "version", version, "storage", cfg.Storage.Driver)

	obs, err := newObservability(ctx, cfg.Observability, logger)
	if err != nil {
		return err
	}

	es, closeStore, err := openEventStore(ctx, cfg.Storage, obs.Observability)
	if err != nil {
		return errors.Join(err, obs.telemetry.Shutdown(context.Background()))
	}
	defer closeStore()

	server := api.NewServer(
		newDependencies(es, cfg.Retry, obs),
		api.Settings{
			JWTSecret:         cfg.Auth.JWTSecret,
			CookieName:        cfg.Auth.CookieName,
			BodyLimit:         cfg.HTTP.BodyLimit,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			ReadTimeout:       cfg.HTTP.ReadTimeout,
			WriteTimeout:      cfg.HTTP.WriteTimeout,
		},
		api.WithLogger(logger),
		api.WithMetrics(obs.Metrics),
	)

	serveErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, logMsgListening, "address", cfg.HTTP.Address)
		serveErr <- server.Start(cfg.HTTP.Address)
	}()

	select {
	case err = <-serveErr:
	case <-ctx.Done():
		logger.InfoContext(ctx, logMsgShuttingDown)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error(logMsgShutdownFail, "error", shutdownErr.Error())
		err = errors.Join(err, shutdownErr)
	}

	err = errors.Join(err, obs.telemetry.Shutdown(shutdownCtx))
	logger.Info(logMsgStopped)

	return err
}

func newDependencies(es eventStore, retry config.RetryConfig, obs observability) api.Dependencies {
	retryOptions := []shell.RetryOption{
		shell.WithMaxAttempts(retry.MaxAttempts),
		shell.WithBaseDelay(retry.BaseDelay),
	}

	return api.Dependencies{
		Engine: transition.NewEngine(es,
			transition.WithRetryOptions(retryOptions...),
			transition.WithObservability(obs.Observability),
		),
		ListItem: listitem.NewCommandHandler(es,
			listitem.WithRetryOptions(retryOptions...),
			listitem.WithObservability(obs.Observability),
		),
		ItemDetails:     itemdetails.NewQueryHandler(es, obs.Observability),
		ItemsOfOwner:    itemsofowner.NewQueryHandler(es, obs.Observability),
		RequestDetails:  requestdetails.NewQueryHandler(es, obs.Observability),
		RequestsForItem: requestsforitem.NewQueryHandler(es, obs.Observability),
		OwnerInbox:      ownerinbox.NewQueryHandler(es, obs.Observability),
		HealthCheck:     es,
		MetricsHandler:  obs.metricsHandler,
	}
}
