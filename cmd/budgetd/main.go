package main

import (
	"context"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"budgetwatch/internal/backend"
	"budgetwatch/internal/config"
	apphttp "budgetwatch/internal/http"
	"budgetwatch/internal/log"
	"budgetwatch/internal/monitor"
	"budgetwatch/internal/scheduler"
	"budgetwatch/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: log.ParseLevel(cfg.LogLevel),
	})
	logger := log.New(log.Config{Component: log.ComponentApp, Handler: handler})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("budgetd exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting budgetd", log.FieldOperation, log.OpStartup, "port", cfg.Port, "backend", cfg.DataBackend)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	factory := backend.NewFactory(logger)

	store, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	alerts, err := factory.CreateNotifier(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := alerts.Cleanup(); err != nil {
			logger.Error("Failed to close notifiers", "error", err)
		}
	}()
	logger.Info("Alert notifiers ready", "backends", alerts.Backends)

	sched, err := scheduler.New(scheduler.Config{
		CoreWorkers: cfg.CoreWorkers,
		MaxWorkers:  cfg.MaxWorkers,
		QueueSize:   cfg.QueueSize,
		KeepAlive:   cfg.KeepAlive,
	}, scheduler.WithLogger(logger))
	if err != nil {
		return err
	}
	// Runs after the HTTP server has drained so in-flight CheckNow calls land
	// on a live scheduler.
	defer sched.Shutdown(cfg.ShutdownTimeout)

	var thresholds monitor.Thresholds
	thresholds.Warning, thresholds.Critical, thresholds.Exceeded = cfg.Thresholds()
	monCfg := monitor.Config{Interval: cfg.CheckInterval, Thresholds: thresholds}

	mon, err := monitor.New(sched, store.Backend, store.Backend, alerts.Notifier, monCfg, monitor.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := mon.StartMonitoring(); err != nil {
		return err
	}
	defer mon.StopMonitoring()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Categories: services.NewCategoryService(store.Backend, mon, logger),
		Expenses:   services.NewExpenseService(store.Backend, store.Backend, mon, logger),
		Monitor:    mon,
		Scheduler:  sched,
		Store:      store.Backend,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("HTTP server stopped; stopping monitor and scheduler", "timeout", cfg.ShutdownTimeout.String())
	return err
}
