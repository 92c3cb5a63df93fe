package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tally/internal/bus"
	"tally/internal/cache"
	"tally/internal/config"
	apphttp "tally/internal/http"
	applog "tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	logger.Info("Starting tally")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	// Optional event bus: without a broker the process still runs, it just
	// cannot see writes from other processes.
	var busClient *bus.Client
	if cfg.AMQPURL != "" {
		busClient, err = bus.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		defer busClient.Close()
		store.SetNotifier(busClient)
		logger.Info("Event bus connected", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Event bus disabled - no AMQP_URL provided")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	transactions := storage.NewTransactionRepository(ctx, store)
	planned := storage.NewPlannedExpenseRepository(ctx, store)

	summaries := cache.NewSummaryCache(64, 5*time.Minute)
	cacheManager := cache.NewManager()
	cacheManager.Register(summaries)
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	tracker := services.NewTracker(store, transactions, planned, summaries, cfg.ExportDir)

	var notifier services.Notifier = services.LogNotifier{}
	if busClient != nil {
		notifier = services.BusNotifier{Client: busClient}
	}
	reminders := services.NewReminderService(planned, notifier)

	var checker services.ConnectivityChecker = services.AlwaysOnline{}
	if cfg.ConnectivityProbe != "" {
		checker = services.ProbeChecker{Addr: cfg.ConnectivityProbe}
	}
	autoExport := services.NewAutoExport(tracker, store, checker, cfg.AutoExportGrace)

	srv := apphttp.NewServer(":"+cfg.Port, tracker)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting tally server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if err := reminders.Run(ctx, cfg.ReminderInterval); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return autoExport.Run(ctx)
	})

	if busClient != nil {
		g.Go(func() error {
			err := busClient.ConsumeStoreChanges(ctx, func(ev *bus.StoreChangeEvent) error {
				tracker.Resync(ctx, ev.Key)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Shutdown with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
