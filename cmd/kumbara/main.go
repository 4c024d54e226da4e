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

	"kumbara/internal/amqp"
	"kumbara/internal/backend"
	"kumbara/internal/cache"
	"kumbara/internal/catalog"
	"kumbara/internal/config"
	"kumbara/internal/engine"
	"kumbara/internal/httpapi"
	applog "kumbara/internal/log"
	"kumbara/internal/worker"
)

func main() {
	// Load .env for local development; absent in production is fine.
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentApp})
	applog.SetDefault(logger)

	logger.Info("starting kumbara")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.Open(cfg, logger)
	if err != nil {
		logger.Error("failed to open durable store", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cats := catalog.NewFromFile(cfg.DataDir)

	eng, err := engine.New(ctx, engine.Config{
		Store:            result.Store,
		Catalog:          cats,
		Logger:           logger,
		BackfillOnCreate: cfg.BackfillOnCreate,
	})
	if err != nil {
		logger.Error("failed to build engine", applog.FieldError, err)
		os.Exit(1)
	}

	api := httpapi.New(httpapi.Options{
		Engine:   eng,
		Catalog:  cats,
		Logger:   logger,
		CacheLen: cfg.SummaryCacheSize,
		CacheTTL: cfg.SummaryCacheTTL,
	})

	caches := cache.NewManager()
	caches.Register(api.SummaryCache())
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	// Optional mutation replay from remote collaborators.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("failed to initialize AMQP client, continuing without replay", applog.FieldError, err)
		} else {
			logger.Info("initialized AMQP client",
				applog.FieldExchange, cfg.AMQPExchange,
				applog.FieldQueue, cfg.AMQPQueue)
			defer amqpClient.Close()
		}
	}

	srv := api.HTTPServer(":" + cfg.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if amqpClient != nil {
		replay := worker.NewReplayWorker(eng, logger)
		g.Go(func() error {
			if err := replay.Run(gctx, amqpClient); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", applog.FieldError, err)
	}

	// Final flush so the durable store matches the in-memory state exactly.
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := eng.Flush(flushCtx); err != nil {
		logger.Error("final flush failed", applog.FieldError, err)
	}

	if result.Cleanup != nil {
		if err := result.Cleanup(); err != nil {
			logger.Error("store cleanup failed", applog.FieldError, err)
		}
	}

	logger.Info("kumbara stopped")
}
