package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"olympics/internal/api"
	"olympics/internal/config"
	"olympics/internal/engine"
	"olympics/internal/platform/otel"
	"olympics/internal/web"
)

const serviceName = "olympics-dashboard"

func main() {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	shutdownTracing, err := otel.Setup(ctx, serviceName)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}()

	var source engine.Source = engine.FileSource{Path: cfg.DataFile}
	if cfg.DataURL != "" {
		source = engine.HTTPSource{URL: cfg.DataURL, Client: &http.Client{Timeout: cfg.LoadTimeout}}
	}
	store := engine.NewStore(source, engine.WithLogger(logger))
	defer store.Close()

	// 1. Initialize Echo (starts before any data is loaded)
	e := api.NewEcho(logger)
	e.Static("/assets", cfg.AssetsDir)

	// 2. Handlers begin empty; data endpoints answer 503 until the first load
	h := api.NewHandler(store,
		api.WithLogger(logger),
		api.WithLoadTimeout(cfg.LoadTimeout),
		api.WithReloadLimit(cfg.ReloadEvery, cfg.ReloadBurst))
	h.RegisterRoutes(e)

	pages := web.NewPages(store, logger)
	if err := pages.RegisterRoutes(e); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	// 3. Consumers follow the store until shutdown
	g.Go(func() error { h.Watch(gctx); return nil })
	g.Go(func() error { pages.Watch(gctx); return nil })

	// 4. Load in the background; a failure leaves the store absent
	g.Go(func() error {
		logger.Info("loading dataset", "source", describe(cfg))
		t0 := time.Now()
		lctx, cancel := context.WithTimeout(gctx, cfg.LoadTimeout)
		defer cancel()
		// the store logs failures itself
		if err := store.Load(lctx); err == nil {
			logger.Info("dataset ready", "elapsed", time.Since(t0))
		}
		return nil
	})

	// 5. Serve until the context ends
	g.Go(func() error {
		logger.Info("server ready", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})

	return g.Wait()
}

func describe(cfg config.Config) string {
	if cfg.DataURL != "" {
		return cfg.DataURL
	}
	return cfg.DataFile
}
