package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"bondflow/internal/adapters/cache/redis"
	"bondflow/internal/adapters/marketdata/live"
	mdtest "bondflow/internal/adapters/marketdata/test"
	"bondflow/internal/adapters/ratesource"
	"bondflow/internal/adapters/storage/postgresql"
	"bondflow/internal/adapters/web"
	"bondflow/internal/application/ports"
	"bondflow/internal/application/usecases"
	"bondflow/internal/config"
	"bondflow/internal/curve"
	"bondflow/internal/logger"
)

func main() {
	var (
		port = flag.Int("port", 0, "Port number (overrides config)")
		help = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		printUsage()
		return
	}

	// Initialize logger
	log := logger.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	listenPort := cfg.Server.Port
	if *port != 0 {
		listenPort = *port
	}
	if listenPort == 0 {
		listenPort = 8080
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	storage, err := postgresql.New(cfg.Database)
	if err != nil {
		log.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	// Initialize cache
	cache, err := redis.New(cfg.Cache)
	if err != nil {
		log.Error("Failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	// Initialize market data gateway
	var gateway ports.MarketDataPort
	if cfg.Gateway.Mode == "test" {
		gateway = mdtest.New()
	} else {
		gateway = live.New(cfg.Gateway)
	}
	log.Info("Market data gateway ready", "gateway", gateway.Name())

	// Initialize curve store and pricing engine
	rates := ratesource.New(cfg.RateSource)
	curves := curve.NewStore(rates, storage, log,
		time.Duration(cfg.Engine.CurveTTLMinutes)*time.Minute)

	retryBase := time.Duration(cfg.Gateway.RetryBaseMillis) * time.Millisecond
	resolver := usecases.NewResolver(storage, cache, gateway, curves, log,
		cfg.Gateway.MaxRetries, retryBase)
	snapshotter := usecases.NewSnapshotter(storage, log)
	backfiller := usecases.NewBackfiller(storage, gateway, curves, log,
		cfg.Gateway.MaxRetries, retryBase)
	runner := usecases.NewCycleRunner(storage, resolver, log,
		time.Duration(cfg.Engine.CycleIntervalSeconds)*time.Second,
		cfg.Engine.BatchSize, cfg.Engine.Workers)

	// Initialize web server
	webServer := web.NewServer(listenPort, storage, storage, cache, resolver, snapshotter, backfiller, curves, runner, log)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runner.Run(ctx)
	})

	g.Go(func() error {
		if err := webServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigChan:
			log.Info("Received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		return webServer.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("Shutdown complete")
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  bondflow [--port <N>]")
	fmt.Println("  bondflow --help")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --port N     Port number")
}
