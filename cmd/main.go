package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trimedia/tri-zvuk/internal/adapters/httpserver"
	lambdaadapter "github.com/trimedia/tri-zvuk/internal/adapters/lambda"
	"github.com/trimedia/tri-zvuk/internal/cache"
	"github.com/trimedia/tri-zvuk/internal/config"
	"github.com/trimedia/tri-zvuk/internal/fetch"
	"github.com/trimedia/tri-zvuk/internal/handler"
	"github.com/trimedia/tri-zvuk/internal/observability"
	"github.com/trimedia/tri-zvuk/internal/worker"
	"github.com/trimedia/tri-zvuk/internal/zvuk"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	provider := observability.NewProvider(observability.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
	})

	logger := provider.Logger("main")
	logger.Info(context.Background(), "Starting worker", observability.Fields{
		"environment":   cfg.Environment,
		"cache_backend": cfg.Cache.Backend,
		"platform":      cfg.DetectPlatform(),
	})

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}

	store, err := cache.NewStore(cfg.Cache, provider.Logger("cache"), provider.Metrics("cache"))
	if err != nil {
		log.Fatalf("failed to initialize cache store: %v", err)
	}

	resolver := zvuk.NewResolver(cfg.Upstream, httpClient, provider.Logger("zvuk"), provider.Metrics("zvuk"))
	fetcher := fetch.NewFetcher(httpClient, cfg.HTTP.UserAgent, provider.Logger("fetch"), provider.Metrics("fetch"))

	dlWorker := worker.NewDownloadWorker(resolver, fetcher, store,
		provider.Logger("worker"), provider.Metrics("worker"))

	h := handler.NewFactory(dlWorker, provider, cfg.Handler).Create()

	switch cfg.DetectPlatform() {
	case "lambda":
		adapter := lambdaadapter.NewAdapter(h, cfg.Lambda)
		if err := adapter.Start(); err != nil {
			log.Fatalf("lambda adapter failed: %v", err)
		}
	default:
		runHTTP(h, cfg, provider, logger)
	}
}

// runHTTP serves until SIGINT/SIGTERM, then drains in-flight requests.
func runHTTP(h *handler.Handler, cfg *config.Config, provider observability.Provider, logger observability.Logger) {
	server := httpserver.NewServer(h, cfg, provider.Logger("http"), provider.Metrics("http"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("http server failed: %v", err)
		}
	case sig := <-sigCh:
		logger.Info(context.Background(), "Shutting down", observability.Fields{
			"signal": sig.String(),
		})
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			logger.Error(ctx, "Graceful shutdown failed", err, nil)
		}
	}
}
