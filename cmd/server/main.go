package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/flowforge/orchestrator/internal/api"
	"github.com/flowforge/orchestrator/internal/config"
	"github.com/flowforge/orchestrator/internal/coordinator"
	"github.com/flowforge/orchestrator/internal/jobmanager"
	"github.com/flowforge/orchestrator/internal/logger"
	"github.com/flowforge/orchestrator/internal/node"
	"github.com/flowforge/orchestrator/internal/node/builtin"
	"github.com/flowforge/orchestrator/internal/ratelimit"
)

func main() {
	v := config.NewViperInstance()
	if err := config.BindEnvironmentVariables(v); err != nil {
		fmt.Fprintf(os.Stderr, "failed to bind environment variables: %v\n", err)
		os.Exit(1)
	}

	configFile, err := config.FindConfigFile("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to find config file: %v\n", err)
		os.Exit(1)
	}
	if configFile != "" {
		if err := config.LoadConfigFile(v, configFile); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config file: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.LoadFromViper(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting orchestrator server")

	registry := node.NewRegistry(logger.WithComponent(log, "registry"))
	coord := coordinator.New(log)

	limiter := ratelimit.New()
	for name, policy := range cfg.Concurrency.Services {
		limiter.Configure(name, ratelimit.Policy{
			CallsPerPeriod: policy.CallsPerPeriod,
			Period:         policy.PeriodSeconds,
			MaxConcurrent:  policy.MaxConcurrent,
		})
	}

	httpClient := &http.Client{Timeout: cfg.Webhook.Timeout}
	if err := builtin.RegisterAll(registry, coord, httpClient, cfg.Webhook.BaseURL, limiter, cfg.Concurrency.DefaultForEachMaxWorkers, log); err != nil {
		log.Fatal("failed to register node types", zap.Error(err))
	}

	models, err := jobmanager.LoadModelStore(cfg.Models.ConfigPath, log)
	if err != nil {
		log.Fatal("failed to load model config", zap.Error(err))
	}

	manager := jobmanager.New(registry, models, httpClient, cfg.Webhook.BaseURL, log)

	server := api.New(cfg, manager, coord, registry, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	log.Info("orchestrator server stopped")
}
