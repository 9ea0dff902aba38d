// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/hotel-ops-console/internal/config"
	"github.com/capitalize-ai/hotel-ops-console/internal/events"
	"github.com/capitalize-ai/hotel-ops-console/internal/gateway"
	"github.com/capitalize-ai/hotel-ops-console/internal/handler"
	"github.com/capitalize-ai/hotel-ops-console/internal/ingest"
	"github.com/capitalize-ai/hotel-ops-console/internal/llm"
	natsclient "github.com/capitalize-ai/hotel-ops-console/internal/nats"
	"github.com/capitalize-ai/hotel-ops-console/internal/workspace"
	"github.com/capitalize-ai/hotel-ops-console/pkg/logger"
	"github.com/capitalize-ai/hotel-ops-console/pkg/tracing"
)

const serviceName = "hotel-ops-console"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	log.Info("starting API server", zap.String("ai_backend", cfg.AIBackend))

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, serviceName, cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS when configured. Events are best effort.
	var publisher events.Publisher = events.Nop{}
	var bus handler.EventBus
	if cfg.NATSURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		natsClient, err := natsclient.Connect(connectCtx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		cancel()
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		publisher = natsclient.NewPublisher(natsClient.Conn(), cfg.NATSSubject)
		bus = natsClient
	} else {
		log.Info("NATS_URL not set, event publishing disabled")
	}

	backend, err := newBackend(cfg)
	if err != nil {
		log.Fatal("failed to create AI backend", zap.Error(err))
	}
	aiClient := gateway.New(backend, cfg.AIRequestTimeout, log)

	seed, err := loadSeed(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to load seed data", zap.Error(err))
	}
	log.Info("seed data loaded",
		zap.Int("customers", len(seed.Customers)),
		zap.Int("calls", len(seed.Calls)),
	)

	registry, err := workspace.NewRegistry(aiClient, workspace.Config{
		Seed:          seed,
		MaxImageBytes: int(cfg.MaxImageBytes),
		Publisher:     publisher,
		Logger:        log,
	})
	if err != nil {
		log.Fatal("failed to create workspaces", zap.Error(err))
	}

	router := handler.NewRouter(handler.RouterConfig{
		Workspaces:        registry,
		Events:            bus,
		JWTSecret:         cfg.JWTSecret,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		MaxImageBytes:     cfg.MaxImageBytes,
		Logger:            log,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// newBackend selects the AI backend implementation.
func newBackend(cfg *config.Config) (gateway.Backend, error) {
	switch cfg.AIBackend {
	case config.BackendAnthropic:
		client, err := llm.NewClient(llm.ProviderAnthropic, cfg.AnthropicAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		return gateway.NewLLMBackend(client), nil
	case config.BackendOpenAI:
		client, err := llm.NewClient(llm.ProviderOpenAI, cfg.OpenAIAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		return gateway.NewLLMBackend(client), nil
	default:
		return gateway.NewHTTPBackend(cfg.AIBackendURL, &http.Client{}), nil
	}
}

// loadSeed merges the demo data, the seed file and the customer database,
// in that order.
func loadSeed(ctx context.Context, cfg *config.Config, log *logger.Logger) (ingest.Dataset, error) {
	var ds ingest.Dataset
	if cfg.SeedDemoData {
		ds = ingest.Demo()
	}

	if cfg.SeedFile != "" {
		fromFile, err := ingest.LoadFile(cfg.SeedFile)
		if err != nil {
			return ingest.Dataset{}, err
		}
		ds = ds.Merge(fromFile)
		log.Info("loaded seed file", zap.String("path", cfg.SeedFile), zap.Int("customers", len(fromFile.Customers)))
	}

	if cfg.CustomerDatabaseURL != "" {
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		src, err := ingest.OpenPostgres(dbCtx, cfg.CustomerDatabaseURL)
		if err != nil {
			return ingest.Dataset{}, err
		}
		defer src.Close()

		fromDB, err := src.Load(dbCtx)
		if err != nil {
			return ingest.Dataset{}, err
		}
		ds = ds.Merge(fromDB)
		log.Info("loaded customers from database", zap.Int("customers", len(fromDB.Customers)))
	}

	return ds, nil
}
