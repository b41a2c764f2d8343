package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiaot623/gogo/datachat/internal/adapter/llm"
	"github.com/xiaot623/gogo/datachat/internal/config"
	"github.com/xiaot623/gogo/datachat/internal/dataset"
	"github.com/xiaot623/gogo/datachat/internal/metrics"
	"github.com/xiaot623/gogo/datachat/internal/pipeline"
	"github.com/xiaot623/gogo/datachat/internal/policy"
	"github.com/xiaot623/gogo/datachat/internal/registry"
	"github.com/xiaot623/gogo/datachat/internal/repository"
	"github.com/xiaot623/gogo/datachat/internal/service"
	handler "github.com/xiaot623/gogo/datachat/internal/transport/http"
	"github.com/xiaot623/gogo/datachat/internal/transport/ws"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting datachat...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("LLM provider: %s (model %s, mock=%v)", cfg.LLMProvider, cfg.LLMModel, cfg.MockMode())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize trace store
	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize LLM client
	llmClient, err := llm.NewLLMClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	// Initialize policy engine
	policyContent, err := policy.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		log.Fatalf("Failed to load policy: %v", err)
	}
	policyEngine, err := policy.NewEngine(ctx, policyContent)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Dataset loading, optionally cached
	loader := dataset.NewCachedLoader(dataset.NewBuilder(cfg.FetchTimeout), cfg.ProfileCacheTTL)

	// Pipeline
	m := metrics.New()
	opts := pipeline.ModelOptions{Model: cfg.LLMModel, Temperature: cfg.LLMTemperature}
	executor, err := pipeline.NewExecutor(ctx,
		pipeline.NewLLMClassifier(llmClient, opts),
		pipeline.NewLLMGenerators(llmClient, opts),
		service.NewTraceObserver(db, m))
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}
	executor.SetDebug(cfg.Debug())

	// Initialize service
	sessions := registry.New()
	svc := service.New(sessions, loader, executor, db, policyEngine, m, cfg)
	go svc.RunStaleRunMonitor(ctx, time.Minute)

	// Websocket hub
	connectionHub := ws.NewHub()
	go connectionHub.Run(ctx)

	// HTTP server
	e := handler.NewServer(svc, m)
	ws.NewServer(cfg, connectionHub, svc).RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down datachat...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}
	stop()
	svc.Shutdown()

	log.Println("Datachat stopped")
}
