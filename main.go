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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/homefleet/supervisor/allocator"
	"github.com/homefleet/supervisor/api"
	"github.com/homefleet/supervisor/config"
	"github.com/homefleet/supervisor/dispatch"
	"github.com/homefleet/supervisor/metrics"
	"github.com/homefleet/supervisor/offload"
	"github.com/homefleet/supervisor/queue"
	"github.com/homefleet/supervisor/registry"
	"github.com/homefleet/supervisor/store"
	"github.com/homefleet/supervisor/supervisor"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting supervisor...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Resource threshold: %.2f", cfg.ResourceThreshold)

	// Initialize history store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize offload policy engine
	ctx := context.Background()
	policyContent := offload.DefaultPolicy
	if cfg.OffloadPolicyPath != "" {
		data, err := os.ReadFile(cfg.OffloadPolicyPath)
		if err != nil {
			log.Fatalf("Failed to read offload policy: %v", err)
		}
		policyContent = string(data)
	}
	offloadEngine, err := offload.NewEngine(ctx, policyContent)
	if err != nil {
		log.Fatalf("Failed to initialize offload policy engine: %v", err)
	}

	// Assemble the supervisor
	sup := supervisor.New(supervisor.Options{
		Registry:      registry.New(),
		Allocator:     allocator.New(cfg.ResourceThreshold),
		Offload:       offloadEngine,
		Sampler:       offload.NewSystemSampler(),
		Queue:         queue.New(),
		Dispatcher:    dispatch.NewClient(),
		Cloud:         dispatch.NewSimulatedCloud(),
		Store:         db,
		Metrics:       metrics.Default(),
		MonitorEvery:  cfg.MonitorInterval,
		HeartbeatTTL:  cfg.HeartbeatTimeout,
		LoadDecayStep: cfg.LoadDecayStep,
		LivenessWin:   cfg.LivenessWindow,
		ElectEvery:    cfg.ElectionInterval,
		ReconcileEvry: cfg.ReconcileInterval,
		ExpiryHorizon: cfg.ExpiryHorizon,
		SampleEvery:   cfg.MetricsSampleInterval,
	})

	// Start background loops
	runCtx, cancelRun := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- sup.Run(runCtx) }()

	// Initialize handlers
	h := api.NewHandler(sup)

	// Create Echo server
	server := echo.New()
	server.HideBanner = true

	// Middleware
	server.Use(middleware.Logger())
	server.Use(middleware.Recover())
	server.Use(middleware.CORS())

	h.RegisterRoutes(server)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Supervisor API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down supervisor...")

	// Stop background loops, then drain the server
	cancelRun()
	if err := <-done; err != nil {
		log.Printf("Background loops stopped with error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Supervisor stopped")
}
