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

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/adapter/agent"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/config"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/registry"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/repository"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/service"
	transport "github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/transport/http"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting Bedrock Agent Proxy...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("AWS Region: %s", cfg.AWSRegion)
	log.Printf("Default agent: %s", cfg.DefaultAgent)
	log.Printf("API key required: %t", !cfg.AuthDisabled())

	// Initialize registry
	reg := registry.New(cfg.Agents, cfg.DefaultAgent)
	for _, entry := range reg.List() {
		log.Printf("Registered agent: %s", entry.ModelID)
	}

	// Initialize store
	store, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	// Initialize backend agent client
	invoker, err := agent.NewInvoker(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize agent client: %v", err)
	}

	// Initialize policy engine
	policyEngine, err := policy.NewEngineFromFile(ctx, cfg.PolicyFile)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize service
	svc := service.New(store, invoker, reg, policyEngine, cfg)

	// Create HTTP server
	server := transport.NewServer(svc, cfg)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Bedrock Agent Proxy started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down proxy...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Proxy stopped")
}
