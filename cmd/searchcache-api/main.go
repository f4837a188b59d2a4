package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/searchcache/api"
	"github.com/dshills/searchcache/backend/qdrant"
	"github.com/dshills/searchcache/config"
	"github.com/dshills/searchcache/core/search"
)

func main() {
	// Parse command line flags
	var (
		configPath  = flag.String("config", "", "Path to configuration file (default: ~/.searchcache.yml)")
		host        = flag.String("host", "", "Host to listen on (overrides config)")
		port        = flag.Int("port", 0, "Port to listen on (overrides config)")
		backendAddr = flag.String("backend", "", "Qdrant gRPC address (overrides config)")
		collection  = flag.String("collection", "", "Collection to search (overrides config)")
		noCache     = flag.Bool("no-cache", false, "Disable result caching")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override with command-line flags
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *backendAddr != "" {
		cfg.Backend.Address = *backendAddr
	}
	if *collection != "" {
		cfg.Backend.Collection = *collection
	}
	if *noCache {
		cfg.Search.CacheResults = false
	}

	fmt.Println("=== searchcache Server ===")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Host: %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  Backend: %s (collection %q)\n", cfg.Backend.Address, cfg.Backend.Collection)
	fmt.Printf("  Metric: %s\n", cfg.Search.DistanceMetric)
	fmt.Printf("  Caching: %t (capacity %d)\n", cfg.Search.CacheResults, cfg.Search.CacheCapacity)
	fmt.Println()

	// Connect to the external vector search backend. Its lifecycle is
	// owned here, not by the searcher.
	backend, err := qdrant.New(cfg.Backend.Address, cfg.Backend.Collection)
	if err != nil {
		log.Fatalf("Failed to connect to backend: %v", err)
	}
	defer backend.Close()

	// Create the caching facade
	searcherOpts, err := cfg.Search.ToSearcherOptions()
	if err != nil {
		log.Fatalf("Invalid search configuration: %v", err)
	}
	searcher := search.NewCachedSearcher(backend, searcherOpts)
	defer searcher.Close()

	// Create API server
	serverConfig := api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     api.DefaultServerConfig().IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	server := api.NewServer(searcher, serverConfig)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	fmt.Println("Server stopped gracefully")
}
