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

	"menulens.app/menu-digitalizer/internal/api"
	"menulens.app/menu-digitalizer/internal/config"
	"menulens.app/menu-digitalizer/internal/core"
	"menulens.app/menu-digitalizer/internal/storage"
	"menulens.app/menu-digitalizer/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Initialize vision service
	visionService := core.NewVisionService()
	defer visionService.Close()

	// Optional object storage for uploaded menu photos
	objectStore, err := storage.NewObjectStoreFromConfig(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if objectStore == nil {
		log.Println("Object storage not configured; menu photos will not be retained")
	}

	// Initialize Menu service
	menuService := core.NewMenuService(dbStore, visionService, objectStore)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(menuService)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // vision model calls can take up to a minute
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
