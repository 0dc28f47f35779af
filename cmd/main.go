package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tryon-storefront/internal/analytics"
	"tryon-storefront/internal/api"
	"tryon-storefront/internal/auth"
	"tryon-storefront/internal/cart"
	"tryon-storefront/internal/catalog"
	"tryon-storefront/internal/config"
	"tryon-storefront/internal/store"
	"tryon-storefront/internal/tryon"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const defaultAppName = "TryOnStorefront"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}
	logger := log.New(os.Stdout, fmt.Sprintf("[%s] ", defaultAppName), log.LstdFlags|log.Lshortfile|log.Lmicroseconds)
	logger.Println("INFO: Starting service...")

	// --- Configuration Loading ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("FATAL: Error loading configuration: %v", err)
	}
	logger.Printf("INFO: Configuration loaded for APP_ENV: %s, LogLevel: %s", cfg.AppEnv, cfg.LogLevel)

	// --- Database Connection ---
	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize database connection: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Printf("WARN: Error closing database on deferred cleanup: %v", err)
		}
	}()

	if err := db.PingContext(context.Background()); err != nil {
		logger.Fatalf("FATAL: Failed to ping database: %v", err)
	}
	logger.Println("INFO: Database connection established successfully.")
	dbStore := store.NewPostgresStore(db)

	// --- Services ---
	shopify := catalog.NewShopifyClient(cfg.Shopify.StoreURL, cfg.Shopify.AccessToken, cfg.Shopify.Timeout)
	catalogSvc := catalog.NewService(dbStore, dbStore, shopify)

	ledgerStorage, err := buildLedgerStorage(logger, cfg)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize cart storage: %v", err)
	}
	ledger, err := cart.NewLedger(ledgerStorage, dbStore)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load cart ledger: %v", err)
	}
	go func() {
		// Badge observer: surfaces ledger changes in the service log the way
		// the storefront UI mirrors them into its cart badge.
		for count := range ledger.Updates() {
			logger.Printf("INFO: Cart updated, %d line item(s)", count)
		}
	}()

	processor := tryon.NewProcessor(cfg.TryOn.ServiceURL, cfg.TryOn.Timeout, dbStore, dbStore)

	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authSvc := auth.NewService(dbStore, issuer)

	aggregator := analytics.NewAggregator(dbStore, dbStore, analytics.NewSyntheticSource(time.Now().UnixNano()))

	httpAPIHandler := api.NewHTTPHandler(catalogSvc, ledger, processor, authSvc, issuer, aggregator, cfg.Upload.MaxBytes)

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, logger)
	registerHealthCheck(httpRouter, logger, db)
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		logger.Printf("INFO: HTTP server listening on port %s", cfg.HttpServer.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("FATAL: HTTP server ListenAndServe error: %v", err)
		}
		logger.Println("INFO: HTTP server has stopped.")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(logger, httpServer, dbStore, shutdownComplete)

	<-shutdownComplete
	logger.Println("INFO: Service shutdown sequence finished.")
}

func buildLedgerStorage(logger *log.Logger, cfg *config.Config) (cart.Storage, error) {
	switch cfg.Cart.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Cart.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		logger.Printf("INFO: Cart ledger backed by redis at %s", cfg.Cart.RedisAddr)
		return cart.NewRedisStorage(client, cfg.Cart.SessionKey, cfg.Cart.RedisTTL), nil
	case "memory":
		logger.Println("INFO: Cart ledger backed by process memory (non-durable)")
		return cart.NewMemoryStorage(), nil
	case "file":
		logger.Printf("INFO: Cart ledger backed by file %s", cfg.Cart.FilePath)
		return cart.NewFileStorage(cfg.Cart.FilePath), nil
	default:
		return nil, fmt.Errorf("unknown cart backend %q", cfg.Cart.Backend)
	}
}

func setupBaseMiddleware(router *chi.Mux, logger *log.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	// The try-on relay waits on the image service for up to two minutes, so
	// the blanket request timeout has to sit above that.
	router.Use(middleware.Timeout(3 * time.Minute))
	logger.Println("INFO: Base HTTP middleware registered.")
}

func registerHealthCheck(router *chi.Mux, logger *log.Logger, db *sql.DB) {
	router.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		dbStatus := "healthy"
		if err := db.PingContext(ctx); err != nil {
			dbStatus = "unhealthy"
			logger.Printf("WARN: Health check DB ping failed: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "OK",
			"message":     "Backend running successfully",
			"serviceName": defaultAppName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"database":    dbStatus,
		})
	})
	logger.Println("INFO: HTTP health check registered at /api/health")
}

func waitForShutdown(
	logger *log.Logger,
	httpServer *http.Server,
	dbStore *store.PostgresStore,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Printf("INFO: Received signal: %s. Starting graceful shutdown...", receivedSignal)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	logger.Println("INFO: Attempting to gracefully shut down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("WARN: HTTP server graceful shutdown failed: %v", err)
	} else {
		logger.Println("INFO: HTTP server gracefully shut down.")
	}

	if dbStore != nil {
		if err := dbStore.Close(); err != nil {
			logger.Printf("WARN: Error closing database connection: %v", err)
		}
	}

	logger.Println("INFO: Graceful shutdown sequence completed.")
}
