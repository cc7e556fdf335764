package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecomlabs/storefront/internal/competitor"
	"github.com/ecomlabs/storefront/internal/config"
	"github.com/ecomlabs/storefront/internal/handlers"
	"github.com/ecomlabs/storefront/internal/importer"
	"github.com/ecomlabs/storefront/internal/jobs"
	"github.com/ecomlabs/storefront/internal/middleware"
	"github.com/ecomlabs/storefront/internal/pricing"
	"github.com/ecomlabs/storefront/internal/repository"
	"github.com/ecomlabs/storefront/internal/service"
	"github.com/ecomlabs/storefront/pkg/logger"
)

// store is the full persistence surface the service wires against.
type store interface {
	repository.ProductStore
	repository.OrderStore
	repository.CartStore
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting storefront api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"storage_driver", cfg.Storage.Driver,
		"log_level", cfg.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open storage", "error", err)
		os.Exit(1)
	}

	// Initialize services
	productService := service.NewProductService(db, db)
	cartService := service.NewCartService(db, db)
	orderService := service.NewOrderService(db, db, cfg.Orders.PendingTTL, log)
	sweeper := service.NewSweeper(db, db, log)

	demandCalc := pricing.NewDemandCalculator(demandHistory{db, db}, db)
	var pricingOpts []pricing.Option
	if cfg.Competitor.BaseURL != "" {
		pricingOpts = append(pricingOpts, pricing.WithSnapshotSource(competitor.NewClient(cfg.Competitor.BaseURL, cfg.Competitor.APIKey)))
	} else {
		log.Info("competitor api not configured, pricing runs without competitor adjustment")
	}
	pricingService := pricing.NewService(db, demandCalc, log, pricingOpts...)

	// Background jobs: expiration sweep + pricing batch
	scheduler := jobs.NewScheduler(sweeper, pricingService, cfg.Jobs.SweepInterval, cfg.Jobs.PricingInterval, log)
	go scheduler.Run(ctx)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(log)
	productHandler := handlers.NewProductHandler(productService, log)
	cartHandler := handlers.NewCartHandler(cartService, log)
	orderHandler := handlers.NewOrderHandler(orderService, db, log)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "api_key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Register health check endpoint
	r.Get("/health", healthHandler.ServeHTTP)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Product endpoints
		r.Get("/product", productHandler.ListProducts)
		r.Get("/product/{productId}", productHandler.GetProduct)

		// Admin stock updates require an API key
		r.With(middleware.APIKeyAuth(cfg.Auth)).Put("/product/{productId}/quantity", productHandler.UpdateQuantity)

		// Cart endpoints
		r.Get("/cart", cartHandler.ShowCart)
		r.Delete("/cart", cartHandler.ClearCart)
		r.Post("/cart/items", cartHandler.AddItem)
		r.Delete("/cart/items/{productId}", cartHandler.RemoveItem)

		// Order endpoints
		r.Post("/order", orderHandler.CreateOrder)
		r.Get("/order", orderHandler.ListOrders)
		r.Get("/order/{orderId}", orderHandler.GetOrder)
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()

	log.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// openStore builds the configured storage backend. The memory driver can seed
// its catalog from a CSV file at startup.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		pg := repository.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	default:
		mem := repository.NewMemoryStore()
		if cfg.Storage.SeedFile != "" {
			count, err := importer.New(mem).ImportFile(ctx, cfg.Storage.SeedFile)
			if err != nil {
				return nil, fmt.Errorf("seed products: %w", err)
			}
			log.Info("seeded product catalog", "file", cfg.Storage.SeedFile, "products", count)
		}
		return mem, nil
	}
}

// demandHistory joins the order and cart sides of the store into the demand
// calculator's history view.
type demandHistory struct {
	repository.OrderStore
	repository.CartStore
}
