package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	cfg := loadConfig()

	// Initialize OpenTelemetry
	tp, err := initTracer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	mp, err := initMetrics(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down meter: %v", err)
		}
	}()

	// Initialize database
	dbPool, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbPool.Close()

	// Initialize Redis (storefront cache + preferences)
	kv := initKV(cfg)

	// Initialize dependencies
	repository := NewStoreRepository(dbPool)
	catalog := NewPostgresCatalogRepository(dbPool)
	tracer := tp.Tracer(cfg.ServiceName)

	var payments PaymentVerifier
	if cfg.PaystackSecret != "" {
		payments = NewPaystackClient(cfg.PaystackBaseURL, cfg.PaystackSecret)
	} else {
		log.Println("⚠️ PAYSTACK_SECRET_KEY not set, skipping payment verification")
	}

	orderUseCase := NewOrderUseCase(repository, payments)
	negotiationUseCase := NewNegotiationUseCase(repository)
	storefrontUseCase := NewStorefrontUseCase(catalog, kv)
	prefs := NewPreferenceService(kv)

	orderHandler := NewOrderHandler(orderUseCase, tracer)
	negotiationHandler := NewNegotiationHandler(negotiationUseCase, tracer)
	storefrontHandler := NewStorefrontHandler(storefrontUseCase, prefs, tracer)

	// Setup Gin router
	r := gin.Default()
	r.Use(otelgin.Middleware(cfg.ServiceName))

	// Health check
	r.GET("/health", storefrontHandler.HealthCheck)

	// Storefront namespace addressed by the tenant rewrite
	r.GET("/store/:slug", storefrontHandler.GetStorefront)
	r.GET("/store/:slug/*page", storefrontHandler.GetStorefront)

	api := r.Group("/api")
	{
		api.GET("/negotiations", negotiationHandler.ListNegotiations)
		api.POST("/negotiations", negotiationHandler.CreateNegotiation)
		api.PATCH("/negotiations/:id",
			RequireRole(cfg.JWTSecret, RoleSeller, RoleAdmin),
			negotiationHandler.DecideNegotiation)

		api.GET("/orders", orderHandler.ListOrders)
		api.POST("/orders", orderHandler.CreateOrder)
		api.GET("/orders/:id", orderHandler.GetOrder)
		api.PATCH("/orders/:id/status",
			RequireRole(cfg.JWTSecret, RoleSeller, RoleAdmin),
			orderHandler.UpdateOrderStatus)
		api.POST("/orders/:id/escrow/release",
			RequireRole(cfg.JWTSecret, RoleAdmin),
			orderHandler.ReleaseEscrow)
		api.POST("/orders/:id/escrow/refund",
			RequireRole(cfg.JWTSecret, RoleAdmin),
			orderHandler.RefundEscrow)

		api.GET("/preferences/:userID", storefrontHandler.GetPreferences)
		api.PUT("/preferences/:userID", storefrontHandler.PutPreferences)
	}

	log.Printf("🚀 Storefront Service listening on port %s (root domain %s)", cfg.Port, cfg.RootDomain)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		// Every request passes through the tenant rewrite before gin routing
		Handler:      NewTenantRewriter(cfg, r),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func initDB(cfg *Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	// Wait for database to be ready
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			log.Println("✅ Connected to storefront database with connection pool")
			return pool, nil
		}
		log.Printf("⏳ Waiting for database... (%d/30)", i+1)
		time.Sleep(1 * time.Second)
	}

	pool.Close()
	return nil, fmt.Errorf("failed to connect to database after 30 attempts")
}

func initKV(cfg *Config) KVStore {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Redis unavailable at %s, storefront cache disabled: %v", cfg.RedisAddr, err)
	} else {
		log.Println("✅ Connected to redis")
	}

	return NewRedisKVStore(client)
}
