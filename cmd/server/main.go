// Package main is the entry point for the poscore API server.
// Multi-tenant architecture: Database-per-Business.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"poscore/internal/core/business"
	"poscore/internal/core/security"
	"poscore/internal/domain/auth"
	v1 "poscore/internal/infrastructure/http/v1"
	"poscore/internal/infrastructure/numerator"
	"poscore/internal/infrastructure/storage/postgres"
	"poscore/internal/infrastructure/storage/postgres/auth_repo"
	"poscore/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting poscore server (multi-business mode)")

	// --- Meta-database connection ---
	metaDSN := mustEnv("META_DATABASE_URL")
	metaPool, err := pgxpool.New(ctx, metaDSN)
	if err != nil {
		log.Fatalw("failed to connect to meta database", "error", err)
	}
	defer metaPool.Close()

	if err := metaPool.Ping(ctx); err != nil {
		log.Fatalw("failed to ping meta database", "error", err)
	}
	log.Info("meta database connection established")

	// --- Business Registry and Manager ---
	registry := business.NewPostgresRegistry(metaPool)

	managerCfg := business.DefaultManagerConfig()
	managerCfg.DBUser = mustEnv("BUSINESS_DB_USER")
	managerCfg.DBPassword = mustEnv("BUSINESS_DB_PASSWORD")

	// Optional configuration overrides
	if maxPools := getEnvInt("BUSINESS_MAX_POOLS", 100); maxPools > 0 {
		managerCfg.MaxTotalPools = maxPools
	}
	if maxConns := getEnvInt("BUSINESS_MAX_CONNS_PER_POOL", 10); maxConns > 0 {
		managerCfg.MaxConnsPerBusiness = int32(maxConns)
	}
	if idleTimeout := getEnvDuration("BUSINESS_POOL_IDLE_TIMEOUT", 30*time.Minute); idleTimeout > 0 {
		managerCfg.PoolIdleTimeout = idleTimeout
	}

	businessManager := business.NewManager(managerCfg, registry, log)
	defer businessManager.Close()

	log.Infow("business manager initialized",
		"max_pools", managerCfg.MaxTotalPools,
		"max_conns_per_business", managerCfg.MaxConnsPerBusiness,
		"idle_timeout", managerCfg.PoolIdleTimeout,
	)

	// Optional: Prewarm pools for known businesses
	if getEnv("PREWARM_POOLS", "false") == "true" {
		log.Info("prewarming business pools...")
		if err := businessManager.PrewarmPools(ctx); err != nil {
			log.Warnw("failed to prewarm some pools", "error", err)
		}
	}

	// --- Plan Gate ---
	planGate, err := security.NewPlanGate(security.DefaultPlanRules())
	if err != nil {
		log.Fatalw("failed to compile plan rules", "error", err)
	}

	// --- JWT Service ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtConfig := auth.DefaultJWTConfig(jwtSecret)
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Auth Service ---
	// Note: Auth repos will get TxManager from context per-request
	userRepo := auth_repo.NewUserRepo()
	tokenRepo := auth_repo.NewTokenRepo()

	authConfig := auth.DefaultServiceConfig()
	authService := auth.NewService(
		userRepo,
		tokenRepo,
		nil, // TxManager will come from context
		jwtService,
		planGate,
		authConfig,
	)

	// --- Numerator Service ---
	numeratorService := numerator.NewFromContext()

	// --- Movement Policy ---
	movementPolicy := movementPolicyFromEnv()

	// --- Feature Flags ---
	flags := security.NewInMemoryFlags()
	flags.SetFlag(security.FlagAdvancedReports, getEnv("FLAG_ADVANCED_REPORTS", "true") == "true")

	// --- Audit Trail ---
	auditTrail, err := postgres.NewAuditServiceFromContext()
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		BusinessManager: businessManager,
		MetaPool:        metaPool,
		Logger:          log,
		JWTValidator:    jwtService,
		AuthService:     authService,
		Numerator:       numeratorService,
		PlanGate:        planGate,
		MovementPolicy:  movementPolicy,
		AuditTrail:      auditTrail,
		FeatureFlags:    flags,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port, "mode", "multi-business")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// movementPolicyFromEnv selects the period-closing policy.
// MOVEMENT_POLICY=strict requires MOVEMENT_CLOSED_UNTIL (YYYY-MM-DD);
// flexible warns on backdated entries; anything else allows everything.
func movementPolicyFromEnv() security.MovementPolicy {
	closedUntil := time.Time{}
	if raw := os.Getenv("MOVEMENT_CLOSED_UNTIL"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			fmt.Printf("invalid MOVEMENT_CLOSED_UNTIL %q: %v\n", raw, err)
			os.Exit(1)
		}
		closedUntil = t
	}

	switch getEnv("MOVEMENT_POLICY", "open") {
	case "strict":
		return security.NewStrictPolicy(closedUntil)
	case "flexible":
		warn := getEnvDuration("MOVEMENT_WARNING_THRESHOLD", 24*time.Hour)
		return security.NewFlexiblePolicy(warn, closedUntil)
	default:
		return security.OpenPolicy{}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
