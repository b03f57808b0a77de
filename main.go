package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lemma-social/lemma-engine/pkg/auth"
	"github.com/lemma-social/lemma-engine/pkg/config"
	"github.com/lemma-social/lemma-engine/pkg/database"
	"github.com/lemma-social/lemma-engine/pkg/handlers"
	"github.com/lemma-social/lemma-engine/pkg/middleware"
	"github.com/lemma-social/lemma-engine/pkg/repositories"
	"github.com/lemma-social/lemma-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync errors are harmless on shutdown

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("port", cfg.Port),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", cfg.Database.Database),
		zap.String("redis_host", cfg.Redis.Host))

	ctx := context.Background()

	// Database pool
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Migrations run through database/sql (required by golang-migrate)
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	// Redis is optional; a nil client disables the trust cache.
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	// Authentication
	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)
	scopeMiddleware := handlers.ScopeMiddleware(database.WithScope(db, logger))

	// Repositories
	nodeRepo := repositories.NewNodeRepository()
	edgeRepo := repositories.NewEdgeRepository()
	evidenceRepo := repositories.NewEvidenceRepository()
	flagRepo := repositories.NewFlagRepository()
	trustRepo := repositories.NewTrustRepository()

	// Services
	trustCache := services.NewTrustCache(redisClient, logger)
	gate := services.NewAccessGate(trustRepo, trustCache, logger)
	graphService := services.NewGraphService(nodeRepo, edgeRepo, evidenceRepo, logger)
	traversalService := services.NewTraversalService(nodeRepo, edgeRepo, logger)
	moderationService := services.NewModerationService(flagRepo, trustRepo, trustCache, logger)

	mux := http.NewServeMux()

	// Handlers
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewNodeHandler(graphService, traversalService, gate, logger).
		RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewEdgeHandler(graphService, gate, logger).
		RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewFlagHandler(moderationService, gate, logger).
		RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewTrustHandler(moderationService, gate, logger).
		RegisterRoutes(mux, authMiddleware, scopeMiddleware)

	server := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting lemma-engine", zap.String("addr", addr), zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, server); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	if cfg.Env == "local" {
		zapCfg := zap.NewDevelopmentConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		return zapCfg.Build()
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
