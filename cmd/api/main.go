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
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/OgbonnaBlessed/passion-streams/internal/api"
	"github.com/OgbonnaBlessed/passion-streams/internal/auth"
	"github.com/OgbonnaBlessed/passion-streams/internal/config"
	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/OgbonnaBlessed/passion-streams/internal/fcm"
	"github.com/OgbonnaBlessed/passion-streams/internal/realtime"
	"github.com/OgbonnaBlessed/passion-streams/internal/repository"
)

// store is what both repository implementations provide.
type store interface {
	domain.UserRepository
	domain.ChatRepository
	domain.SwipeRepository
	domain.ConnectionRepository
	domain.ProfileRepository
	api.Pinger
}

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting PassionStreams API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Database.Driver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	var repo store
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("Using in-memory store - data is lost on restart")
		repo = repository.NewMemoryRepository()
	default:
		db, err := initDatabase(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		pg := repository.NewPostgresRepository(db)
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Connected to database")
		repo = pg
	}
	deps := map[string]api.Pinger{"store": repo}

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessExpiry)
	googleAuth := auth.NewGoogleAuthVerifier(cfg.Google.ClientIDs)
	if googleAuth.IsConfigured() {
		logger.Info("Google sign-in is configured")
	} else {
		logger.Warn("Google sign-in is NOT configured - set GOOGLE_CLIENT_ID to enable")
	}

	// Initialize services
	authService := domain.NewAuthService(repo, jwtManager, googleAuth)
	chatService := domain.NewChatService(repo, repo, cfg.Chat.AdminWindow, logger)
	connectService := domain.NewConnectService(repo, repo, repo, chatService, logger)

	// Room fan-out: Redis when configured, otherwise in-process only
	var broker realtime.Broker
	if cfg.Redis.URL != "" {
		rb, err := realtime.NewRedisBroker(ctx, cfg.Redis.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		deps["redis"] = rb
		broker = rb
		logger.Info("Connected to Redis")
	} else {
		broker = realtime.NewLocalBroker()
	}
	defer broker.Close()

	hub := realtime.NewHub(chatService, broker, cfg.Chat.StrictJoin, logger)
	go hub.Run(ctx)
	chatService.SetEventPublisher(hub)
	connectService.SetEventPublisher(hub)

	// Initialize Firebase
	if cfg.Firebase.Enabled {
		fcmClient, err := fcm.NewClient(ctx, repo, logger, cfg.Firebase.CredentialsFile)
		if err != nil {
			logger.Warn("Failed to initialize Firebase client - push notifications will be disabled", zap.Error(err))
		} else {
			chatService.SetNotifier(fcmClient)
			connectService.SetNotifier(fcmClient)
			logger.Info("Firebase client initialized")
		}
	}

	chatService.StartAdminSweeper(ctx, cfg.Chat.AdminSweepInterval)

	// Initialize handlers
	authHandler := api.NewAuthHandler(authService, logger)
	chatHandler := api.NewChatHandler(chatService, logger)
	connectHandler := api.NewConnectHandler(connectService, logger)
	wsHandler := api.NewWSHandler(authService, hub, cfg.Server.FrontendURL, logger)
	healthHandler := api.NewHealthHandler(deps, logger)

	router := api.NewRouter(authHandler, chatHandler, connectHandler, wsHandler, healthHandler, authService, cfg.Server.FrontendURL, logger)
	r := router.Setup()

	// Create server. WriteTimeout does not apply to hijacked websocket
	// connections.
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stops the sweeper, the broker subscription and the hub
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Log.Level, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func initDatabase(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
