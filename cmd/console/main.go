package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/reportcentral/console/internal/api"
	"github.com/reportcentral/console/internal/api/handler"
	"github.com/reportcentral/console/internal/api/middleware"
	"github.com/reportcentral/console/internal/core/service"
	"github.com/reportcentral/console/internal/infrastructure/config"
	mongodb "github.com/reportcentral/console/internal/infrastructure/db/mongo"
	redisdb "github.com/reportcentral/console/internal/infrastructure/db/redis"
	"github.com/reportcentral/console/internal/infrastructure/directory"
	"github.com/reportcentral/console/internal/infrastructure/queue"
	"github.com/reportcentral/console/pkg/logger"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Level: "info"})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("starting reporting console")

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	auditRepo := mongodb.NewAuditRepository(db)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure audit indexes")
	}

	// Audit workers outlive the request contexts and are drained on shutdown.
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, auditRepo, logger.Component("audit"))
	dispatcher.Start(context.WithoutCancel(ctx))

	dir, err := directory.New(directory.Config{
		BaseURL:     cfg.Directory.BaseURL,
		Timeout:     cfg.Directory.Timeout,
		ReadRetries: cfg.Directory.ReadRetries,
	}, logger.Component("directory"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid directory configuration")
	}

	hashKey, blockKey, _ := cfg.Session.Keys()
	cookies, err := middleware.NewSessionCookie(hashKey, blockKey, cfg.Session.CookieSecure, cfg.Session.TTL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid session keys")
	}

	sessions := redisdb.NewSessionStore(rdb, cfg.Session.TTL)
	authService := service.NewAuthService(dir, sessions, logger.Component("auth"))
	userService := service.NewUserService(
		dir,
		sessions,
		redisdb.NewListingCache(rdb, cfg.ListingCacheTTL),
		redisdb.NewDeleteConfirmations(rdb),
		dispatcher,
		auditRepo,
		logger.Component("users"),
		service.WithFormWait(cfg.FormWait),
	)

	router := api.NewRouter(api.RouterConfig{
		Log:         logger.Component("http"),
		AuthService: authService,
		UserService: userService,
		Sessions:    sessions,
		Cookies:     cookies,
		Checks: map[string]handler.Check{
			"mongodb": mongodb.Ping(mongoClient),
			"redis":   redisdb.Ping(rdb),
		},
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	dispatcher.Close()

	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close error")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongodb disconnect error")
	}

	log.Info().Msg("server stopped")
}
