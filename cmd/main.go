package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/Dosada05/hockey-live/config"
	"github.com/Dosada05/hockey-live/db"
	"github.com/Dosada05/hockey-live/handlers"
	"github.com/Dosada05/hockey-live/middleware"
	"github.com/Dosada05/hockey-live/realtime"
	"github.com/Dosada05/hockey-live/repositories"
	api "github.com/Dosada05/hockey-live/routes"
	"github.com/Dosada05/hockey-live/services"
	"github.com/Dosada05/hockey-live/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("match_store", cfg.MatchStore),
		slog.Bool("scorer_auth", cfg.JWTSecretKey != ""),
		slog.Bool("archive", cfg.ArchiveEnabled()))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if cfg.DBAutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.EnsureSchema(migrateCtx, dbConn)
		cancel()
		if err != nil {
			logger.Error("failed to ensure database schema", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("database schema ensured")
	}

	healthChecks := map[string]handlers.HealthCheck{
		"database": dbConn.PingContext,
	}

	// Хранилище live-матчей
	var liveMatchRepo repositories.LiveMatchRepository
	switch cfg.MatchStore {
	case config.StoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", slog.Any("error", err))
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error("failed to close redis client", slog.Any("error", err))
			}
		}()
		healthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		liveMatchRepo = repositories.NewRedisLiveMatchRepository(rdb)
		logger.Info("redis match store connected", slog.String("addr", opts.Addr))
	default:
		liveMatchRepo = repositories.NewPostgresLiveMatchRepository(dbConn)
	}

	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	memberRepo := repositories.NewPostgresTeamMemberRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	logger.Info("Repositories initialized")

	// Архив завершённых матчей в Cloudflare R2 (опционально)
	var archive *storage.MatchArchive
	if cfg.ArchiveEnabled() {
		uploader, err := storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archive = storage.NewMatchArchive(uploader)
		logger.Info("Cloudflare R2 match archive initialized", slog.String("bucket", cfg.R2BucketName))
	}

	wsHub := realtime.NewHub(realtime.NewRegistry(), logger, cfg.WSSendBuffer)
	logger.Info("WebSocket Hub started")

	lookupService := services.NewLookupService(liveMatchRepo, teamRepo, memberRepo, tournamentRepo, archive, logger)
	liveMatchService := services.NewLiveMatchService(liveMatchRepo, lookupService, wsHub, archive, logger)
	logger.Info("Services initialized")

	liveMatchHandler := handlers.NewLiveMatchHandler(liveMatchService, logger)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger)
	healthHandler := handlers.NewHealthHandler(healthChecks, logger)
	scorerAuth := middleware.NewScorerAuth(cfg.JWTSecretKey, logger)
	if !scorerAuth.Enabled() {
		logger.Warn("JWT_SECRET_KEY is empty, scorer endpoints are not protected")
	}

	router := chi.NewRouter()
	api.SetupRoutes(router, cfg.CORSAllowedOrigins, scorerAuth, liveMatchHandler, webSocketHandler, healthHandler)
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			exitCode = 1
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			exitCode = 1
		} else {
			logger.Info("server shutdown complete")
		}
	}

	// websocket-соединения захвачены и Shutdown их не ждёт.
	wsHub.Close()
	liveMatchService.Wait()
	logger.Info("application exited")

	if exitCode != 0 {
		// defer'ы с закрытием redis и БД не выполнятся после os.Exit.
		_ = dbConn.Close()
		os.Exit(exitCode)
	}
}
