package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Dosada05/tournament-signup/auth"
	"github.com/Dosada05/tournament-signup/config"
	"github.com/Dosada05/tournament-signup/db"
	"github.com/Dosada05/tournament-signup/handlers"
	"github.com/Dosada05/tournament-signup/live"
	appMiddleware "github.com/Dosada05/tournament-signup/middleware"
	"github.com/Dosada05/tournament-signup/repositories"
	api "github.com/Dosada05/tournament-signup/routes"
	"github.com/Dosada05/tournament-signup/services"
	"github.com/Dosada05/tournament-signup/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных и миграции
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	if err := db.Migrate(dbConn); err != nil {
		logger.Error("failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database ready")

	// Опциональное хранилище постеров (Cloudflare R2)
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 uploader initialized")
	} else {
		logger.Info("R2 is not configured, poster uploads disabled")
	}

	// Опциональный redis для rate limiting; при недоступности деградируем.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis is unreachable, rate limiting disabled", slog.Any("error", err))
			redisClient = nil
		}
		cancelPing()
	}

	// WebSocket-хаб живой турнирной таблицы
	hub := live.NewHub(logger)
	go hub.Run()

	// Репозитории
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	signupRepo := repositories.NewPostgresSignupRepository(dbConn)

	// Классификатор ролей и сессии
	classifier := auth.NewClassifier(cfg.AdminEmails)
	tokens := auth.NewTokenManager(cfg.SessionSecret)
	googleOAuth := auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthCallbackURL)
	if !googleOAuth.Enabled() {
		logger.Info("Google OAuth is not configured, login via Google disabled")
	}

	// Сервисы
	authService := services.NewAuthService(userRepo)
	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, signupRepo, uploader, logger)
	signupService := services.NewSignupService(dbConn, signupRepo, tournamentRepo, hub)
	statsService := services.NewStatsService(tournamentRepo, signupRepo, userRepo)

	// Обработчики HTTP
	secureCookies := strings.HasPrefix(cfg.FrontendURL, "https://")
	authHandler := handlers.NewAuthHandler(authService, tokens, googleOAuth, cfg.FrontendURL, secureCookies)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	signupHandler := handlers.NewSignupHandler(signupService)
	statsHandler := handlers.NewStatsHandler(statsService)
	webSocketHandler := handlers.NewWebSocketHandler(hub)

	// Маршрутизатор
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Options{
		AuthHandler:       authHandler,
		TournamentHandler: tournamentHandler,
		SignupHandler:     signupHandler,
		StatsHandler:      statsHandler,
		WebSocketHandler:  webSocketHandler,

		Identify:        appMiddleware.Identify(tokens, userRepo, classifier),
		SignupRateLimit: appMiddleware.RateLimit(redisClient, appMiddleware.DefaultRateLimitConfig()),

		GoogleEnabled:  googleOAuth.Enabled(),
		AllowedOrigins: []string{strings.TrimSuffix(cfg.FrontendURL, "/")},
	})
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
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

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
