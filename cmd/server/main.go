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

	"github.com/Dosada05/worldcup/brackets"
	"github.com/Dosada05/worldcup/config"
	"github.com/Dosada05/worldcup/db"
	"github.com/Dosada05/worldcup/events"
	"github.com/Dosada05/worldcup/handlers"
	"github.com/Dosada05/worldcup/middleware"
	"github.com/Dosada05/worldcup/repositories"
	api "github.com/Dosada05/worldcup/routes"
	"github.com/Dosada05/worldcup/services"
	"github.com/Dosada05/worldcup/sessions"
	"github.com/Dosada05/worldcup/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const tokenTTL = 24 * time.Hour

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

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

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.CreateSchema(schemaCtx, dbConn)
	cancelSchema()
	if err != nil {
		logger.Error("failed to create schema", slog.Any("error", err))
		os.Exit(1)
	}

	// Хранилище изображений (Cloudflare R2)
	images, err := storage.NewCloudflareR2Store(context.Background(), storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 store", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 store initialized")

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	defer wsHub.Stop()
	logger.Info("WebSocket Hub started")

	var publisher events.Publisher
	if cfg.NATSURL != "" {
		publisher, err = events.NewNATSPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.Error("failed to connect to NATS", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("NATS publisher connected", slog.String("stream", events.StreamName))
	} else {
		publisher = events.NewNoopPublisher(logger)
	}
	defer publisher.Close()

	sealer, err := sessions.NewRunSealer(cfg.RunSecretKey)
	if err != nil {
		logger.Error("failed to initialize run sealer", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	worldcupRepo := repositories.NewPostgresWorldcupRepository(dbConn)
	candidateRepo := repositories.NewPostgresCandidateRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchResultRepository(dbConn)
	commentRepo := repositories.NewPostgresCommentRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	txRunner := services.NewSQLTxRunner(dbConn, logger)
	authService := services.NewAuthService(userRepo)
	worldcupService := services.NewWorldcupService(txRunner, worldcupRepo, candidateRepo, images, logger)
	candidateService := services.NewCandidateService(txRunner, worldcupRepo, candidateRepo, images, logger)
	commentService := services.NewCommentService(commentRepo, worldcupRepo)
	bucketService := services.NewBucketService(images, cfg.PresignExpiry)
	rankingService := services.NewRankingService(worldcupRepo, candidateRepo, images)
	adminService := services.NewAdminService(worldcupRepo, candidateRepo, matchRepo, logger)
	gameService := services.NewGameService(services.GameServiceDeps{
		Tx:            txRunner,
		WorldcupRepo:  worldcupRepo,
		CandidateRepo: candidateRepo,
		MatchRepo:     matchRepo,
		UserRepo:      userRepo,
		Sealer:        sealer,
		Images:        images,
		Publisher:     publisher,
		Notifier:      wsHub,
		Logger:        logger,
		RunTTL:        cfg.MatchTokenRetention,
	})
	logger.Info("Services initialized")

	// Планировщик очистки старых токенов матчей
	scheduler, err := services.StartMaintenanceScheduler(adminService, cfg.MatchTokenRetention, logger)
	if err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer scheduler.Shutdown()
	logger.Info("Maintenance scheduler started", slog.Duration("retention", cfg.MatchTokenRetention))

	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecretKey, tokenTTL, logger)

	// Инициализация обработчиков HTTP
	h := api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, jwtAuth),
		Worldcup:  handlers.NewWorldcupHandler(worldcupService),
		Comment:   handlers.NewCommentHandler(commentService),
		Candidate: handlers.NewCandidateHandler(candidateService),
		Bucket:    handlers.NewBucketHandler(bucketService),
		Game:      handlers.NewGameHandler(gameService),
		Ranking:   handlers.NewRankingHandler(rankingService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger),
	}
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, h, jwtAuth, cfg.CORSAllowedOrigins)
	logger.Info("Routes configured")

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
			return
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
