package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sdmteam/cvconnect-backend/internal/config"
	"github.com/sdmteam/cvconnect-backend/internal/db"
	httpHandlers "github.com/sdmteam/cvconnect-backend/internal/http/handlers"
	httpRouter "github.com/sdmteam/cvconnect-backend/internal/http/router"
	"github.com/sdmteam/cvconnect-backend/internal/logger"
	"github.com/sdmteam/cvconnect-backend/internal/repository"
	"github.com/sdmteam/cvconnect-backend/internal/service"
	"github.com/sdmteam/cvconnect-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init(cfg.LogLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	requestRepo := repository.NewRequestRepository(dbConn)
	feedbackRepo := repository.NewFeedbackRepository(dbConn)
	categoryRepo := repository.NewCategoryRepository(dbConn)
	engagementRepo := repository.NewEngagementRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	requestService := service.NewRequestService(requestRepo, categoryRepo, hub, cfg.CompletionTimeOffset)
	matchingService := service.NewMatchingService(requestRepo, userRepo, hub)
	feedbackService := service.NewFeedbackService(feedbackRepo, requestRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	engagementService := service.NewEngagementService(engagementRepo, requestRepo)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	requestHandler := httpHandlers.NewRequestHandler(requestService)
	matchingHandler := httpHandlers.NewMatchingHandler(matchingService)
	feedbackHandler := httpHandlers.NewFeedbackHandler(feedbackService)
	categoryHandler := httpHandlers.NewCategoryHandler(categoryService)
	engagementHandler := httpHandlers.NewEngagementHandler(engagementService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(
		cfg,
		authHandler,
		requestHandler,
		matchingHandler,
		feedbackHandler,
		categoryHandler,
		engagementHandler,
		wsHandler,
		healthHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	logger.Log.Infof("main: сервер запущен на порту %s", cfg.HTTPPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: ошибка http сервера: %v", err)
	}

	logger.Log.Info("main: сервер остановлен")
}

func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		log.Printf("main: ошибка закрытия соединения с базой: %v", err)
	}
}
