package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"notifier/internal/api"
	"notifier/internal/config"
	"notifier/internal/repository"
	"notifier/internal/service"
	"notifier/internal/websocket"
	"notifier/pkg/ratelimit"
	"notifier/pkg/retry"
	"notifier/pkg/utils"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer logger.Sync()

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", utils.Err(err))
	}
	defer db.Close()

	logger.Info("connected to database", utils.String("dsn", cfg.Database.DSNWithoutPassword()))

	// Инициализация репозиториев
	alertRepo := repository.NewAlertRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// WebSocket hub для real-time доставки в ленту
	hub := websocket.NewHub(logger)
	go hub.Run()

	// Конвейер доставки: gate -> каналы -> router
	gate := service.NewPreferenceGate(prefRepo, alertRepo, logger)
	emailLimiter := ratelimit.NewRateLimiter(cfg.Delivery.EmailRatePerSec, cfg.Delivery.EmailBurst)
	emailChannel := service.NewEmailChannel(cfg, gate, prefRepo, emailLimiter, logger)
	inAppChannel := service.NewInAppChannel(gate, notificationRepo, hub, logger)
	router := service.NewRouter(emailChannel, inAppChannel, logger)

	triggerService := service.NewTriggerService(alertRepo, router, logger)
	feedService := service.NewFeedService(notificationRepo, hub, logger)

	// Фоновая очистка аудита и ленты
	retention := service.NewRetentionJob(alertRepo, notificationRepo, cfg.Delivery, logger)
	if err := retention.Start(); err != nil {
		logger.Fatal("failed to start retention job", utils.Err(err))
	}

	if !emailChannel.Configured() {
		logger.Warn("smtp not configured, email channel is a no-op")
	}

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		TriggerService:   triggerService,
		FeedService:      feedService,
		Canary:           emailChannel,
		DB:               db,
		Hub:              hub,
		Logger:           logger,
		ServiceTokenHash: cfg.Security.ServiceTokenHash,
	}

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.SetupRoutes(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Info("starting server", utils.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", utils.Err(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", utils.Err(err))
	}

	// Останавливаем фоновые компоненты после того, как перестали
	// принимать запросы: hub закрывает клиентов, retention дожидается
	// текущего прогона
	retention.Stop()
	hub.Stop()

	logger.Info("server exited")
}

// initDatabase создает подключение к базе данных.
// При деплое Postgres может подниматься параллельно с сервисом,
// поэтому ping выполняется с retry.
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := retry.Do(ctx, func() error {
		return db.PingContext(ctx)
	}, retry.NetworkConfig()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
