package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notifier/internal/api/handlers"
	"notifier/internal/api/middleware"
	"notifier/internal/service"
	"notifier/internal/websocket"
	"notifier/pkg/utils"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	TriggerService service.TriggerDispatcher
	FeedService    service.FeedReader
	Canary         handlers.CanaryMailer
	DB             handlers.Pinger
	Hub            *websocket.Hub
	Logger         *utils.Logger

	// bcrypt-хеш сервисного токена для /internal и /canary
	ServiceTokenHash string
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Назначение:
// Центральное место для определения всех API endpoints.
// Регистрирует handlers для каждого маршрута.
// Применяет middleware к группам маршрутов.
// Организует версионирование API (v1).
//
// Структура маршрутов:
//
// /api/v1/ (публичный surface, за основным backend'ом)
//
//	└── /notifications/
//	    ├── GET    /             - лента пользователя
//	    ├── GET    /unread-count - счетчик непрочитанных
//	    ├── POST   /read-all     - пометить все прочитанными
//	    ├── POST   /{id}/read    - пометить прочитанной
//	    └── DELETE /{id}         - скрыть из ленты
//
// /internal/v1/ (сервисный токен)
//
//	└── POST /triggers - пакет триггеров от evaluator'а
//
// /canary/ (сервисный токен)
//
//	└── POST /email - сквозная проверка SMTP
//
// /ws/notifications - WebSocket для real-time доставки
// /health           - health check
// /metrics          - Prometheus метрики
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. ServiceAuth (только для /internal и /canary)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	if deps != nil && deps.Logger != nil {
		router.Use(middleware.Recovery(deps.Logger))
		router.Use(middleware.Logging(deps.Logger))
	}
	router.Use(middleware.CORS)

	// Feed handler с внедрением зависимости
	var feedHandler *handlers.FeedHandler
	if deps != nil && deps.FeedService != nil {
		feedHandler = handlers.NewFeedHandler(deps.FeedService)
	}

	// Trigger handler с внедрением зависимости
	var triggerHandler *handlers.TriggerHandler
	if deps != nil && deps.TriggerService != nil {
		triggerHandler = handlers.NewTriggerHandler(deps.TriggerService)
	}

	// Canary handler с внедрением зависимости
	var canaryHandler *handlers.CanaryHandler
	if deps != nil && deps.Canary != nil {
		canaryHandler = handlers.NewCanaryHandler(deps.Canary)
	}

	// API v1 routes (лента уведомлений)
	api := router.PathPrefix("/api/v1").Subrouter()

	if feedHandler != nil {
		api.HandleFunc("/notifications", feedHandler.GetNotifications).Methods("GET")
		api.HandleFunc("/notifications/unread-count", feedHandler.GetUnreadCount).Methods("GET")
		api.HandleFunc("/notifications/read-all", feedHandler.MarkAllRead).Methods("POST")
		api.HandleFunc("/notifications/{id}/read", feedHandler.MarkRead).Methods("POST")
		api.HandleFunc("/notifications/{id}", feedHandler.Dismiss).Methods("DELETE")
	}

	// Внутренние маршруты под сервисным токеном
	var tokenHash string
	if deps != nil {
		tokenHash = deps.ServiceTokenHash
	}

	internal := router.PathPrefix("/internal/v1").Subrouter()
	internal.Use(middleware.ServiceAuth(tokenHash))
	if triggerHandler != nil {
		internal.HandleFunc("/triggers", triggerHandler.ProcessTriggers).Methods("POST")
	}

	canary := router.PathPrefix("/canary").Subrouter()
	canary.Use(middleware.ServiceAuth(tokenHash))
	if canaryHandler != nil {
		canary.HandleFunc("/email", canaryHandler.SendEmail).Methods("POST")
	}

	// WebSocket route
	if deps != nil && deps.Hub != nil {
		hub := deps.Hub
		router.HandleFunc("/ws/notifications", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		}).Methods("GET")
	}

	// Health check endpoint
	if deps != nil && deps.DB != nil {
		var counter handlers.ClientCounter
		if deps.Hub != nil {
			counter = deps.Hub
		}
		healthHandler := handlers.NewHealthHandler(deps.DB, counter)
		router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	}

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}
