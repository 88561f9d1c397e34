package handlers

import (
	"net/http"
)

// Pinger - проверка живости подключения к БД (*sql.DB подходит)
type Pinger interface {
	Ping() error
}

// ClientCounter - состояние WebSocket hub'а
type ClientCounter interface {
	ClientCount() int
}

// HealthHandler отвечает за health check сервиса
//
// Endpoints:
// - GET /health - состояние сервиса для load balancer'а и мониторинга
type HealthHandler struct {
	db  Pinger
	hub ClientCounter // nil допустим
}

// NewHealthHandler создает новый HealthHandler с внедрением зависимостей
func NewHealthHandler(db Pinger, hub ClientCounter) *HealthHandler {
	return &HealthHandler{db: db, hub: hub}
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	WSClients int    `json:"ws_clients"`
}

// Health возвращает состояние сервиса
//
// GET /health
//
// HTTP коды:
// - 200 OK: все зависимости доступны
// - 503 Service Unavailable: БД недоступна (доставка невозможна)
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Database: "up"}
	if h.hub != nil {
		resp.WSClients = h.hub.ClientCount()
	}

	status := http.StatusOK
	if err := h.db.Ping(); err != nil {
		resp.Status = "degraded"
		resp.Database = "down"
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, resp)
}
