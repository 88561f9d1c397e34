package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"notifier/pkg/utils"
)

// CanaryMailer - минимальный интерфейс email канала для canary проверки
type CanaryMailer interface {
	Configured() bool
	SendTest(ctx context.Context, to string) error
}

// CanaryHandler отвечает за сквозную проверку email доставки
//
// Endpoints:
// - POST /canary/email - отправить тестовое письмо
//
// Используется мониторингом: периодическая отправка письма на
// контролируемый ящик ловит деградацию SMTP провайдера до того,
// как ее заметят пользователи.
type CanaryHandler struct {
	mailer CanaryMailer
}

// NewCanaryHandler создает новый CanaryHandler с внедрением зависимости
func NewCanaryHandler(mailer CanaryMailer) *CanaryHandler {
	return &CanaryHandler{mailer: mailer}
}

// canaryRequest представляет тело запроса canary проверки
type canaryRequest struct {
	To string `json:"to"`
}

// CanaryResponse представляет результат canary проверки
type CanaryResponse struct {
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
}

// SendEmail отправляет тестовое письмо
//
// POST /canary/email
// Тело: {"to": "ops@example.com"}
//
// HTTP коды:
// - 200 OK: письмо принято SMTP сервером, в ответе длительность
// - 400 Bad Request: невалидный адрес
// - 502 Bad Gateway: SMTP сервер отказал
// - 503 Service Unavailable: SMTP не сконфигурирован
func (h *CanaryHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	if !h.mailer.Configured() {
		respondError(w, http.StatusServiceUnavailable, "smtp not configured")
		return
	}

	var req canaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateEmail(req.To); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	if err := h.mailer.SendTest(r.Context(), req.To); err != nil {
		respondError(w, http.StatusBadGateway, "smtp send failed")
		return
	}

	respondJSON(w, http.StatusOK, CanaryResponse{
		Status:     "sent",
		DurationMs: time.Since(start).Milliseconds(),
	})
}
