package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"notifier/internal/models"
	"notifier/internal/repository"
	"notifier/internal/service"
)

// FeedHandler отвечает за ленту in-app уведомлений
//
// Endpoints:
// - GET    /api/v1/notifications              - лента пользователя
// - GET    /api/v1/notifications/unread-count - счетчик непрочитанных
// - POST   /api/v1/notifications/{id}/read    - пометить прочитанной
// - POST   /api/v1/notifications/read-all     - пометить все прочитанными
// - DELETE /api/v1/notifications/{id}         - скрыть из ленты
//
// Идентификация пользователя: query-параметр user_id. Аутентификацию
// конечных пользователей выполняет основной backend; этот сервис стоит
// за ним и наружу не публикуется.
type FeedHandler struct {
	feed service.FeedReader
}

// NewFeedHandler создает новый FeedHandler с внедрением зависимости
func NewFeedHandler(feed service.FeedReader) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// FeedResponse представляет ответ списка записей ленты
type FeedResponse struct {
	Notifications []models.InAppNotification `json:"notifications"`
	Total         int                        `json:"total"`
}

// UnreadCountResponse представляет ответ счетчика непрочитанных
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// GetNotifications возвращает ленту пользователя
//
// GET /api/v1/notifications?user_id=...&unread_only=true&limit=50
//
// HTTP коды:
// - 200 OK: успешно (пустая лента - тоже 200 с пустым массивом)
// - 400 Bad Request: не указан user_id
// - 500 Internal Server Error: ошибка сервера
func (h *FeedHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	unreadOnly := r.URL.Query().Get("unread_only") == "true"

	limit := 0
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil {
			respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	notifications, err := h.feed.List(userID, unreadOnly, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get notifications")
		return
	}

	respondJSON(w, http.StatusOK, FeedResponse{
		Notifications: notifications,
		Total:         len(notifications),
	})
}

// GetUnreadCount возвращает счетчик непрочитанных
//
// GET /api/v1/notifications/unread-count?user_id=...
func (h *FeedHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	count, err := h.feed.UnreadCount(userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get unread count")
		return
	}

	respondJSON(w, http.StatusOK, UnreadCountResponse{Count: count})
}

// MarkRead помечает запись прочитанной
//
// POST /api/v1/notifications/{id}/read?user_id=...
//
// HTTP коды:
// - 200 OK: помечена
// - 404 Not Found: записи нет или принадлежит другому пользователю
func (h *FeedHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	notificationID := mux.Vars(r)["id"]

	if err := h.feed.MarkRead(notificationID, userID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			respondError(w, http.StatusNotFound, "notification not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to mark notification read")
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: "marked read"})
}

// MarkAllRead помечает все записи пользователя прочитанными
//
// POST /api/v1/notifications/read-all?user_id=...
func (h *FeedHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.feed.MarkAllRead(userID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to mark notifications read")
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: "all marked read"})
}

// Dismiss скрывает запись из ленты
//
// DELETE /api/v1/notifications/{id}?user_id=...
func (h *FeedHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	notificationID := mux.Vars(r)["id"]

	if err := h.feed.Dismiss(notificationID, userID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			respondError(w, http.StatusNotFound, "notification not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to dismiss notification")
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: "dismissed"})
}
