package service

import (
	"notifier/internal/models"
	"notifier/pkg/utils"
)

// Лимиты выдачи ленты
const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
)

// FeedService предоставляет бизнес-логику ленты in-app уведомлений.
//
// Отвечает за:
// - Выдачу ленты с фильтрацией по непрочитанным
// - Счетчик непрочитанных для badge в шапке
// - Пометки прочитано/скрыто (с проверкой владельца в репозитории)
// - Push свежего счетчика подключенным клиентам после пометок
type FeedService struct {
	feed   NotificationStore
	hub    FeedBroadcaster // nil = без real-time обновления счетчика
	logger *utils.Logger
}

// NewFeedService создает сервис ленты
func NewFeedService(feed NotificationStore, hub FeedBroadcaster, logger *utils.Logger) *FeedService {
	return &FeedService{
		feed:   feed,
		hub:    hub,
		logger: logger.WithComponent("feed"),
	}
}

// List возвращает записи ленты пользователя, новые первыми
func (s *FeedService) List(userID string, unreadOnly bool, limit int) ([]models.InAppNotification, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	return s.feed.GetForUser(userID, unreadOnly, limit)
}

// UnreadCount возвращает количество непрочитанных записей
func (s *FeedService) UnreadCount(userID string) (int, error) {
	return s.feed.UnreadCount(userID)
}

// MarkRead помечает запись прочитанной
func (s *FeedService) MarkRead(notificationID, userID string) error {
	if err := s.feed.MarkRead(notificationID, userID); err != nil {
		return err
	}
	s.pushUnreadCount(userID)
	return nil
}

// MarkAllRead помечает все записи пользователя прочитанными
func (s *FeedService) MarkAllRead(userID string) error {
	if err := s.feed.MarkAllRead(userID); err != nil {
		return err
	}
	s.pushUnreadCount(userID)
	return nil
}

// Dismiss скрывает запись из ленты
func (s *FeedService) Dismiss(notificationID, userID string) error {
	if err := s.feed.Dismiss(notificationID, userID); err != nil {
		return err
	}
	s.pushUnreadCount(userID)
	return nil
}

// pushUnreadCount отправляет свежий счетчик через hub (best-effort)
func (s *FeedService) pushUnreadCount(userID string) {
	if s.hub == nil {
		return
	}
	count, err := s.feed.UnreadCount(userID)
	if err != nil {
		s.logger.Warn("failed to get unread count for broadcast",
			utils.UserID(userID), utils.Err(err))
		return
	}
	s.hub.BroadcastUnreadCount(userID, count)
}
