package handlers

import (
	"context"
	"fmt"

	"notifier/internal/models"
	"notifier/internal/repository"
)

// ============================================================
// Моки зависимостей handler'ов
// ============================================================

// MockDispatcher - мок обработчика пакетов триггеров
type MockDispatcher struct {
	err     error
	batches []*models.TriggerBatch
}

func (m *MockDispatcher) ProcessBatch(ctx context.Context, batch *models.TriggerBatch) error {
	m.batches = append(m.batches, batch)
	return m.err
}

// MockFeedReader - мок сервиса ленты
type MockFeedReader struct {
	items    []models.InAppNotification
	unread   int
	listErr  error
	countErr error
	readErr  error
	allErr   error
	dismErr  error

	listCalls [][2]interface{} // (userID, limit)
	readCalls [][2]string      // (notificationID, userID)
	dismissed [][2]string
	allCalls  []string
}

func (m *MockFeedReader) List(userID string, unreadOnly bool, limit int) ([]models.InAppNotification, error) {
	m.listCalls = append(m.listCalls, [2]interface{}{userID, limit})
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.items, nil
}

func (m *MockFeedReader) UnreadCount(userID string) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.unread, nil
}

func (m *MockFeedReader) MarkRead(notificationID, userID string) error {
	m.readCalls = append(m.readCalls, [2]string{notificationID, userID})
	if m.readErr != nil {
		return m.readErr
	}
	for i := range m.items {
		if m.items[i].ID == notificationID && m.items[i].UserID == userID {
			return nil
		}
	}
	return repository.ErrNotificationNotFound
}

func (m *MockFeedReader) MarkAllRead(userID string) error {
	m.allCalls = append(m.allCalls, userID)
	return m.allErr
}

func (m *MockFeedReader) Dismiss(notificationID, userID string) error {
	m.dismissed = append(m.dismissed, [2]string{notificationID, userID})
	if m.dismErr != nil {
		return m.dismErr
	}
	for i := range m.items {
		if m.items[i].ID == notificationID && m.items[i].UserID == userID {
			return nil
		}
	}
	return repository.ErrNotificationNotFound
}

// MockCanaryMailer - мок email канала для canary проверки
type MockCanaryMailer struct {
	configured bool
	sendErr    error
	sentTo     []string
}

func (m *MockCanaryMailer) Configured() bool {
	return m.configured
}

func (m *MockCanaryMailer) SendTest(ctx context.Context, to string) error {
	m.sentTo = append(m.sentTo, to)
	return m.sendErr
}

// MockPinger - мок проверки подключения к БД
type MockPinger struct {
	err error
}

func (m *MockPinger) Ping() error {
	return m.err
}

// MockClientCounter - мок состояния WebSocket hub'а
type MockClientCounter struct {
	count int
}

func (m *MockClientCounter) ClientCount() int {
	return m.count
}

// feedItems генерирует n записей ленты для пользователя
func feedItems(userID string, n int) []models.InAppNotification {
	items := make([]models.InAppNotification, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, models.InAppNotification{
			ID:      fmt.Sprintf("notif-%d", i+1),
			UserID:  userID,
			Type:    models.NotificationTypeAlertTriggered,
			Title:   "AAPL Price Above",
			Message: "AAPL crossed above $150.00 (current: $155.30)",
		})
	}
	return items
}
