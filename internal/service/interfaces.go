package service

import (
	"context"
	"time"

	"notifier/internal/models"
	"notifier/internal/repository"
)

// AlertStore определяет интерфейс хранилища правил и аудит-записей
type AlertStore interface {
	GetActiveAlertsForSymbols(symbols []string) ([]models.AlertRule, error)
	ClaimTrigger(alertID, frequency string) (bool, error)
	CreateAlertLog(alertLog *models.AlertLog) (string, error)
	UpdateNotificationSent(logID string, sent bool) error
	GetTodayEmailCount(userID string) (int, error)
	GetTodayInAppCount(userID string) (int, error)
	DeleteLogsOlderThan(cutoff time.Time) (int64, error)
}

// PreferenceStore определяет интерфейс чтения пользовательских настроек
// доставки и email-реквизитов
type PreferenceStore interface {
	GetNotificationPreferences(userID string) (*models.NotificationPreferences, error)
	GetUserEmail(userID string) (models.UserEmail, error)
}

// NotificationStore определяет интерфейс хранилища ленты in-app уведомлений
type NotificationStore interface {
	Create(notification *models.InAppNotification) error
	GetForUser(userID string, unreadOnly bool, limit int) ([]models.InAppNotification, error)
	UnreadCount(userID string) (int, error)
	MarkRead(notificationID, userID string) error
	MarkAllRead(userID string) error
	Dismiss(notificationID, userID string) error
	DeleteOlderThan(cutoff time.Time) (int64, error)
	TrimPerUser(keep int) (int64, error)
}

// Проверяем, что реальные репозитории реализуют интерфейсы
var _ AlertStore = (*repository.AlertRepository)(nil)
var _ PreferenceStore = (*repository.PreferenceRepository)(nil)
var _ NotificationStore = (*repository.NotificationRepository)(nil)

// Channel - один канал доставки уведомлений (email, in-app).
//
// Send возвращает nil и при успешной доставке, и при policy skip
// (канал отключен настройками, quiet hours, дневной лимит): skip -
// штатное решение, а не сбой. Ошибка означает, что доставка
// предпринималась и не удалась.
type Channel interface {
	Name() string
	Send(ctx context.Context, alert *models.AlertRule, alertLog *models.AlertLog, quote *models.SymbolQuote) error
}

// FeedBroadcaster - интерфейс для real-time оповещения подключенных
// клиентов о новых записях ленты.
//
// Позволяет избежать циклических зависимостей между пакетами
// и упрощает тестирование (можно подставить mock)
type FeedBroadcaster interface {
	BroadcastAlertNotification(userID string, notification *models.InAppNotification)
	BroadcastUnreadCount(userID string, count int)
}

// ============ Интерфейсы сервисов для Dependency Injection ============

// TriggerDispatcher определяет интерфейс сервиса обработки триггеров
type TriggerDispatcher interface {
	ProcessBatch(ctx context.Context, batch *models.TriggerBatch) error
}

// DeliveryRouter определяет интерфейс fan-out маршрутизатора каналов
type DeliveryRouter interface {
	Deliver(ctx context.Context, alert *models.AlertRule, alertLog *models.AlertLog, quote *models.SymbolQuote) error
}

// FeedReader определяет интерфейс сервиса ленты уведомлений
type FeedReader interface {
	List(userID string, unreadOnly bool, limit int) ([]models.InAppNotification, error)
	UnreadCount(userID string) (int, error)
	MarkRead(notificationID, userID string) error
	MarkAllRead(userID string) error
	Dismiss(notificationID, userID string) error
}

// Проверяем, что реальные сервисы реализуют интерфейсы
var _ TriggerDispatcher = (*TriggerService)(nil)
var _ DeliveryRouter = (*Router)(nil)
var _ FeedReader = (*FeedService)(nil)
var _ Channel = (*EmailChannel)(nil)
var _ Channel = (*InAppChannel)(nil)
