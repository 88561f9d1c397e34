package websocket

import (
	"time"

	"notifier/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeAlertNotification - новая запись ленты уведомлений.
	// Отправляется владельцу сразу после записи в БД.
	MessageTypeAlertNotification MessageType = "alert_notification"

	// MessageTypeUnreadCount - актуальный счетчик непрочитанных.
	// Отправляется после новой записи и после пометок прочитано/скрыто,
	// чтобы badge в шапке не требовал polling'а.
	MessageTypeUnreadCount MessageType = "unread_count"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// AlertNotificationMessage - сообщение о новой записи ленты
type AlertNotificationMessage struct {
	BaseMessage
	Data *models.InAppNotification `json:"data"`
}

// UnreadCountMessage - сообщение со счетчиком непрочитанных
type UnreadCountMessage struct {
	BaseMessage
	Count int `json:"count"`
}

// NewAlertNotificationMessage создает сообщение о новой записи ленты
func NewAlertNotificationMessage(notification *models.InAppNotification) *AlertNotificationMessage {
	return &AlertNotificationMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeAlertNotification,
			Timestamp: time.Now(),
		},
		Data: notification,
	}
}

// NewUnreadCountMessage создает сообщение со счетчиком непрочитанных
func NewUnreadCountMessage(count int) *UnreadCountMessage {
	return &UnreadCountMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeUnreadCount,
			Timestamp: time.Now(),
		},
		Count: count,
	}
}
