package models

import (
	"encoding/json"
	"time"
)

// InAppNotification представляет запись ленты уведомлений (таблица notifications).
//
// Создается in-app каналом один раз на успешную доставку; читается и
// помечается прочитанной/скрытой frontend'ом через Feed API.
type InAppNotification struct {
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"user_id" db:"user_id"`
	AlertLogID  *string         `json:"alert_log_id,omitempty" db:"alert_log_id"` // обратная ссылка на аудит-запись
	Type        string          `json:"type" db:"type"`
	Title       string          `json:"title" db:"title"`
	Message     string          `json:"message" db:"message"`
	Data        json.RawMessage `json:"data,omitempty" db:"data"` // метаданные для навигации (JSON в БД)
	IsRead      bool            `json:"is_read" db:"is_read"`
	IsDismissed bool            `json:"is_dismissed" db:"is_dismissed"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// Типы записей ленты
const (
	NotificationTypeAlertTriggered = "alert_triggered" // сработал алерт
)

// NotificationPreferences - пользовательские настройки доставки
// (таблица notification_preferences, владеет ею backend настроек).
//
// Отсутствие строки - валидное состояние: "нет ограничений сверх дефолтов".
type NotificationPreferences struct {
	UserID             string  `json:"user_id" db:"user_id"`
	EmailEnabled       bool    `json:"email_enabled" db:"email_enabled"`
	EmailAddress       *string `json:"email_address,omitempty" db:"email_address"` // override, приоритетнее users.email
	EmailVerified      bool    `json:"email_verified" db:"email_verified"`
	QuietHoursEnabled  bool    `json:"quiet_hours_enabled" db:"quiet_hours_enabled"`
	QuietHoursStart    string  `json:"quiet_hours_start" db:"quiet_hours_start"`       // HH:MM:SS
	QuietHoursEnd      string  `json:"quiet_hours_end" db:"quiet_hours_end"`           // HH:MM:SS
	QuietHoursTimezone string  `json:"quiet_hours_timezone" db:"quiet_hours_timezone"` // IANA, например America/New_York
	MaxAlertsPerDay    int     `json:"max_alerts_per_day" db:"max_alerts_per_day"`     // 0 = без лимита
	MaxEmailsPerDay    int     `json:"max_emails_per_day" db:"max_emails_per_day"`     // 0 = без лимита
}

// UserEmail - минимальные данные пользователя для email-доставки.
type UserEmail struct {
	Email    string `json:"email" db:"email"`
	FullName string `json:"full_name" db:"full_name"`
}
