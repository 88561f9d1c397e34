package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"notifier/internal/models"
)

// Ошибки репозитория пользовательских данных
var (
	ErrUserNotFound = errors.New("user not found")
)

// PreferenceRepository - чтение пользовательских настроек доставки
// (таблица notification_preferences) и email-реквизитов (таблица users).
//
// Обе таблицы принадлежат основному backend'у; этот сервис их только читает.
type PreferenceRepository struct {
	db *sql.DB
}

// NewPreferenceRepository создает новый экземпляр репозитория
func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// GetNotificationPreferences возвращает настройки доставки пользователя.
// Отсутствие строки - валидное состояние (пользователь ничего не настраивал),
// в этом случае возвращается (nil, nil).
func (r *PreferenceRepository) GetNotificationPreferences(userID string) (*models.NotificationPreferences, error) {
	query := `
		SELECT user_id, email_enabled, email_address, email_verified,
		       quiet_hours_enabled, quiet_hours_start, quiet_hours_end,
		       quiet_hours_timezone, max_alerts_per_day, max_emails_per_day
		FROM notification_preferences
		WHERE user_id = $1`

	prefs := &models.NotificationPreferences{}
	err := r.db.QueryRow(query, userID).Scan(
		&prefs.UserID,
		&prefs.EmailEnabled,
		&prefs.EmailAddress,
		&prefs.EmailVerified,
		&prefs.QuietHoursEnabled,
		&prefs.QuietHoursStart,
		&prefs.QuietHoursEnd,
		&prefs.QuietHoursTimezone,
		&prefs.MaxAlertsPerDay,
		&prefs.MaxEmailsPerDay,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get notification preferences: %w", err)
	}

	return prefs, nil
}

// GetUserEmail возвращает email и имя пользователя из основной таблицы users
func (r *PreferenceRepository) GetUserEmail(userID string) (models.UserEmail, error) {
	query := `SELECT email, full_name FROM users WHERE id = $1`

	var user models.UserEmail
	err := r.db.QueryRow(query, userID).Scan(&user.Email, &user.FullName)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserEmail{}, ErrUserNotFound
		}
		return models.UserEmail{}, fmt.Errorf("get user email: %w", err)
	}

	return user, nil
}
