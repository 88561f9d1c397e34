package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"notifier/internal/models"
)

// Ошибки репозитория ленты уведомлений
var (
	ErrNotificationNotFound = errors.New("notification not found")
)

// NotificationRepository - работа с таблицей notifications (лента in-app
// уведомлений). Таблица принадлежит этому сервису: in-app канал пишет,
// Feed API читает и помечает записи.
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository создает новый экземпляр репозитория
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create создает запись ленты и заполняет сгенерированные поля
func (r *NotificationRepository) Create(notification *models.InAppNotification) error {
	data := notification.Data
	if len(data) == 0 {
		data = []byte("{}")
	}

	query := `
		INSERT INTO notifications (user_id, alert_log_id, type, title, message, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, is_read, is_dismissed`

	err := r.db.QueryRow(
		query,
		notification.UserID,
		notification.AlertLogID,
		notification.Type,
		notification.Title,
		notification.Message,
		[]byte(data),
	).Scan(
		&notification.ID,
		&notification.CreatedAt,
		&notification.IsRead,
		&notification.IsDismissed,
	)

	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

// GetForUser возвращает записи ленты пользователя, новые первыми
func (r *NotificationRepository) GetForUser(userID string, unreadOnly bool, limit int) ([]models.InAppNotification, error) {
	query := `
		SELECT id, user_id, alert_log_id, type, title, message, data,
		       is_read, is_dismissed, created_at
		FROM notifications
		WHERE user_id = $1`
	args := []interface{}{userID}

	if unreadOnly {
		query += " AND is_read = false AND is_dismissed = false"
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("get notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.InAppNotification{}
	for rows.Next() {
		var n models.InAppNotification
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.AlertLogID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.Data,
			&n.IsRead,
			&n.IsDismissed,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

// UnreadCount возвращает количество непрочитанных и не скрытых записей
func (r *NotificationRepository) UnreadCount(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND is_read = false AND is_dismissed = false`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("get unread count: %w", err)
	}
	return count, nil
}

// MarkRead помечает запись прочитанной.
// user_id в WHERE защищает от пометки чужих записей.
func (r *NotificationRepository) MarkRead(notificationID, userID string) error {
	query := `
		UPDATE notifications
		SET is_read = true
		WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

// MarkAllRead помечает все записи пользователя прочитанными
func (r *NotificationRepository) MarkAllRead(userID string) error {
	query := `
		UPDATE notifications
		SET is_read = true
		WHERE user_id = $1 AND is_read = false`

	if _, err := r.db.Exec(query, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}

	return nil
}

// Dismiss скрывает запись из ленты
func (r *NotificationRepository) Dismiss(notificationID, userID string) error {
	query := `
		UPDATE notifications
		SET is_dismissed = true
		WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("dismiss notification: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

// DeleteOlderThan удаляет прочитанные и скрытые записи старше cutoff.
// Непрочитанные записи retention не трогает.
func (r *NotificationRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM notifications
		WHERE created_at < $1 AND (is_read = true OR is_dismissed = true)`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old notifications: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	return rowsAffected, nil
}

// TrimPerUser оставляет каждому пользователю не более keep последних записей
func (r *NotificationRepository) TrimPerUser(keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	query := `
		DELETE FROM notifications
		WHERE id IN (
			SELECT id FROM (
				SELECT id,
				       ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY created_at DESC) AS rn
				FROM notifications
			) ranked
			WHERE ranked.rn > $1
		)`

	result, err := r.db.Exec(query, keep)
	if err != nil {
		return 0, fmt.Errorf("trim notifications: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	return rowsAffected, nil
}
