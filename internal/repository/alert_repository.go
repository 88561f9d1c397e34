package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"notifier/internal/models"
	"notifier/pkg/utils"
)

// AlertRepository - работа с таблицами alert_rules и alert_logs.
//
// alert_rules принадлежит основному backend'у (CRUD правил в watchlist'ах);
// здесь правила только читаются и атомарно "забираются" на срабатывание.
// alert_logs принадлежит этому сервису: одна запись на успешный claim.
type AlertRepository struct {
	db *sql.DB
}

// NewAlertRepository создает новый экземпляр репозитория
func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// GetActiveAlertsForSymbols возвращает все активные правила для набора тикеров.
// Пустой набор тикеров дает пустой результат без похода в БД.
func (r *AlertRepository) GetActiveAlertsForSymbols(symbols []string) ([]models.AlertRule, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	// Собираем placeholders: $1, $2, $3, ...
	placeholders := make([]string, len(symbols))
	args := make([]interface{}, len(symbols))
	for i, s := range symbols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = s
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, watch_list_id, symbol, alert_type, conditions,
		       is_active, frequency, notify_email, notify_in_app, name,
		       last_triggered_at, trigger_count, created_at, updated_at
		FROM alert_rules
		WHERE is_active = true AND symbol IN (%s)
		ORDER BY created_at ASC`, strings.Join(placeholders, ", "))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query active alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.AlertRule
	for rows.Next() {
		var a models.AlertRule
		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.WatchListID,
			&a.Symbol,
			&a.AlertType,
			&a.Conditions,
			&a.IsActive,
			&a.Frequency,
			&a.NotifyEmail,
			&a.NotifyInApp,
			&a.Name,
			&a.LastTriggeredAt,
			&a.TriggerCount,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return alerts, nil
}

// ClaimTrigger атомарно забирает правило на срабатывание условным UPDATE'ом.
// Условие в WHERE гарантирует, что из нескольких конкурирующих инстансов
// выиграет ровно один: проигравшие получают rowsAffected = 0.
//
// Окна по частоте:
//   - once:   только если last_triggered_at IS NULL; тем же UPDATE'ом
//     правило деактивируется
//   - daily:  NULL или старше 24 часов
//   - always: NULL или старше 5 минут (anti-spam cooldown)
//
// Возвращает true если правило забрано этим вызовом. Проигрыш гонки
// или закрытое окно - это (false, nil), не ошибка.
func (r *AlertRepository) ClaimTrigger(alertID, frequency string) (bool, error) {
	var query string

	switch frequency {
	case models.FrequencyOnce:
		query = `
			UPDATE alert_rules
			SET last_triggered_at = NOW(),
			    trigger_count = trigger_count + 1,
			    updated_at = NOW(),
			    is_active = false
			WHERE id = $1 AND last_triggered_at IS NULL`
	case models.FrequencyDaily:
		query = `
			UPDATE alert_rules
			SET last_triggered_at = NOW(),
			    trigger_count = trigger_count + 1,
			    updated_at = NOW()
			WHERE id = $1 AND (last_triggered_at IS NULL OR last_triggered_at < NOW() - INTERVAL '24 hours')`
	case models.FrequencyAlways:
		query = `
			UPDATE alert_rules
			SET last_triggered_at = NOW(),
			    trigger_count = trigger_count + 1,
			    updated_at = NOW()
			WHERE id = $1 AND (last_triggered_at IS NULL OR last_triggered_at < NOW() - INTERVAL '5 minutes')`
	default:
		return false, fmt.Errorf("unknown frequency: %s", frequency)
	}

	result, err := r.db.Exec(query, alertID)
	if err != nil {
		return false, fmt.Errorf("claim alert trigger: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// CreateAlertLog создает аудит-запись срабатывания и возвращает сгенерированный ID
func (r *AlertRepository) CreateAlertLog(alertLog *models.AlertLog) (string, error) {
	conditionMet := alertLog.ConditionMet
	if len(conditionMet) == 0 {
		conditionMet = []byte("{}")
	}
	marketData := alertLog.MarketData
	if len(marketData) == 0 {
		marketData = []byte("{}")
	}

	var id string
	err := r.db.QueryRow(`
		INSERT INTO alert_logs (alert_rule_id, user_id, symbol, alert_type,
		                        condition_met, market_data, notification_sent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		alertLog.AlertRuleID,
		alertLog.UserID,
		alertLog.Symbol,
		alertLog.AlertType,
		[]byte(conditionMet),
		[]byte(marketData),
		alertLog.NotificationSent,
	).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("create alert log: %w", err)
	}

	alertLog.ID = id
	return id, nil
}

// UpdateNotificationSent выставляет флаг notification_sent на аудит-записи
func (r *AlertRepository) UpdateNotificationSent(logID string, sent bool) error {
	_, err := r.db.Exec(`UPDATE alert_logs SET notification_sent = $1 WHERE id = $2`, sent, logID)
	if err != nil {
		return fmt.Errorf("update alert log notification_sent: %w", err)
	}
	return nil
}

// GetTodayEmailCount возвращает количество писем, отправленных пользователю
// с начала текущих UTC-суток (для дневного лимита max_emails_per_day)
func (r *AlertRepository) GetTodayEmailCount(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM alert_logs
		WHERE user_id = $1 AND triggered_at >= $2 AND notification_sent = true`,
		userID, utils.GetDayStart(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("get today email count: %w", err)
	}
	return count, nil
}

// GetTodayInAppCount возвращает количество срабатываний пользователя
// с начала текущих UTC-суток (для дневного лимита max_alerts_per_day)
func (r *AlertRepository) GetTodayInAppCount(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM alert_logs
		WHERE user_id = $1 AND triggered_at >= $2`,
		userID, utils.GetDayStart(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("get today in-app count: %w", err)
	}
	return count, nil
}

// DeleteLogsOlderThan удаляет аудит-записи старше cutoff.
// Возвращает количество удаленных строк (для лога retention-задачи).
func (r *AlertRepository) DeleteLogsOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM alert_logs WHERE triggered_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old alert logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	return rowsAffected, nil
}
