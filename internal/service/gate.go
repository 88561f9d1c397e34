package service

import (
	"fmt"
	"time"

	"notifier/internal/models"
	"notifier/pkg/utils"
)

// PreferenceGate решает, можно ли доставлять уведомление по каналу,
// исходя из пользовательских настроек.
//
// Политика отказов асимметрична по каналам:
//   - email: ошибка чтения настроек = ошибка канала (письмо, отправленное
//     вопреки отключенной настройке, хуже пропущенного);
//   - in-app: ошибка чтения настроек = fail-open (запись ленты легко
//     скрыть, потеря хуже).
//
// Ошибки ВНУТРИ проверок (таймзона, дневные счетчики) в обоих каналах
// fail-open: сбой вспомогательной проверки не должен глушить алерты.
type PreferenceGate struct {
	prefs  PreferenceStore
	alerts AlertStore
	logger *utils.Logger

	// подменяется в тестах quiet hours
	now func() time.Time
}

// NewPreferenceGate создает новый gate
func NewPreferenceGate(prefs PreferenceStore, alerts AlertStore, logger *utils.Logger) *PreferenceGate {
	return &PreferenceGate{
		prefs:  prefs,
		alerts: alerts,
		logger: logger.WithComponent("preference_gate"),
		now:    time.Now,
	}
}

// AllowEmail проверяет email-последовательность gate'а.
//
// Возвращает настройки пользователя (nil - валидное "не настраивал"),
// чтобы канал мог использовать override-адрес без повторного запроса.
// Ошибка возможна только при сбое чтения настроек.
func (g *PreferenceGate) AllowEmail(alert *models.AlertRule) (bool, *models.NotificationPreferences, error) {
	prefs, err := g.prefs.GetNotificationPreferences(alert.UserID)
	if err != nil {
		return false, nil, fmt.Errorf("get notification preferences: %w", err)
	}

	// Нет настроек - нет ограничений сверх базовой записи пользователя
	if prefs == nil {
		return true, nil, nil
	}

	if !prefs.EmailEnabled {
		g.logger.Debug("email disabled by user", utils.AlertID(alert.ID), utils.UserID(alert.UserID))
		return false, prefs, nil
	}
	if !prefs.EmailVerified {
		g.logger.Debug("email address not verified", utils.AlertID(alert.ID), utils.UserID(alert.UserID))
		return false, prefs, nil
	}

	if prefs.QuietHoursEnabled {
		inQuietHours, err := g.isInQuietHours(prefs)
		if err != nil {
			// Битая таймзона в настройках - fail-open
			g.logger.Warn("quiet hours check failed",
				utils.UserID(alert.UserID),
				utils.String("timezone", prefs.QuietHoursTimezone),
				utils.Err(err))
		} else if inQuietHours {
			g.logger.Debug("user in quiet hours", utils.AlertID(alert.ID), utils.UserID(alert.UserID))
			return false, prefs, nil
		}
	}

	if prefs.MaxEmailsPerDay > 0 {
		count, err := g.alerts.GetTodayEmailCount(alert.UserID)
		if err != nil {
			g.logger.Warn("failed to get today's email count", utils.UserID(alert.UserID), utils.Err(err))
		} else if count >= prefs.MaxEmailsPerDay {
			g.logger.Info("daily email limit reached",
				utils.AlertID(alert.ID),
				utils.UserID(alert.UserID),
				utils.Int("count", count),
				utils.Int("limit", prefs.MaxEmailsPerDay))
			return false, prefs, nil
		}
	}

	return true, prefs, nil
}

// AllowInApp проверяет in-app последовательность gate'а. Никогда не
// возвращает ошибку: все сбои проверок fail-open.
func (g *PreferenceGate) AllowInApp(alert *models.AlertRule) bool {
	prefs, err := g.prefs.GetNotificationPreferences(alert.UserID)
	if err != nil {
		g.logger.Warn("failed to get preferences for rate limit check",
			utils.UserID(alert.UserID), utils.Err(err))
		return true
	}

	if prefs != nil && prefs.MaxAlertsPerDay > 0 {
		count, err := g.alerts.GetTodayInAppCount(alert.UserID)
		if err != nil {
			g.logger.Warn("failed to get today's alert count", utils.UserID(alert.UserID), utils.Err(err))
		} else if count >= prefs.MaxAlertsPerDay {
			g.logger.Info("daily alert limit reached",
				utils.AlertID(alert.ID),
				utils.UserID(alert.UserID),
				utils.Int("count", count),
				utils.Int("limit", prefs.MaxAlertsPerDay))
			return false
		}
	}

	return true
}

// isInQuietHours проверяет, попадает ли текущее время в тихие часы
// пользователя. Сравнение строк "HH:MM:SS" в таймзоне пользователя;
// диапазон через полночь (22:00 - 08:00) обрабатывается инверсией.
func (g *PreferenceGate) isInQuietHours(prefs *models.NotificationPreferences) (bool, error) {
	loc, err := time.LoadLocation(prefs.QuietHoursTimezone)
	if err != nil {
		return false, fmt.Errorf("load timezone %s: %w", prefs.QuietHoursTimezone, err)
	}

	currentTime := g.now().In(loc).Format("15:04:05")

	start := prefs.QuietHoursStart
	end := prefs.QuietHoursEnd

	if start <= end {
		// Диапазон внутри одних суток (например 08:00 - 22:00)
		return currentTime >= start && currentTime <= end, nil
	}
	// Диапазон через полночь (например 22:00 - 08:00)
	return currentTime >= start || currentTime <= end, nil
}
