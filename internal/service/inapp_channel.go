package service

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"notifier/internal/models"
	"notifier/pkg/utils"
)

var jsonFast = jsoniter.ConfigCompatibleWithStandardLibrary

// InAppChannel пишет уведомления в ленту (таблица notifications),
// которую frontend читает через Feed API, и оповещает подключенных
// клиентов через WebSocket hub.
type InAppChannel struct {
	gate   *PreferenceGate
	feed   NotificationStore
	hub    FeedBroadcaster // nil = без real-time оповещений
	logger *utils.Logger
}

// NewInAppChannel создает in-app канал
func NewInAppChannel(gate *PreferenceGate, feed NotificationStore, hub FeedBroadcaster, logger *utils.Logger) *InAppChannel {
	return &InAppChannel{
		gate:   gate,
		feed:   feed,
		hub:    hub,
		logger: logger.WithChannel("in_app"),
	}
}

// Name возвращает имя канала
func (c *InAppChannel) Name() string { return "in_app" }

// Send создает запись ленты для сработавшего алерта.
//
// Broadcast через hub - best-effort: его сбой не считается сбоем
// доставки, запись ленты уже создана.
func (c *InAppChannel) Send(ctx context.Context, alert *models.AlertRule, alertLog *models.AlertLog, quote *models.SymbolQuote) error {
	if !c.gate.AllowInApp(alert) {
		Deliveries.WithLabelValues("in_app", "skipped").Inc()
		return nil
	}

	dataJSON, err := jsonFast.Marshal(buildData(alert, quote))
	if err != nil {
		c.logger.Warn("failed to marshal notification data",
			utils.AlertID(alert.ID), utils.Err(err))
		dataJSON = []byte("{}")
	}

	notification := &models.InAppNotification{
		UserID:     alert.UserID,
		AlertLogID: &alertLog.ID,
		Type:       models.NotificationTypeAlertTriggered,
		Title:      buildTitle(alert),
		Message:    buildMessage(alert, quote, c.logger),
		Data:       dataJSON,
	}

	if err := c.feed.Create(notification); err != nil {
		Deliveries.WithLabelValues("in_app", "error").Inc()
		return fmt.Errorf("create in-app notification: %w", err)
	}

	Deliveries.WithLabelValues("in_app", "sent").Inc()
	c.logger.Info("in-app notification created",
		utils.AlertID(alert.ID),
		utils.Symbol(alert.Symbol),
		utils.AlertType(alert.AlertType))

	if c.hub != nil {
		c.hub.BroadcastAlertNotification(alert.UserID, notification)
		if count, err := c.feed.UnreadCount(alert.UserID); err == nil {
			c.hub.BroadcastUnreadCount(alert.UserID, count)
		} else {
			c.logger.Warn("failed to get unread count for broadcast",
				utils.UserID(alert.UserID), utils.Err(err))
		}
	}

	return nil
}

// buildTitle генерирует заголовок записи ленты
func buildTitle(alert *models.AlertRule) string {
	return fmt.Sprintf("%s %s", alert.Symbol, utils.AlertTypeLabel(alert.AlertType))
}

// buildMessage генерирует текст записи ленты.
// Нечитаемый conditions payload дает generic текст, а не ошибку:
// пользователь все равно должен увидеть срабатывание.
func buildMessage(alert *models.AlertRule, quote *models.SymbolQuote, logger *utils.Logger) string {
	fallback := fmt.Sprintf("Alert triggered for %s", alert.Symbol)

	switch alert.AlertType {
	case models.AlertTypePriceAbove:
		var cond models.ThresholdCondition
		if err := jsonFast.Unmarshal(alert.Conditions, &cond); err != nil {
			logger.Warn("failed to parse price_above conditions", utils.AlertID(alert.ID), utils.Err(err))
			return fallback
		}
		return fmt.Sprintf("%s crossed above $%.2f (current: $%.2f)", alert.Symbol, cond.Threshold, quote.Price)
	case models.AlertTypePriceBelow:
		var cond models.ThresholdCondition
		if err := jsonFast.Unmarshal(alert.Conditions, &cond); err != nil {
			logger.Warn("failed to parse price_below conditions", utils.AlertID(alert.ID), utils.Err(err))
			return fallback
		}
		return fmt.Sprintf("%s dropped below $%.2f (current: $%.2f)", alert.Symbol, cond.Threshold, quote.Price)
	case models.AlertTypeVolumeAbove:
		var cond models.ThresholdCondition
		if err := jsonFast.Unmarshal(alert.Conditions, &cond); err != nil {
			logger.Warn("failed to parse volume_above conditions", utils.AlertID(alert.ID), utils.Err(err))
			return fallback
		}
		return fmt.Sprintf("%s volume exceeded %s (current: %s)",
			alert.Symbol, utils.FormatVolume(cond.Threshold), utils.FormatVolume(float64(quote.Volume)))
	case models.AlertTypeVolumeBelow:
		var cond models.ThresholdCondition
		if err := jsonFast.Unmarshal(alert.Conditions, &cond); err != nil {
			logger.Warn("failed to parse volume_below conditions", utils.AlertID(alert.ID), utils.Err(err))
			return fallback
		}
		return fmt.Sprintf("%s volume dropped below %s (current: %s)",
			alert.Symbol, utils.FormatVolume(cond.Threshold), utils.FormatVolume(float64(quote.Volume)))
	case models.AlertTypePriceChangePct:
		return fmt.Sprintf("%s moved %.2f%% today", alert.Symbol, quote.ChangePct)
	default:
		return fallback
	}
}

// buildData собирает метаданные записи для навигации во frontend'е
func buildData(alert *models.AlertRule, quote *models.SymbolQuote) map[string]interface{} {
	return map[string]interface{}{
		"watch_list_id": alert.WatchListID,
		"symbol":        alert.Symbol,
		"price":         quote.Price,
		"volume":        quote.Volume,
		"alert_type":    alert.AlertType,
	}
}
