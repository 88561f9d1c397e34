package service

import (
	"context"
	"fmt"
	"time"

	"notifier/internal/models"
	"notifier/pkg/utils"
)

// TriggerService обрабатывает пакеты событий от внешнего evaluator'а.
//
// Evaluator уже решил, что условия правил выполнены; здесь происходит
// только claim, аудит и доставка. Claim атомарный (условный UPDATE),
// поэтому несколько инстансов сервиса могут обрабатывать одни и те же
// пакеты без дублей уведомлений.
type TriggerService struct {
	alerts AlertStore
	router DeliveryRouter
	logger *utils.Logger

	// подменяется в тестах для детерминированного market_data.timestamp
	now func() time.Time
}

// NewTriggerService создает сервис обработки триггеров
func NewTriggerService(alerts AlertStore, router DeliveryRouter, logger *utils.Logger) *TriggerService {
	return &TriggerService{
		alerts: alerts,
		router: router,
		logger: logger.WithComponent("trigger_dispatch"),
		now:    time.Now,
	}
}

// ProcessBatch обрабатывает один пакет событий.
//
// Ошибка возвращается только при сбое загрузки правил (инфраструктура):
// evaluator получит 500 и переотправит пакет, claim защитит от дублей.
// Все по-событийные сбои логируются и не прерывают пакет.
func (s *TriggerService) ProcessBatch(ctx context.Context, batch *models.TriggerBatch) error {
	if len(batch.Events) == 0 {
		return nil
	}
	TriggerBatchSize.Observe(float64(len(batch.Events)))

	// Уникальные тикеры пакета для одного запроса правил
	seen := make(map[string]bool, len(batch.Events))
	symbols := make([]string, 0, len(batch.Events))
	for _, event := range batch.Events {
		if !seen[event.Symbol] {
			seen[event.Symbol] = true
			symbols = append(symbols, event.Symbol)
		}
	}

	rules, err := s.alerts.GetActiveAlertsForSymbols(symbols)
	if err != nil {
		return fmt.Errorf("fetch alerts: %w", err)
	}

	byID := make(map[string]*models.AlertRule, len(rules))
	for i := range rules {
		byID[rules[i].ID] = &rules[i]
	}

	var delivered int
	for i := range batch.Events {
		event := &batch.Events[i]

		rule, ok := byID[event.AlertID]
		if !ok {
			// Правило удалено/деактивировано между оценкой и доставкой
			TriggerEvents.WithLabelValues("unknown_rule").Inc()
			s.logger.Debug("event references unknown or inactive rule",
				utils.AlertID(event.AlertID), utils.Symbol(event.Symbol))
			continue
		}

		claimed, err := s.alerts.ClaimTrigger(rule.ID, rule.Frequency)
		if err != nil {
			TriggerEvents.WithLabelValues("claim_error").Inc()
			s.logger.Warn("claim failed", utils.AlertID(rule.ID), utils.Err(err))
			continue
		}
		if !claimed {
			// Проигран другому инстансу или окно частоты закрыто
			TriggerEvents.WithLabelValues("lost").Inc()
			s.logger.Debug("claim lost", utils.AlertID(rule.ID))
			continue
		}

		if s.dispatch(ctx, rule, &event.Quote) {
			delivered++
		}
	}

	if delivered > 0 {
		s.logger.Info("trigger batch processed",
			utils.String("source", batch.Source),
			utils.Int("events", len(batch.Events)),
			utils.Int("delivered", delivered))
	}

	return nil
}

// dispatch обрабатывает одно забранное срабатывание: аудит-запись,
// fan-out по каналам, итоговый notification_sent.
//
// Claim уже состоялся, отката нет: сбой после claim'а - потерянное
// окно, а не дубль. Возвращает true, если доставка прошла без ошибок.
func (s *TriggerService) dispatch(ctx context.Context, rule *models.AlertRule, quote *models.SymbolQuote) bool {
	conditionMet, _ := jsonFast.Marshal(map[string]interface{}{
		"alert_type": rule.AlertType,
		"threshold":  conditionThreshold(rule),
		"triggered":  true,
	})
	marketData, _ := jsonFast.Marshal(map[string]interface{}{
		"symbol":     rule.Symbol,
		"price":      quote.Price,
		"volume":     quote.Volume,
		"change_pct": quote.ChangePct,
		"timestamp":  s.now().Unix(),
	})

	alertLog := &models.AlertLog{
		AlertRuleID:      rule.ID,
		UserID:           rule.UserID,
		Symbol:           rule.Symbol,
		AlertType:        rule.AlertType,
		ConditionMet:     conditionMet,
		MarketData:       marketData,
		NotificationSent: true,
	}

	if _, err := s.alerts.CreateAlertLog(alertLog); err != nil {
		TriggerEvents.WithLabelValues("log_error").Inc()
		s.logger.Error("failed to create alert log", utils.AlertID(rule.ID), utils.Err(err))
		return false
	}
	TriggerEvents.WithLabelValues("claimed").Inc()

	if err := s.router.Deliver(ctx, rule, alertLog, quote); err != nil {
		s.logger.Warn("delivery failed", utils.AlertID(rule.ID), utils.Err(err))
		if err := s.alerts.UpdateNotificationSent(alertLog.ID, false); err != nil {
			s.logger.Warn("failed to update notification_sent", utils.AlertID(rule.ID), utils.Err(err))
		}
		return false
	}

	return true
}

// conditionThreshold извлекает числовой порог из conditions правила
func conditionThreshold(rule *models.AlertRule) float64 {
	var cond models.ThresholdCondition
	if err := jsonFast.Unmarshal(rule.Conditions, &cond); err == nil && cond.Threshold > 0 {
		return cond.Threshold
	}
	var spike models.VolumeSpikeCondition
	if err := jsonFast.Unmarshal(rule.Conditions, &spike); err == nil && spike.VolumeMultiplier > 0 {
		return spike.VolumeMultiplier
	}
	return 0
}
