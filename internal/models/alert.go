package models

import (
	"encoding/json"
	"time"
)

// AlertRule представляет пользовательское правило алерта из таблицы alert_rules.
//
// Правила создаются и редактируются основным backend'ом (CRUD настроек
// watchlist'ов); этот сервис их только читает и атомарно "забирает" триггеры.
type AlertRule struct {
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"user_id" db:"user_id"`
	WatchListID string          `json:"watch_list_id" db:"watch_list_id"`
	Symbol      string          `json:"symbol" db:"symbol"`
	AlertType   string          `json:"alert_type" db:"alert_type"` // price_above, price_below, ...
	Conditions  json.RawMessage `json:"conditions" db:"conditions"` // типо-специфичный payload (JSON в БД)
	IsActive    bool            `json:"is_active" db:"is_active"`

	// Frequency определяет, как часто правило может срабатывать повторно:
	//   once   - один раз, после срабатывания деактивируется (is_active=false)
	//   daily  - не чаще одного раза в 24 часа
	//   always - на каждом цикле оценки, с cooldown 5 минут между
	//            уведомлениями для защиты от спама
	Frequency string `json:"frequency" db:"frequency"`

	NotifyEmail     bool       `json:"notify_email" db:"notify_email"`
	NotifyInApp     bool       `json:"notify_in_app" db:"notify_in_app"`
	Name            string     `json:"name" db:"name"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty" db:"last_triggered_at"`
	TriggerCount    int        `json:"trigger_count" db:"trigger_count"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// AlertLog - аудит-запись одного сработавшего триггера (таблица alert_logs).
//
// Создается ровно один раз на успешный claim. Единственное поле, которое
// сервис меняет после создания - notification_sent.
type AlertLog struct {
	ID               string          `json:"id" db:"id"`
	AlertRuleID      string          `json:"alert_rule_id" db:"alert_rule_id"`
	UserID           string          `json:"user_id" db:"user_id"`
	Symbol           string          `json:"symbol" db:"symbol"`
	TriggeredAt      time.Time       `json:"triggered_at" db:"triggered_at"`
	AlertType        string          `json:"alert_type" db:"alert_type"`
	ConditionMet     json.RawMessage `json:"condition_met" db:"condition_met"`
	MarketData       json.RawMessage `json:"market_data" db:"market_data"`
	NotificationSent bool            `json:"notification_sent" db:"notification_sent"`
}

// Типы алертов
const (
	AlertTypePriceAbove     = "price_above"      // цена выше порога
	AlertTypePriceBelow     = "price_below"      // цена ниже порога
	AlertTypePriceChangePct = "price_change_pct" // изменение цены за день в %
	AlertTypeVolumeAbove    = "volume_above"     // объем выше порога
	AlertTypeVolumeBelow    = "volume_below"     // объем ниже порога
	AlertTypeVolumeSpike    = "volume_spike"     // всплеск объема относительно среднего
	AlertTypeNews           = "news"             // новостной алерт
	AlertTypeEarnings       = "earnings"         // отчетность
)

// Частоты срабатывания (идентификатор окна для claim)
const (
	FrequencyOnce   = "once"
	FrequencyDaily  = "daily"
	FrequencyAlways = "always"
)

// ThresholdCondition покрывает price_above, price_below, volume_above, volume_below.
type ThresholdCondition struct {
	Threshold float64 `json:"threshold"`
}

// PriceChangeCondition покрывает price_change_pct.
type PriceChangeCondition struct {
	PercentChange float64 `json:"percent_change"`
	Direction     string  `json:"direction"` // up, down, either
}

// VolumeSpikeCondition покрывает volume_spike.
type VolumeSpikeCondition struct {
	VolumeMultiplier float64 `json:"volume_multiplier"`
	Baseline         string  `json:"baseline"` // avg_30d
}
