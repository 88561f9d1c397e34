package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики конвейера доставки
// ============================================================
//
// Использование:
// - Grafana дашборды (throughput по каналам, доля проигранных claim'ов)
// - Alertmanager: рост deliveries_total{outcome="error"} или
//   email_send_duration_ms - деградация SMTP провайдера

// ============ Диспетчеризация триггеров ============

// TriggerEvents - события триггеров по исходу обработки.
// Исходы:
//   claimed      - правило забрано, запись аудита создана
//   lost         - проигран claim (другой инстанс или закрытое окно частоты)
//   unknown_rule - event ссылается на неизвестное/неактивное правило
//   claim_error  - инфраструктурная ошибка claim'а
//   log_error    - не удалось создать аудит-запись
var TriggerEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "notifier",
		Subsystem: "dispatch",
		Name:      "trigger_events_total",
		Help:      "Total trigger events processed, by outcome",
	},
	[]string{"outcome"},
)

// TriggerBatchSize - размер пакетов от внешнего evaluator'а
var TriggerBatchSize = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "notifier",
		Subsystem: "dispatch",
		Name:      "trigger_batch_size",
		Help:      "Number of events per trigger batch",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
	},
)

// ============ Доставка по каналам ============

// Deliveries - результаты доставки по каналам.
// outcome: sent, skipped (policy: отключено, quiet hours, лимит), error
var Deliveries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "notifier",
		Subsystem: "delivery",
		Name:      "deliveries_total",
		Help:      "Total delivery attempts, by channel and outcome",
	},
	[]string{"channel", "outcome"},
)

// EmailSendDuration - длительность SMTP отправки (включая ожидание
// token bucket'а исходящего rate limit'а)
var EmailSendDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "notifier",
		Subsystem: "delivery",
		Name:      "email_send_duration_ms",
		Help:      "SMTP submission duration in milliseconds",
		Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
	},
)

// ============ Retention ============

// RetentionDeleted - удаленные retention-задачей строки по таблицам
var RetentionDeleted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "notifier",
		Subsystem: "retention",
		Name:      "rows_deleted_total",
		Help:      "Total rows removed by the retention job, by table",
	},
	[]string{"table"},
)
