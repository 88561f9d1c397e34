package service

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"notifier/internal/config"
	"notifier/pkg/utils"
)

// RetentionJob периодически чистит принадлежащие сервису таблицы:
//   - alert_logs старше настроенного retention удаляются целиком;
//   - прочитанные/скрытые записи ленты старше retention удаляются;
//   - каждому пользователю оставляется не более FeedKeepCount записей.
//
// Непрочитанные и не скрытые записи ленты по возрасту не удаляются.
type RetentionJob struct {
	alerts AlertStore
	feed   NotificationStore
	cfg    config.DeliveryConfig
	logger *utils.Logger

	cron *cron.Cron
	now  func() time.Time
}

// NewRetentionJob создает retention-задачу
func NewRetentionJob(alerts AlertStore, feed NotificationStore, cfg config.DeliveryConfig, logger *utils.Logger) *RetentionJob {
	return &RetentionJob{
		alerts: alerts,
		feed:   feed,
		cfg:    cfg,
		logger: logger.WithComponent("retention"),
		now:    time.Now,
	}
}

// Start регистрирует задачу в cron-расписании (UTC) и запускает планировщик
func (j *RetentionJob) Start() error {
	j.cron = cron.New(cron.WithLocation(time.UTC))
	if _, err := j.cron.AddFunc(j.cfg.CleanupSchedule, j.RunOnce); err != nil {
		return fmt.Errorf("schedule retention job (%q): %w", j.cfg.CleanupSchedule, err)
	}
	j.cron.Start()
	j.logger.Info("retention job scheduled",
		utils.String("schedule", j.cfg.CleanupSchedule),
		utils.Duration("log_retention", j.cfg.LogRetention),
		utils.Int("feed_keep_count", j.cfg.FeedKeepCount))
	return nil
}

// Stop останавливает планировщик и дожидается завершения текущего прогона
func (j *RetentionJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

// RunOnce выполняет один прогон очистки. Шаги независимы: сбой одного
// не отменяет остальные.
func (j *RetentionJob) RunOnce() {
	cutoff := j.now().Add(-j.cfg.LogRetention)

	if deleted, err := j.alerts.DeleteLogsOlderThan(cutoff); err != nil {
		j.logger.Error("failed to delete old alert logs", utils.Err(err))
	} else if deleted > 0 {
		RetentionDeleted.WithLabelValues("alert_logs").Add(float64(deleted))
		j.logger.Info("old alert logs deleted", utils.Int64("rows", deleted))
	}

	if deleted, err := j.feed.DeleteOlderThan(cutoff); err != nil {
		j.logger.Error("failed to delete old notifications", utils.Err(err))
	} else if deleted > 0 {
		RetentionDeleted.WithLabelValues("notifications").Add(float64(deleted))
		j.logger.Info("old notifications deleted", utils.Int64("rows", deleted))
	}

	if trimmed, err := j.feed.TrimPerUser(j.cfg.FeedKeepCount); err != nil {
		j.logger.Error("failed to trim notifications", utils.Err(err))
	} else if trimmed > 0 {
		RetentionDeleted.WithLabelValues("notifications").Add(float64(trimmed))
		j.logger.Info("notifications trimmed", utils.Int64("rows", trimmed))
	}
}
