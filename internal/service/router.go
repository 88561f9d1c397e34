package service

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"notifier/internal/models"
	"notifier/pkg/utils"
)

// Router раздает одно срабатывание по всем включенным правилом каналам.
//
// Каналы независимы: сбой одного не мешает попытке другого. Ошибки
// каналов собираются в один агрегат с префиксом имени канала, чтобы
// вызывающий мог отличить частичный сбой от полного.
type Router struct {
	email  Channel
	inApp  Channel
	logger *utils.Logger
}

// NewRouter создает маршрутизатор каналов. Любой канал может быть nil
// (например email в деплое без SMTP) - он просто не участвует.
func NewRouter(email, inApp Channel, logger *utils.Logger) *Router {
	return &Router{
		email:  email,
		inApp:  inApp,
		logger: logger.WithComponent("router"),
	}
}

// Deliver вызывает каждый включенный правилом канал. Ноль включенных
// каналов - валидная конфигурация правила, возвращается nil.
func (r *Router) Deliver(ctx context.Context, alert *models.AlertRule, alertLog *models.AlertLog, quote *models.SymbolQuote) error {
	var errs error

	if alert.NotifyEmail && r.email != nil {
		if err := r.email.Send(ctx, alert, alertLog, quote); err != nil {
			r.logger.Error("email delivery failed", utils.AlertID(alert.ID), utils.Err(err))
			errs = multierr.Append(errs, fmt.Errorf("email: %w", err))
		}
	}

	if alert.NotifyInApp && r.inApp != nil {
		if err := r.inApp.Send(ctx, alert, alertLog, quote); err != nil {
			r.logger.Error("in-app delivery failed", utils.AlertID(alert.ID), utils.Err(err))
			errs = multierr.Append(errs, fmt.Errorf("in_app: %w", err))
		}
	}

	return errs
}
