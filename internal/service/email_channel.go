package service

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"notifier/internal/config"
	"notifier/internal/models"
	"notifier/pkg/ratelimit"
	"notifier/pkg/utils"
)

// sendFunc - подменяемая в тестах SMTP отправка (сигнатура smtp.SendMail)
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailChannel доставляет алерты письмами через SMTP.
//
// Ненастроенный SMTP (пустой host или пароль) - штатный режим local dev:
// канал молча превращается в no-op и никогда не возвращает ошибку.
type EmailChannel struct {
	smtp        config.SMTPConfig
	frontendURL string
	gate        *PreferenceGate
	users       PreferenceStore
	limiter     *ratelimit.RateLimiter
	send        sendFunc
	logger      *utils.Logger
}

// NewEmailChannel создает email канал
func NewEmailChannel(cfg *config.Config, gate *PreferenceGate, users PreferenceStore, limiter *ratelimit.RateLimiter, logger *utils.Logger) *EmailChannel {
	return &EmailChannel{
		smtp:        cfg.SMTP,
		frontendURL: cfg.FrontendURL,
		gate:        gate,
		users:       users,
		limiter:     limiter,
		send:        smtp.SendMail,
		logger:      logger.WithChannel("email"),
	}
}

// Name возвращает имя канала
func (c *EmailChannel) Name() string { return "email" }

// Configured сообщает, настроен ли SMTP транспорт (для canary endpoint'а)
func (c *EmailChannel) Configured() bool { return c.smtp.Configured() }

// Send отправляет письмо о сработавшем алерте.
//
// Порядок проверок: SMTP настроен -> gate (настройки, verified, quiet
// hours, дневной лимит) -> адрес получателя (override из настроек
// приоритетнее users.email) -> отправка.
func (c *EmailChannel) Send(ctx context.Context, alert *models.AlertRule, alertLog *models.AlertLog, quote *models.SymbolQuote) error {
	if !c.smtp.Configured() {
		c.logger.Debug("smtp not configured, skipping email", utils.AlertID(alert.ID))
		return nil
	}

	allowed, prefs, err := c.gate.AllowEmail(alert)
	if err != nil {
		Deliveries.WithLabelValues("email", "error").Inc()
		return err
	}
	if !allowed {
		Deliveries.WithLabelValues("email", "skipped").Inc()
		return nil
	}

	user, err := c.users.GetUserEmail(alert.UserID)
	if err != nil {
		Deliveries.WithLabelValues("email", "error").Inc()
		return fmt.Errorf("get user email: %w", err)
	}

	// Override-адрес из настроек приоритетнее базового
	toEmail := user.Email
	if prefs != nil && prefs.EmailAddress != nil && *prefs.EmailAddress != "" {
		toEmail = *prefs.EmailAddress
	}

	subject := fmt.Sprintf("Alert: %s %s", alert.Symbol, utils.AlertTypeLabel(alert.AlertType))
	body := formatAlertEmailBody(alert, quote, user.FullName, c.frontendURL)

	if err := c.deliver(ctx, toEmail, subject, body); err != nil {
		Deliveries.WithLabelValues("email", "error").Inc()
		return err
	}

	Deliveries.WithLabelValues("email", "sent").Inc()
	return nil
}

// SendTest отправляет тестовое письмо (canary endpoint) в обход gate'а
func (c *EmailChannel) SendTest(ctx context.Context, to string) error {
	if !c.smtp.Configured() {
		return fmt.Errorf("smtp not configured")
	}
	body := fmt.Sprintf("<html><body><p>Canary email sent at %s.</p></body></html>",
		time.Now().UTC().Format(time.RFC3339))
	return c.deliver(ctx, to, "Canary: delivery check", body)
}

// deliver собирает и отправляет HTML письмо через SMTP.
//
// Все значения, попадающие в заголовки, очищаются от CR/LF для защиты
// от header injection. Отправка проходит через token bucket исходящего
// rate limit'а (защита SMTP провайдера).
func (c *EmailChannel) deliver(ctx context.Context, to, subject, htmlBody string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("email rate limit: %w", err)
		}
	}

	auth := smtp.PlainAuth("", c.smtp.Username, c.smtp.Password.Value(), c.smtp.Host)

	safeTo := sanitizeHeader(to)
	safeSubject := sanitizeHeader(subject)
	safeFrom := sanitizeHeader(c.smtp.FromEmail)
	safeFromName := sanitizeHeader(c.smtp.FromName)

	msg := fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		safeFromName, safeFrom, safeTo, safeSubject, htmlBody,
	)

	start := time.Now()
	err := c.send(c.smtp.Addr(), auth, c.smtp.FromEmail, []string{safeTo}, []byte(msg))
	EmailSendDuration.Observe(float64(time.Since(start).Milliseconds()))

	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	c.logger.Info("email sent",
		utils.String("to", safeTo),
		utils.String("subject", safeSubject))
	return nil
}

// sanitizeHeader вырезает CR и LF из значения заголовка письма
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}

// formatAlertEmailBody генерирует HTML тело письма об алерте
func formatAlertEmailBody(alert *models.AlertRule, quote *models.SymbolQuote, userName, frontendURL string) string {
	watchlistURL := fmt.Sprintf("%s/watchlist/%s", frontendURL, alert.WatchListID)

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #1a1a2e; color: #e0e0e0; padding: 24px; border-radius: 8px;">
    <h2 style="color: #4fc3f7; margin-top: 0;">Alert Triggered: %s</h2>
    <p>Hi %s,</p>
    <p>Your alert <strong>%s</strong> has been triggered:</p>
    <div style="background: #16213e; padding: 16px; border-radius: 6px; margin: 16px 0;">
      <table style="width: 100%%; border-collapse: collapse; color: #e0e0e0;">
        <tr>
          <td style="padding: 8px 0;"><strong>Symbol</strong></td>
          <td style="padding: 8px 0; text-align: right;">%s</td>
        </tr>
        <tr>
          <td style="padding: 8px 0;"><strong>Current Price</strong></td>
          <td style="padding: 8px 0; text-align: right;">$%.2f</td>
        </tr>
        <tr>
          <td style="padding: 8px 0;"><strong>Change</strong></td>
          <td style="padding: 8px 0; text-align: right;">%.2f%%</td>
        </tr>
        <tr>
          <td style="padding: 8px 0;"><strong>Volume</strong></td>
          <td style="padding: 8px 0; text-align: right;">%s</td>
        </tr>
      </table>
    </div>
    <p>
      <a href="%s" style="display: inline-block; background: #4fc3f7; color: #1a1a2e; padding: 10px 24px; border-radius: 6px; text-decoration: none; font-weight: bold;">
        View Watchlist
      </a>
    </p>
    <hr style="border: none; border-top: 1px solid #333; margin: 20px 0;">
    <p style="color: #888; font-size: 12px;">
      You received this email because you have email alerts enabled for this watchlist.
      To manage your notification preferences, visit your
      <a href="%s/settings" style="color: #4fc3f7;">account settings</a>.
    </p>
  </div>
</body>
</html>`,
		alert.Name,
		userName,
		alert.Name,
		alert.Symbol,
		quote.Price,
		quote.ChangePct,
		utils.FormatVolume(float64(quote.Volume)),
		watchlistURL,
		frontendURL,
	)
}
