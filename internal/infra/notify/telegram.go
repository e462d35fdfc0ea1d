// Package notify delivers newly created alerts to the agency.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

var tracer = otel.Tracer("notify")

var priorityIcon = map[domain.Priority]string{
	domain.PriorityHigh:   "🔴",
	domain.PriorityMedium: "🟡",
	domain.PriorityLow:    "🔵",
}

// TelegramConfig configures the Telegram notifier.
type TelegramConfig struct {
	Token  string
	ChatID int64
	// APIURL overrides the Bot API endpoint. Empty means the public API.
	APIURL     string
	HTTPClient *http.Client
}

// Telegram sends one HTML message per alert to a fixed chat.
type Telegram struct {
	bot    *tele.Bot
	chat   tele.ChatID
	cb     *gobreaker.CircuitBreaker
	cfg    resilience.Config
	logger *zap.Logger
}

// NewTelegram builds the bot in offline mode: no getMe call at startup and
// no poller, the bot only sends.
func NewTelegram(tc TelegramConfig, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) (*Telegram, error) {
	bot, err := tele.NewBot(tele.Settings{
		URL:     tc.APIURL,
		Token:   tc.Token,
		Client:  tc.HTTPClient,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{
		bot:    bot,
		chat:   tele.ChatID(tc.ChatID),
		cb:     cb,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Notify implements port.AlertNotifier. Every alert is attempted; failures
// are joined into the returned error.
func (t *Telegram) Notify(ctx context.Context, alerts []domain.Alert) error {
	ctx, span := tracer.Start(ctx, "Telegram.Notify")
	defer span.End()
	span.SetAttributes(attribute.Int("alerts.count", len(alerts)))

	var errs []error
	for _, a := range alerts {
		msg := FormatAlert(a)
		err := resilience.Call(ctx, t.cb, t.cfg, "telegram", func() error {
			_, err := t.bot.Send(t.chat, msg, tele.ModeHTML)
			return classify(err)
		})
		if err != nil {
			t.logger.Warn("telegram: alert not delivered",
				zap.String("alert_id", a.ID),
				zap.String("type", string(a.Type)),
				zap.Error(err),
			)
			errs = append(errs, err)
			var open *domain.ErrCircuitOpen
			if errors.As(err, &open) {
				break
			}
			continue
		}
		t.logger.Debug("telegram: alert delivered", zap.String("alert_id", a.ID))
	}
	return errors.Join(errs...)
}

// classify marks Bot API rejections (bad chat, blocked bot) as permanent.
func classify(err error) error {
	var te *tele.Error
	if errors.As(err, &te) && te.Code >= 400 && te.Code < 500 && te.Code != http.StatusTooManyRequests {
		return resilience.Permanent(err)
	}
	return err
}

// FormatAlert renders an alert as a Telegram HTML message.
func FormatAlert(a domain.Alert) string {
	var b strings.Builder
	if icon, ok := priorityIcon[a.Priority]; ok {
		b.WriteString(icon)
		b.WriteByte(' ')
	}
	b.WriteString("<b>")
	b.WriteString(html.EscapeString(a.Title))
	b.WriteString("</b>")
	if a.Description != "" {
		b.WriteByte('\n')
		b.WriteString(html.EscapeString(a.Description))
	}
	if a.ExpiresAt != "" {
		b.WriteString("\n<i>until ")
		b.WriteString(html.EscapeString(a.ExpiresAt))
		b.WriteString("</i>")
	}
	return b.String()
}
