package notify

import (
	"context"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// Log writes alerts to the application log. Used when no Telegram bot is configured.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a log notifier.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

// Notify implements port.AlertNotifier.
func (l *Log) Notify(_ context.Context, alerts []domain.Alert) error {
	for _, a := range alerts {
		l.logger.Info("alert raised",
			zap.String("alert_id", a.ID),
			zap.String("type", string(a.Type)),
			zap.String("priority", string(a.Priority)),
			zap.String("title", a.Title),
			zap.String("description", a.Description),
		)
	}
	return nil
}
