package service

import (
	"context"
	"time"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// ============================================================
// Automation
// ============================================================

// RunAutomation runs one reconciliation pass over the stored state and
// persists whatever it changed. Running it twice on the same day is a no-op
// the second time.
func (a *Agency) RunAutomation(ctx context.Context) (*domain.AutomationReport, error) {
	ctx, span := tracer.Start(ctx, "Agency.RunAutomation")
	defer span.End()

	start := time.Now()
	res, err := a.apply(ctx, func(*snapshot) (dirty, error) { return dirty{}, nil })
	elapsed := time.Since(start)
	a.metrics.RecordAutomationRun(elapsed, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "automation pass failed")
		a.logger.Error("automation pass failed", zap.Duration("duration", elapsed), zap.Error(err))
		return nil, err
	}

	issues := res.Issues
	if issues == nil {
		issues = []domain.RecordError{}
	}
	rep := &domain.AutomationReport{
		RanAt:           a.timestamp(),
		BookingsChanged: res.BookingsChanged,
		ClientsChanged:  res.ClientsChanged,
		NewAlerts:       len(res.NewAlerts),
		ExpiredAlerts:   res.ExpiredAlerts,
		Issues:          issues,
		DurationMs:      elapsed.Milliseconds(),
	}

	a.mu.Lock()
	a.lastRun = rep
	a.mu.Unlock()

	span.SetAttributes(
		attribute.Int("alerts.new", rep.NewAlerts),
		attribute.Int("alerts.expired", rep.ExpiredAlerts),
		attribute.Int("issues", len(rep.Issues)),
		attribute.Bool("bookings.changed", rep.BookingsChanged),
		attribute.Bool("clients.changed", rep.ClientsChanged),
	)
	a.logger.Info("automation pass finished",
		zap.Int("new_alerts", rep.NewAlerts),
		zap.Int("expired_alerts", rep.ExpiredAlerts),
		zap.Int("issues", len(rep.Issues)),
		zap.Bool("bookings_changed", rep.BookingsChanged),
		zap.Bool("clients_changed", rep.ClientsChanged),
		zap.Duration("duration", elapsed),
	)
	return rep, nil
}

// LastRun returns the report of the latest successful pass, or nil.
func (a *Agency) LastRun() *domain.AutomationReport {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastRun
}

// RunScheduler runs a pass after delay and then every interval until ctx is
// done. Passes never overlap since they run on this goroutine.
func (a *Agency) RunScheduler(ctx context.Context, delay, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	a.logger.Info("automation scheduler started", zap.Duration("delay", delay), zap.Duration("interval", interval))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	a.runScheduled(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("automation scheduler stopped")
			return
		case <-ticker.C:
			a.runScheduled(ctx)
		}
	}
}

func (a *Agency) runScheduled(ctx context.Context) {
	// errors are already logged and counted by RunAutomation
	_, _ = a.RunAutomation(ctx)
}
