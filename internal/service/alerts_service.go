package service

import (
	"context"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/rules"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Alerts
// ============================================================

// ListAlerts returns alerts newest first. With unreadOnly, read alerts are left out.
func (a *Agency) ListAlerts(ctx context.Context, unreadOnly bool) []domain.Alert {
	_, span := tracer.Start(ctx, "Agency.ListAlerts")
	defer span.End()

	out := []domain.Alert{}
	a.read(func(s *snapshot) {
		for i := len(s.alerts) - 1; i >= 0; i-- {
			if unreadOnly && s.alerts[i].Read {
				continue
			}
			out = append(out, s.alerts[i])
		}
	})
	span.SetAttributes(attribute.Int("results", len(out)))
	return out
}

// MarkAlertRead flags one alert as read. A read alert stays stored so the
// engine does not raise it again.
func (a *Agency) MarkAlertRead(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Agency.MarkAlertRead")
	defer span.End()
	span.SetAttributes(attribute.String("alert.id", id))

	_, err := a.apply(ctx, func(s *snapshot) (dirty, error) {
		for i := range s.alerts {
			if s.alerts[i].ID == id {
				if s.alerts[i].Read {
					return dirty{}, nil
				}
				s.alerts[i].Read = true
				return dirty{alerts: true}, nil
			}
		}
		return dirty{}, &domain.ErrNotFound{Resource: "alert", ID: id}
	})
	return err
}

// MarkAllAlertsRead flags every alert as read and returns how many changed.
func (a *Agency) MarkAllAlertsRead(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "Agency.MarkAllAlertsRead")
	defer span.End()

	n := 0
	_, err := a.apply(ctx, func(s *snapshot) (dirty, error) {
		for i := range s.alerts {
			if !s.alerts[i].Read {
				s.alerts[i].Read = true
				n++
			}
		}
		return dirty{alerts: n > 0}, nil
	})
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int("marked", n))
	return n, nil
}

// ============================================================
// Configuration
// ============================================================

func (a *Agency) GetConfig(ctx context.Context) domain.AgencyConfig {
	_, span := tracer.Start(ctx, "Agency.GetConfig")
	defer span.End()

	var cfg domain.AgencyConfig
	a.read(func(s *snapshot) { cfg = s.config })
	return cfg
}

// UpdateConfig validates and stores cfg. Derived client state and goal
// alerts are recomputed against the new thresholds right away.
func (a *Agency) UpdateConfig(ctx context.Context, cfg domain.AgencyConfig) (domain.AgencyConfig, error) {
	ctx, span := tracer.Start(ctx, "Agency.UpdateConfig")
	defer span.End()

	if err := rules.ValidateAgencyConfig(cfg); err != nil {
		return domain.AgencyConfig{}, err
	}
	_, err := a.apply(ctx, func(s *snapshot) (dirty, error) {
		s.config = cfg
		return dirty{config: true}, nil
	})
	if err != nil {
		return domain.AgencyConfig{}, err
	}

	a.logger.Info("agency config updated",
		zap.String("agency", cfg.AgencyName),
		zap.Int("inactivity_days", cfg.InactivityDays),
		zap.Float64("default_commission_percent", cfg.DefaultCommissionPercent),
	)
	return cfg, nil
}
