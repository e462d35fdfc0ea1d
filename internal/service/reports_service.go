package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/report"
	"github.com/boddenberg/travel-agency-bfa-go/internal/rules"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Reports
//
// Reports are computed from the current snapshot and cached until the
// next mutation clears the cache. Keys that depend on "today" carry the
// date so a cached value never outlives its day.
// ============================================================

const reportCache = "reports"

// cachedReport returns the cached value for key or computes it under the
// report bulkhead.
func cachedReport[T any](ctx context.Context, a *Agency, key string, compute func(s *snapshot) T) (T, error) {
	ctx, span := tracer.Start(ctx, "Agency.report")
	defer span.End()
	span.SetAttributes(attribute.String("report.key", key))

	if cached, ok := a.cache.Get(key); ok {
		if v, ok := cached.(T); ok {
			a.metrics.IncrCacheHit(reportCache)
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return v, nil
		}
	}
	a.metrics.IncrCacheMiss(reportCache)

	var zero T
	if err := a.bulkhead.Acquire(ctx); err != nil {
		a.logger.Warn("report bulkhead wait cancelled", zap.String("report", key), zap.Error(err))
		return zero, err
	}
	defer a.bulkhead.Release()

	var (
		v   T
		gen uint64
	)
	a.read(func(s *snapshot) {
		gen = a.gen
		v = compute(s)
	})
	a.cache.Set(key, v)
	// A state published since the read may have cleared the cache before
	// this Set landed. Its generation is already visible, so drop the entry.
	if a.generation() != gen {
		a.cache.Delete(key)
	}
	return v, nil
}

func (a *Agency) MonthlySummary(ctx context.Context, month, year int) (domain.Summary, error) {
	if month < 1 || month > 12 {
		return domain.Summary{}, &domain.ErrValidation{Field: "month", Message: "must be between 1 and 12"}
	}
	return cachedReport(ctx, a, fmt.Sprintf("summary:%04d-%02d", year, month), func(s *snapshot) domain.Summary {
		return report.MonthlySummary(s.bookings, month, year, a.loc)
	})
}

func (a *Agency) AnnualSummary(ctx context.Context, year int) (domain.Summary, error) {
	return cachedReport(ctx, a, fmt.Sprintf("summary:%04d", year), func(s *snapshot) domain.Summary {
		return report.AnnualSummary(s.bookings, year, a.loc)
	})
}

func (a *Agency) OriginBreakdown(ctx context.Context) ([]domain.OriginShare, error) {
	return cachedReport(ctx, a, "origins", func(s *snapshot) []domain.OriginShare {
		return report.OriginBreakdown(s.bookings, s.clients)
	})
}

func (a *Agency) PaymentBreakdown(ctx context.Context) ([]domain.PaymentShare, error) {
	return cachedReport(ctx, a, "payments", func(s *snapshot) []domain.PaymentShare {
		return report.PaymentBreakdown(s.bookings)
	})
}

func (a *Agency) SupplierROI(ctx context.Context) ([]domain.SupplierROI, error) {
	return cachedReport(ctx, a, "suppliers", func(s *snapshot) []domain.SupplierROI {
		return report.SupplierROI(s.bookings)
	})
}

// TopClients ranks clients by commission. n <= 0 returns all of them.
func (a *Agency) TopClients(ctx context.Context, n int) ([]domain.ClientProfit, error) {
	return cachedReport(ctx, a, fmt.Sprintf("top-clients:%d", n), func(s *snapshot) []domain.ClientProfit {
		return report.TopClients(s.bookings, s.clients, n)
	})
}

func (a *Agency) MonthlyTrend(ctx context.Context) ([]domain.MonthlyTrend, error) {
	return cachedReport(ctx, a, "trend", func(s *snapshot) []domain.MonthlyTrend {
		return report.MonthlyTrend(s.bookings, a.loc)
	})
}

// GoalProgress compares month/year against the configured monthly targets.
// Zero month or year means the current one.
func (a *Agency) GoalProgress(ctx context.Context, month, year int) (domain.GoalProgress, error) {
	today := a.today()
	if month == 0 {
		month = int(today.Month())
	}
	if year == 0 {
		year = today.Year()
	}
	if month < 1 || month > 12 {
		return domain.GoalProgress{}, &domain.ErrValidation{Field: "month", Message: "must be between 1 and 12"}
	}
	return cachedReport(ctx, a, fmt.Sprintf("goals:%04d-%02d", year, month), func(s *snapshot) domain.GoalProgress {
		return report.GoalProgress(s.bookings, s.config, month, year, a.loc)
	})
}

// Dashboard returns the home screen KPIs over the last periodDays days.
func (a *Agency) Dashboard(ctx context.Context, periodDays int) (domain.Dashboard, error) {
	if periodDays < 1 {
		return domain.Dashboard{}, &domain.ErrValidation{Field: "days", Message: "must be at least 1"}
	}
	today := a.today()
	key := fmt.Sprintf("dashboard:%s:%d", rules.FormatDate(today), periodDays)
	return cachedReport(ctx, a, key, func(s *snapshot) domain.Dashboard {
		return report.Dashboard(s.bookings, s.clients, today, periodDays)
	})
}

// UpcomingTravelers lists bookings checking in within the next days days.
func (a *Agency) UpcomingTravelers(ctx context.Context, days int) ([]domain.Traveler, error) {
	if days < 0 {
		return nil, &domain.ErrValidation{Field: "days", Message: "must not be negative"}
	}
	today := a.today()
	key := fmt.Sprintf("travelers:%s:%d", rules.FormatDate(today), days)
	return cachedReport(ctx, a, key, func(s *snapshot) []domain.Traveler {
		return report.UpcomingTravelers(s.bookings, s.clients, today, days)
	})
}
