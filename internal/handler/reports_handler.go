package handler

import (
	"net/http"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Reports: /v1/reports
// ============================================================

const (
	defaultDashboardDays = 30
	defaultTravelerDays  = 30
	defaultTopClients    = 10
)

// summaryHandler returns the monthly summary, or the annual one when month
// is omitted. year is required.
func summaryHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/summary")
		defer span.End()

		month, err := queryInt(r, "month", 0)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		year, err := queryInt(r, "year", 0)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if year == 0 {
			handleServiceError(w, &domain.ErrValidation{Field: "year", Message: "required"}, logger)
			return
		}
		span.SetAttributes(attribute.Int("month", month), attribute.Int("year", year))

		var s domain.Summary
		if month == 0 {
			s, err = svc.AnnualSummary(ctx, year)
		} else {
			s, err = svc.MonthlySummary(ctx, month, year)
		}
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, r, "summary", []domain.Summary{s}, logger)
	}
}

func originsHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/origins")
		defer span.End()

		rows, err := svc.OriginBreakdown(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, r, "origins", rows, logger)
	}
}

func paymentsHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/payments")
		defer span.End()

		rows, err := svc.PaymentBreakdown(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, r, "payments", rows, logger)
	}
}

func suppliersHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/suppliers")
		defer span.End()

		rows, err := svc.SupplierROI(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, r, "suppliers", rows, logger)
	}
}

func topClientsHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/top-clients")
		defer span.End()

		n, err := queryInt(r, "n", defaultTopClients)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		rows, err := svc.TopClients(ctx, n)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, r, "top-clients", rows, logger)
	}
}

func trendHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/trend")
		defer span.End()

		rows, err := svc.MonthlyTrend(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, r, "trend", rows, logger)
	}
}

func goalsHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/goals")
		defer span.End()

		month, err := queryInt(r, "month", 0)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		year, err := queryInt(r, "year", 0)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		g, err := svc.GoalProgress(ctx, month, year)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, r, "goals", []domain.GoalProgress{g}, logger)
	}
}

func dashboardHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/dashboard")
		defer span.End()

		days, err := queryInt(r, "days", defaultDashboardDays)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		d, err := svc.Dashboard(ctx, days)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func travelersHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/travelers")
		defer span.End()

		days, err := queryInt(r, "days", defaultTravelerDays)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		rows, err := svc.UpcomingTravelers(ctx, days)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, r, "travelers", rows, logger)
	}
}
