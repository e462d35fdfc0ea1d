package handler

import (
	"net/http"
	"strconv"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Alerts: /v1/alerts
// ============================================================

func listAlertsHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/alerts")
		defer span.End()

		unreadOnly := r.URL.Query().Get("unread") == "true"
		alerts := svc.ListAlerts(ctx, unreadOnly)
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Alert]{Data: alerts, Total: len(alerts)})
	}
}

func markAlertReadHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/alerts/{alertId}/read")
		defer span.End()

		alertID := chi.URLParam(r, "alertId")
		if err := svc.MarkAlertRead(ctx, alertID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "alert marked as read", ID: alertID})
	}
}

func markAllAlertsReadHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/alerts/read-all")
		defer span.End()

		n, err := svc.MarkAllAlertsRead(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: strconv.Itoa(n) + " alerts marked as read"})
	}
}

// ============================================================
// Configuration: /v1/config
// ============================================================

func getConfigHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/config")
		defer span.End()

		writeJSON(w, http.StatusOK, svc.GetConfig(ctx))
	}
}

func updateConfigHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/config")
		defer span.End()

		var cfg domain.AgencyConfig
		if err := decodeJSON(r, &cfg); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		updated, err := svc.UpdateConfig(ctx, cfg)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}
