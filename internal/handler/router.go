package handler

import (
	"net/http"

	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/observability"
	"github.com/boddenberg/travel-agency-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract of the agency dashboard front end.
func NewRouter(svc *service.Agency, metrics *observability.Metrics, allowedOrigins []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger, metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware(allowedOrigins))
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(LimitBody)

		// =============================================
		// 1. Clients
		// =============================================
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", listClientsHandler(svc, logger))
			r.Post("/", createClientHandler(svc, logger))
			r.Get("/{clientId}", getClientHandler(svc, logger))
			r.Put("/{clientId}", updateClientHandler(svc, logger))
			r.Delete("/{clientId}", deleteClientHandler(svc, logger))
		})

		// =============================================
		// 2. Bookings
		// =============================================
		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", listBookingsHandler(svc, logger))
			r.Post("/", createBookingHandler(svc, logger))
			r.Get("/{bookingId}", getBookingHandler(svc, logger))
			r.Put("/{bookingId}", updateBookingHandler(svc, logger))
			r.Delete("/{bookingId}", deleteBookingHandler(svc, logger))
		})

		// =============================================
		// 3. Alerts
		// =============================================
		r.Get("/alerts", listAlertsHandler(svc, logger))
		r.Post("/alerts/read-all", markAllAlertsReadHandler(svc, logger))
		r.Post("/alerts/{alertId}/read", markAlertReadHandler(svc, logger))

		// =============================================
		// 4. Agency configuration
		// =============================================
		r.Get("/config", getConfigHandler(svc, logger))
		r.Put("/config", updateConfigHandler(svc, logger))

		// =============================================
		// 5. Automation
		// =============================================
		r.Post("/automation/run", runAutomationHandler(svc, logger))
		r.Get("/automation/last-run", lastRunHandler(svc))
		r.Get("/automation/metrics", automationMetricsHandler(metrics))

		// =============================================
		// 6. Reports (JSON, or CSV with ?format=csv)
		// =============================================
		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", summaryHandler(svc, logger))
			r.Get("/origins", originsHandler(svc, logger))
			r.Get("/payments", paymentsHandler(svc, logger))
			r.Get("/suppliers", suppliersHandler(svc, logger))
			r.Get("/top-clients", topClientsHandler(svc, logger))
			r.Get("/trend", trendHandler(svc, logger))
			r.Get("/goals", goalsHandler(svc, logger))
			r.Get("/dashboard", dashboardHandler(svc, logger))
			r.Get("/travelers", travelersHandler(svc, logger))
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := svc.Health(r.Context())
		code := http.StatusOK
		if status.Status == "unhealthy" {
			code = http.StatusServiceUnavailable
			logger.Warn("health check failed", zap.Any("services", status.Services))
		}
		writeJSON(w, code, status)
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// ============================================================
// Automation
// ============================================================

func runAutomationHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/automation/run")
		defer span.End()

		rep, err := svc.RunAutomation(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func lastRunHandler(svc *service.Agency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep := svc.LastRun()
		if rep == nil {
			writeError(w, http.StatusNotFound, "no automation pass has run yet")
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func automationMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.AutomationSnapshot())
	}
}
