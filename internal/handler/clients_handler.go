package handler

import (
	"net/http"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Clients: /v1/clients
// ============================================================

func listClientsHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients")
		defer span.End()

		active, err := queryBool(r, "active")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		q := r.URL.Query()
		clients := svc.ListClients(ctx, domain.ClientFilter{
			Term:   q.Get("q"),
			Origin: q.Get("origin"),
			Active: active,
		})
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Client]{Data: clients, Total: len(clients)})
	}
}

func getClientHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients/{clientId}")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		span.SetAttributes(attribute.String("client.id", clientID))
		c, err := svc.GetClient(ctx, clientID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func createClientHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients")
		defer span.End()

		var in domain.ClientInput
		if err := decodeJSON(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		c, err := svc.CreateClient(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func updateClientHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/clients/{clientId}")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		var in domain.ClientInput
		if err := decodeJSON(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		c, err := svc.UpdateClient(ctx, clientID, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func deleteClientHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/clients/{clientId}")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		if err := svc.DeleteClient(ctx, clientID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "client deleted", ID: clientID})
	}
}
