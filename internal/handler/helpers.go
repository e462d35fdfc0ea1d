package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/export"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &domain.ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

// queryInt reads an integer query parameter. Missing means fallback.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &domain.ErrValidation{Field: name, Message: "must be an integer"}
	}
	return n, nil
}

// queryBool reads an optional boolean query parameter.
func queryBool(r *http.Request, name string) (*bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, &domain.ErrValidation{Field: name, Message: "must be true or false"}
	}
	return &b, nil
}

// writeList renders rows as a JSON list, or as a CSV attachment when the
// request asks for format=csv.
func writeList[T export.Record](w http.ResponseWriter, r *http.Request, name string, rows []T, logger *zap.Logger) {
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		if rows == nil {
			rows = []T{}
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[T]{Data: rows, Total: len(rows)})
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, name))
		w.WriteHeader(http.StatusOK)
		if err := export.WriteCSV(w, rows); err != nil {
			logger.Warn("csv export interrupted", zap.String("report", name), zap.Error(err))
		}
	default:
		writeError(w, http.StatusBadRequest, "unsupported format: "+format)
	}
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var validation *domain.ErrValidation
	var conflict *domain.ErrConflict
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &external):
		logger.Error("external service error", zap.String("service", external.Service), zap.Error(err))
		writeError(w, http.StatusBadGateway, "storage unavailable")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
