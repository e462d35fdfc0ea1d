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
// Bookings: /v1/bookings
// ============================================================

func listBookingsHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/bookings")
		defer span.End()

		q := r.URL.Query()
		bookings := svc.ListBookings(ctx, domain.BookingFilter{
			Term:          q.Get("q"),
			Supplier:      q.Get("supplier"),
			Service:       q.Get("service"),
			Destination:   q.Get("destination"),
			PaymentMethod: q.Get("payment_method"),
			Origin:        q.Get("origin"),
			Status:        domain.BookingStatus(q.Get("status")),
			From:          q.Get("from"),
			To:            q.Get("to"),
		})
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Booking]{Data: bookings, Total: len(bookings)})
	}
}

func getBookingHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/bookings/{bookingId}")
		defer span.End()

		bookingID := chi.URLParam(r, "bookingId")
		span.SetAttributes(attribute.String("booking.id", bookingID))
		b, err := svc.GetBooking(ctx, bookingID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func createBookingHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bookings")
		defer span.End()

		var in domain.BookingInput
		if err := decodeJSON(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		b, err := svc.CreateBooking(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

func updateBookingHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/bookings/{bookingId}")
		defer span.End()

		bookingID := chi.URLParam(r, "bookingId")
		var in domain.BookingInput
		if err := decodeJSON(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		b, err := svc.UpdateBooking(ctx, bookingID, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func deleteBookingHandler(svc *service.Agency, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/bookings/{bookingId}")
		defer span.End()

		bookingID := chi.URLParam(r, "bookingId")
		if err := svc.DeleteBooking(ctx, bookingID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "booking deleted", ID: bookingID})
	}
}
