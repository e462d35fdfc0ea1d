package service

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/report"
	"github.com/boddenberg/travel-agency-bfa-go/internal/rules"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Bookings
// ============================================================

// ListBookings returns the bookings matching f, in stored order.
func (a *Agency) ListBookings(ctx context.Context, f domain.BookingFilter) []domain.Booking {
	_, span := tracer.Start(ctx, "Agency.ListBookings")
	defer span.End()

	var out []domain.Booking
	a.read(func(s *snapshot) {
		out = report.FilterBookings(s.bookings, s.clients, f, a.loc)
	})
	span.SetAttributes(attribute.Int("results", len(out)))
	return out
}

func (a *Agency) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	_, span := tracer.Start(ctx, "Agency.GetBooking")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", id))

	var (
		b  domain.Booking
		ok bool
	)
	a.read(func(s *snapshot) {
		var i int
		if i, ok = indexBooking(s.bookings, id); ok {
			b = s.bookings[i]
		}
	})
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "booking", ID: id}
	}
	return &b, nil
}

// CreateBooking validates in against the current clients and configuration
// and adds the booking. Check-in label, commission and the client's derived
// fields are settled by the reconciliation that follows.
func (a *Agency) CreateBooking(ctx context.Context, in domain.BookingInput) (*domain.Booking, error) {
	ctx, span := tracer.Start(ctx, "Agency.CreateBooking")
	defer span.End()

	id := uuid.NewString()
	_, err := a.apply(ctx, func(s *snapshot) (dirty, error) {
		b, err := buildBooking(in, s, a.loc)
		if err != nil {
			return dirty{}, err
		}
		now := a.timestamp()
		b.ID, b.CreatedAt, b.UpdatedAt = id, now, now
		s.bookings = append(s.bookings, b)
		return dirty{bookings: true}, nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("booking.id", id))
	a.logger.Info("booking created", zap.String("booking_id", id), zap.String("client_id", in.ClientID))
	return a.GetBooking(ctx, id)
}

// UpdateBooking replaces the writable fields of booking id.
func (a *Agency) UpdateBooking(ctx context.Context, id string, in domain.BookingInput) (*domain.Booking, error) {
	ctx, span := tracer.Start(ctx, "Agency.UpdateBooking")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", id))

	_, err := a.apply(ctx, func(s *snapshot) (dirty, error) {
		i, ok := indexBooking(s.bookings, id)
		if !ok {
			return dirty{}, &domain.ErrNotFound{Resource: "booking", ID: id}
		}
		b, err := buildBooking(in, s, a.loc)
		if err != nil {
			return dirty{}, err
		}
		b.ID, b.CreatedAt, b.UpdatedAt = id, s.bookings[i].CreatedAt, a.timestamp()
		s.bookings[i] = b
		return dirty{bookings: true}, nil
	})
	if err != nil {
		return nil, err
	}
	return a.GetBooking(ctx, id)
}

// DeleteBooking removes a booking and the check-in alerts raised for it.
func (a *Agency) DeleteBooking(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Agency.DeleteBooking")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", id))

	_, err := a.apply(ctx, func(s *snapshot) (dirty, error) {
		i, ok := indexBooking(s.bookings, id)
		if !ok {
			return dirty{}, &domain.ErrNotFound{Resource: "booking", ID: id}
		}
		s.bookings = slices.Delete(s.bookings, i, i+1)

		d := dirty{bookings: true}
		before := len(s.alerts)
		s.alerts = slices.DeleteFunc(s.alerts, func(al domain.Alert) bool { return al.BookingID == id })
		d.alerts = len(s.alerts) != before
		return d, nil
	})
	if err != nil {
		return err
	}
	a.logger.Info("booking deleted", zap.String("booking_id", id))
	return nil
}

func indexBooking(bookings []domain.Booking, id string) (int, bool) {
	i := slices.IndexFunc(bookings, func(b domain.Booking) bool { return b.ID == id })
	return i, i >= 0
}

// buildBooking validates in and turns it into a Booking without identity
// or timestamps.
func buildBooking(in domain.BookingInput, s *snapshot, loc *time.Location) (domain.Booking, error) {
	in.ClientID = strings.TrimSpace(in.ClientID)
	in.Destination = strings.TrimSpace(in.Destination)

	switch {
	case in.ClientID == "":
		return domain.Booking{}, &domain.ErrValidation{Field: "client_id", Message: "required"}
	case in.Destination == "":
		return domain.Booking{}, &domain.ErrValidation{Field: "destination", Message: "required"}
	}
	if _, ok := indexClient(s.clients, in.ClientID); !ok {
		return domain.Booking{}, &domain.ErrValidation{Field: "client_id", Message: "unknown client " + in.ClientID}
	}

	if _, err := rules.ParseDate(in.PurchaseDate, loc); err != nil {
		return domain.Booking{}, &domain.ErrValidation{Field: "purchase_date", Message: "invalid date"}
	}
	checkin, err := rules.ParseDate(in.CheckinDate, loc)
	if err != nil {
		return domain.Booking{}, &domain.ErrValidation{Field: "checkin_date", Message: "invalid date"}
	}
	if in.CheckoutDate != "" {
		checkout, err := rules.ParseDate(in.CheckoutDate, loc)
		if err != nil {
			return domain.Booking{}, &domain.ErrValidation{Field: "checkout_date", Message: "invalid date"}
		}
		if rules.DaysBetween(checkin, checkout) < 0 {
			return domain.Booking{}, &domain.ErrValidation{Field: "checkout_date", Message: "must not be before check-in"}
		}
	}

	if math.IsNaN(in.SaleValue) || math.IsInf(in.SaleValue, 0) || in.SaleValue < 0 {
		return domain.Booking{}, &domain.ErrValidation{Field: "sale_value", Message: "must be zero or positive"}
	}
	percent := s.config.DefaultCommissionPercent
	if in.CommissionPercent != nil {
		percent = *in.CommissionPercent
	}
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return domain.Booking{}, &domain.ErrValidation{Field: "commission_percent", Message: "must be between 0 and 100"}
	}
	if in.ManualCommission != nil && (math.IsNaN(*in.ManualCommission) || *in.ManualCommission < 0) {
		return domain.Booking{}, &domain.ErrValidation{Field: "manual_commission", Message: "must be zero or positive"}
	}

	status := in.Status
	if status == "" {
		status = domain.StatusConfirmed
	}
	if !status.Valid() {
		return domain.Booking{}, &domain.ErrValidation{Field: "status", Message: "unknown status " + string(status)}
	}

	companions := in.Companions
	if companions == nil {
		companions = []string{}
	}

	return domain.Booking{
		ClientID:             in.ClientID,
		Companions:           companions,
		PurchaseDate:         strings.TrimSpace(in.PurchaseDate),
		Supplier:             strings.TrimSpace(in.Supplier),
		ReservationCode:      strings.TrimSpace(in.ReservationCode),
		Service:              strings.TrimSpace(in.Service),
		CheckinDate:          strings.TrimSpace(in.CheckinDate),
		CheckoutDate:         strings.TrimSpace(in.CheckoutDate),
		Airline:              strings.TrimSpace(in.Airline),
		FlightCode:           strings.TrimSpace(in.FlightCode),
		Destination:          in.Destination,
		Hotel:                strings.TrimSpace(in.Hotel),
		PaymentMethod:        strings.TrimSpace(in.PaymentMethod),
		SaleValue:            in.SaleValue,
		CommissionPercent:    percent,
		CalculatedCommission: rules.Commission(in.SaleValue, percent),
		ManualCommission:     in.ManualCommission,
		Notes:                in.Notes,
		Status:               status,
		Attachments:          in.Attachments,
		ExternalRef:          strings.TrimSpace(in.ExternalRef),
	}, nil
}
