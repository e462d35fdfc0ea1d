package service

import (
	"context"
	"slices"
	"strings"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/report"
	"github.com/boddenberg/travel-agency-bfa-go/internal/rules"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Clients
// ============================================================

// ListClients returns the clients matching f, in stored order.
func (a *Agency) ListClients(ctx context.Context, f domain.ClientFilter) []domain.Client {
	_, span := tracer.Start(ctx, "Agency.ListClients")
	defer span.End()

	var out []domain.Client
	a.read(func(s *snapshot) {
		out = report.FilterClients(s.clients, f)
	})
	span.SetAttributes(attribute.Int("results", len(out)))
	return out
}

func (a *Agency) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	_, span := tracer.Start(ctx, "Agency.GetClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	var (
		c  domain.Client
		ok bool
	)
	a.read(func(s *snapshot) {
		var i int
		if i, ok = indexClient(s.clients, id); ok {
			c = s.clients[i]
		}
	})
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "client", ID: id}
	}
	return &c, nil
}

// CreateClient validates in and adds a new client. Derived fields are filled
// in by the reconciliation that follows.
func (a *Agency) CreateClient(ctx context.Context, in domain.ClientInput) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Agency.CreateClient")
	defer span.End()

	in, err := normalizeClient(in)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err = a.apply(ctx, func(s *snapshot) (dirty, error) {
		if err := checkUniqueTaxID(s.clients, in.TaxID, ""); err != nil {
			return dirty{}, err
		}
		now := a.timestamp()
		s.clients = append(s.clients, domain.Client{
			ID:          id,
			PayerName:   in.PayerName,
			TaxID:       in.TaxID,
			BirthDate:   in.BirthDate,
			Phone:       in.Phone,
			Email:       in.Email,
			Origin:      in.Origin,
			LoyaltyTier: domain.TierBronze,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		return dirty{clients: true}, nil
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("client created", zap.String("client_id", id))
	return a.GetClient(ctx, id)
}

// UpdateClient replaces the writable fields of client id.
func (a *Agency) UpdateClient(ctx context.Context, id string, in domain.ClientInput) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Agency.UpdateClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	in, err := normalizeClient(in)
	if err != nil {
		return nil, err
	}

	_, err = a.apply(ctx, func(s *snapshot) (dirty, error) {
		i, ok := indexClient(s.clients, id)
		if !ok {
			return dirty{}, &domain.ErrNotFound{Resource: "client", ID: id}
		}
		if err := checkUniqueTaxID(s.clients, in.TaxID, id); err != nil {
			return dirty{}, err
		}
		c := &s.clients[i]
		c.PayerName = in.PayerName
		c.TaxID = in.TaxID
		c.BirthDate = in.BirthDate
		c.Phone = in.Phone
		c.Email = in.Email
		c.Origin = in.Origin
		c.UpdatedAt = a.timestamp()
		return dirty{clients: true}, nil
	})
	if err != nil {
		return nil, err
	}
	return a.GetClient(ctx, id)
}

// DeleteClient removes a client without bookings, together with the alerts
// raised about it.
func (a *Agency) DeleteClient(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Agency.DeleteClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	_, err := a.apply(ctx, func(s *snapshot) (dirty, error) {
		i, ok := indexClient(s.clients, id)
		if !ok {
			return dirty{}, &domain.ErrNotFound{Resource: "client", ID: id}
		}
		if slices.ContainsFunc(s.bookings, func(b domain.Booking) bool { return b.ClientID == id }) {
			return dirty{}, &domain.ErrConflict{Message: "client " + id + " still has bookings"}
		}
		s.clients = slices.Delete(s.clients, i, i+1)

		d := dirty{clients: true}
		before := len(s.alerts)
		s.alerts = slices.DeleteFunc(s.alerts, func(al domain.Alert) bool {
			return al.Type == domain.AlertClientInactive && al.ClientID == id
		})
		d.alerts = len(s.alerts) != before
		return d, nil
	})
	if err != nil {
		return err
	}
	a.logger.Info("client deleted", zap.String("client_id", id))
	return nil
}

func indexClient(clients []domain.Client, id string) (int, bool) {
	i := slices.IndexFunc(clients, func(c domain.Client) bool { return c.ID == id })
	return i, i >= 0
}

// normalizeClient trims in and checks the fields that have a format.
// A valid CPF is stored in its punctuated form.
func normalizeClient(in domain.ClientInput) (domain.ClientInput, error) {
	in.PayerName = strings.TrimSpace(in.PayerName)
	in.TaxID = strings.TrimSpace(in.TaxID)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Origin = strings.TrimSpace(in.Origin)
	in.BirthDate = strings.TrimSpace(in.BirthDate)

	if in.PayerName == "" {
		return in, &domain.ErrValidation{Field: "payer_name", Message: "required"}
	}
	if in.TaxID != "" {
		if !rules.ValidCPF(in.TaxID) {
			return in, &domain.ErrValidation{Field: "tax_id", Message: "invalid CPF"}
		}
		in.TaxID = rules.FormatCPF(in.TaxID)
	}
	if in.Email != "" && !rules.ValidEmail(in.Email) {
		return in, &domain.ErrValidation{Field: "email", Message: "invalid e-mail"}
	}
	if in.BirthDate != "" {
		if _, err := rules.ParseDate(in.BirthDate, nil); err != nil {
			return in, &domain.ErrValidation{Field: "birth_date", Message: "invalid date"}
		}
	}
	return in, nil
}

func checkUniqueTaxID(clients []domain.Client, taxID, selfID string) error {
	if taxID == "" {
		return nil
	}
	for _, c := range clients {
		if c.ID != selfID && rules.FormatCPF(c.TaxID) == taxID {
			return &domain.ErrConflict{Message: "a client with tax id " + taxID + " already exists"}
		}
	}
	return nil
}
