// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the concrete store, cache and notifier implementations.
package port

import (
	"context"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
)

// Collection keys used with StateStore.
const (
	KeyClients  = "clients"
	KeyBookings = "bookings"
	KeyAlerts   = "alerts"
	KeyConfig   = "config"
)

// StateStore persists whole collections under a logical key.
// Implemented by the SQLite, Supabase and in-memory adapters.
type StateStore interface {
	// Load decodes the value stored under key into dst.
	// found is false when nothing has been stored yet; dst is left untouched.
	Load(ctx context.Context, key string, dst any) (found bool, err error)
	// Save replaces the value stored under key. Last write wins.
	Save(ctx context.Context, key string, value any) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Clear()
}

// AlertNotifier pushes newly created alerts to the agency.
type AlertNotifier interface {
	Notify(ctx context.Context, alerts []domain.Alert) error
}

// HealthChecker is implemented by adapters that can report their own status.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
