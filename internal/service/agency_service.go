package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/observability"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/travel-agency-bfa-go/internal/port"
	"github.com/boddenberg/travel-agency-bfa-go/internal/reconcile"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service/agency")

// snapshot is the canonical agency state. It is replaced as a whole, never
// mutated in place once published.
type snapshot struct {
	clients  []domain.Client
	bookings []domain.Booking
	alerts   []domain.Alert
	config   domain.AgencyConfig
}

func (s snapshot) clone() snapshot {
	return snapshot{
		clients:  slices.Clone(s.clients),
		bookings: slices.Clone(s.bookings),
		alerts:   slices.Clone(s.alerts),
		config:   s.config,
	}
}

// dirty marks the collections a change touched.
type dirty struct {
	clients, bookings, alerts, config bool
}

// Agency owns the agency state. Every mutation is followed by a
// reconciliation pass, and only the collections that changed are persisted.
type Agency struct {
	store    port.StateStore
	notifier port.AlertNotifier
	cache    port.Cache[any]
	metrics  *observability.Metrics
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time
	bulkhead *resilience.Bulkhead

	mu      sync.RWMutex
	state   snapshot
	gen     uint64 // bumped each time a new state is published
	lastRun *domain.AutomationReport
}

// NewAgency creates the agency service with all dependencies injected.
// loc is the zone used to read stored dates and decide what "today" is.
func NewAgency(
	store port.StateStore,
	notifier port.AlertNotifier,
	cache port.Cache[any],
	metrics *observability.Metrics,
	logger *zap.Logger,
	loc *time.Location,
	maxConcurrentReports int,
) *Agency {
	if loc == nil {
		loc = time.UTC
	}
	return &Agency{
		store:    store,
		notifier: notifier,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		loc:      loc,
		now:      time.Now,
		bulkhead: resilience.NewBulkhead(maxConcurrentReports),
		state:    snapshot{config: domain.DefaultAgencyConfig()},
	}
}

// SetClock replaces the time source. Intended for tests.
func (a *Agency) SetClock(now func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.now = now
}

func (a *Agency) today() time.Time {
	return a.now().In(a.loc)
}

func (a *Agency) timestamp() string {
	return a.now().UTC().Format(time.RFC3339)
}

// Load reads the four collections from the store concurrently. When no
// configuration has been saved yet, seed is stored and used.
func (a *Agency) Load(ctx context.Context, seed domain.AgencyConfig) error {
	ctx, span := tracer.Start(ctx, "Agency.Load")
	defer span.End()

	var (
		next                            snapshot
		configFound                     bool
		clientsOK, bookingsOK, alertsOK bool
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		clientsOK, err = a.store.Load(gCtx, port.KeyClients, &next.clients)
		return wrapLoad(port.KeyClients, err)
	})
	g.Go(func() (err error) {
		bookingsOK, err = a.store.Load(gCtx, port.KeyBookings, &next.bookings)
		return wrapLoad(port.KeyBookings, err)
	})
	g.Go(func() (err error) {
		alertsOK, err = a.store.Load(gCtx, port.KeyAlerts, &next.alerts)
		return wrapLoad(port.KeyAlerts, err)
	})
	g.Go(func() (err error) {
		configFound, err = a.store.Load(gCtx, port.KeyConfig, &next.config)
		return wrapLoad(port.KeyConfig, err)
	})
	if err := g.Wait(); err != nil {
		a.metrics.IncrExternalError("store")
		return err
	}

	if next.clients == nil {
		next.clients = []domain.Client{}
	}
	if next.bookings == nil {
		next.bookings = []domain.Booking{}
	}
	if next.alerts == nil {
		next.alerts = []domain.Alert{}
	}
	if !configFound {
		next.config = seed
		if err := a.store.Save(ctx, port.KeyConfig, seed); err != nil {
			a.metrics.IncrExternalError("store")
			return fmt.Errorf("seed config: %w", err)
		}
	}

	a.mu.Lock()
	a.state = next
	a.gen++
	a.mu.Unlock()
	a.cache.Clear()

	span.SetAttributes(
		attribute.Int("clients", len(next.clients)),
		attribute.Int("bookings", len(next.bookings)),
		attribute.Int("alerts", len(next.alerts)),
	)
	a.logger.Info("agency state loaded",
		zap.Int("clients", len(next.clients)),
		zap.Int("bookings", len(next.bookings)),
		zap.Int("alerts", len(next.alerts)),
		zap.Bool("stored_clients", clientsOK),
		zap.Bool("stored_bookings", bookingsOK),
		zap.Bool("stored_alerts", alertsOK),
		zap.Bool("seeded_config", !configFound),
	)
	return nil
}

func wrapLoad(key string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	return nil
}

// apply runs mutate on a copy of the state, reconciles the result, persists
// what changed and publishes the new snapshot. Nothing is published if
// mutate or persistence fails. New alerts are sent after the lock is released.
func (a *Agency) apply(ctx context.Context, mutate func(*snapshot) (dirty, error)) (reconcile.Result, error) {
	a.mu.Lock()

	next := a.state.clone()
	d, err := mutate(&next)
	if err != nil {
		a.mu.Unlock()
		return reconcile.Result{}, err
	}

	res := reconcile.Reconcile(reconcile.Input{
		Clients:  next.clients,
		Bookings: next.bookings,
		Alerts:   next.alerts,
		Config:   next.config,
		Today:    a.today(),
	})
	next.clients, next.bookings, next.alerts = res.Clients, res.Bookings, res.Alerts
	d.clients = d.clients || res.ClientsChanged
	d.bookings = d.bookings || res.BookingsChanged
	d.alerts = d.alerts || res.AlertsChanged

	if err := a.persist(ctx, next, d); err != nil {
		a.mu.Unlock()
		return reconcile.Result{}, err
	}

	a.state = next
	a.gen++
	a.mu.Unlock()
	a.cache.Clear()

	a.metrics.RecordAlerts(res.NewAlerts)
	a.metrics.RecordIssues(res.Issues)
	for _, is := range res.Issues {
		a.logger.Warn("malformed record skipped",
			zap.String("collection", is.Collection),
			zap.String("id", is.ID),
			zap.String("field", is.Field),
			zap.String("value", is.Value),
		)
	}
	a.notify(ctx, res.NewAlerts)
	return res, nil
}

// persist saves the dirty collections of s concurrently.
func (a *Agency) persist(ctx context.Context, s snapshot, d dirty) error {
	ctx, span := tracer.Start(ctx, "Agency.persist")
	defer span.End()

	g, gCtx := errgroup.WithContext(ctx)
	save := func(key string, v any) {
		g.Go(func() error {
			if err := a.store.Save(gCtx, key, v); err != nil {
				a.logger.Error("failed to persist collection", zap.String("key", key), zap.Error(err))
				return fmt.Errorf("save %s: %w", key, err)
			}
			return nil
		})
	}
	if d.clients {
		save(port.KeyClients, s.clients)
	}
	if d.bookings {
		save(port.KeyBookings, s.bookings)
	}
	if d.alerts {
		save(port.KeyAlerts, s.alerts)
	}
	if d.config {
		save(port.KeyConfig, s.config)
	}
	if err := g.Wait(); err != nil {
		a.metrics.IncrExternalError("store")
		return err
	}
	return nil
}

func (a *Agency) notify(ctx context.Context, alerts []domain.Alert) {
	if len(alerts) == 0 || a.notifier == nil {
		return
	}
	if err := a.notifier.Notify(ctx, alerts); err != nil {
		a.metrics.IncrExternalError("notifier")
		a.logger.Warn("alert notification failed", zap.Int("alerts", len(alerts)), zap.Error(err))
	}
}

// read runs fn with the current snapshot under the read lock.
func (a *Agency) read(fn func(s *snapshot)) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	fn(&a.state)
}

func (a *Agency) generation() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.gen
}

// Health reports the status of the state store.
func (a *Agency) Health(ctx context.Context) domain.HealthStatus {
	status := domain.HealthStatus{Status: "healthy"}
	sh := domain.ServiceHealth{Name: "store", Status: "up"}

	if hc, ok := a.store.(port.HealthChecker); ok {
		start := time.Now()
		err := hc.Ping(ctx)
		sh.LatencyMs = time.Since(start).Milliseconds()
		if err != nil {
			sh.Status = "down"
			status.Status = "unhealthy"
			a.logger.Warn("store health check failed", zap.Error(err))
		}
	}
	sh.LastChecked = a.timestamp()
	status.Services = append(status.Services, sh)
	return status
}
