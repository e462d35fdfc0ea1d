package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/cache"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/observability"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/storage/memory"
	"github.com/boddenberg/travel-agency-bfa-go/internal/port"
	"github.com/boddenberg/travel-agency-bfa-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockNotifier struct {
	mu     sync.Mutex
	alerts []domain.Alert
	err    error
}

func (m *mockNotifier) Notify(_ context.Context, alerts []domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alerts...)
	return m.err
}

func (m *mockNotifier) sent() []domain.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Alert(nil), m.alerts...)
}

// interleavingCache runs beforeSet once, right before the next value is
// stored, to land a mutation between a report's read and its cache write.
type interleavingCache struct {
	port.Cache[any]
	beforeSet func()
}

func (c *interleavingCache) Set(key string, value any) {
	if fn := c.beforeSet; fn != nil {
		c.beforeSet = nil
		fn()
	}
	c.Cache.Set(key, value)
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	svc      *service.Agency
	store    *memory.Store
	notifier *mockNotifier
	metrics  *observability.Metrics
	clock    *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := cache.New[any](time.Minute)
	t.Cleanup(c.Close)
	return newFixtureWithCache(t, c)
}

func newFixtureWithCache(t *testing.T, c port.Cache[any]) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.New(),
		notifier: &mockNotifier{},
		metrics:  observability.NewMetrics(),
		clock:    &clock{t: time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)},
	}

	f.svc = service.NewAgency(f.store, f.notifier, c, f.metrics, zap.NewNop(), time.UTC, 2)
	f.svc.SetClock(f.clock.now)
	if err := f.svc.Load(context.Background(), domain.DefaultAgencyConfig()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return f
}

func (f *fixture) client(t *testing.T, name string) *domain.Client {
	t.Helper()
	c, err := f.svc.CreateClient(context.Background(), domain.ClientInput{PayerName: name, Origin: "Instagram"})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	return c
}

func (f *fixture) booking(t *testing.T, clientID, purchase, checkin string, value float64) *domain.Booking {
	t.Helper()
	b, err := f.svc.CreateBooking(context.Background(), domain.BookingInput{
		ClientID:      clientID,
		PurchaseDate:  purchase,
		CheckinDate:   checkin,
		Destination:   "Lisboa",
		Supplier:      "CVC",
		PaymentMethod: "Pix",
		SaleValue:     value,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	return b
}

// --- Tests ---

func TestLoad_SeedsConfigOnce(t *testing.T) {
	f := newFixture(t)
	if got := f.store.Saves(port.KeyConfig); got != 1 {
		t.Fatalf("config saves = %d, want 1", got)
	}

	seed := domain.DefaultAgencyConfig()
	seed.AgencyName = "Other"
	if err := f.svc.Load(context.Background(), seed); err != nil {
		t.Fatal(err)
	}
	if got := f.svc.GetConfig(context.Background()).AgencyName; got == "Other" {
		t.Error("stored config should win over the seed")
	}
	if got := f.store.Saves(port.KeyConfig); got != 1 {
		t.Errorf("config saves = %d, want 1", got)
	}
}

func TestCreateClient_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    domain.ClientInput
		field string
	}{
		{"missing name", domain.ClientInput{PayerName: "  "}, "payer_name"},
		{"bad cpf", domain.ClientInput{PayerName: "Ana", TaxID: "529.982.247-24"}, "tax_id"},
		{"bad email", domain.ClientInput{PayerName: "Ana", Email: "ana@"}, "email"},
		{"bad birth date", domain.ClientInput{PayerName: "Ana", BirthDate: "31/02/1990"}, "birth_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateClient(ctx, tt.in)
			var ve *domain.ErrValidation
			if !errors.As(err, &ve) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
	if n := len(f.svc.ListClients(ctx, domain.ClientFilter{})); n != 0 {
		t.Errorf("no client should have been stored, got %d", n)
	}
}

func TestCreateClient_FormatsAndDeduplicatesCPF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.CreateClient(ctx, domain.ClientInput{PayerName: "Ana Souza", TaxID: "52998224725"})
	if err != nil {
		t.Fatal(err)
	}
	if c.TaxID != "529.982.247-25" {
		t.Errorf("TaxID = %q", c.TaxID)
	}
	if c.LoyaltyTier != domain.TierBronze || c.Active {
		t.Errorf("new client without bookings: tier=%s active=%v", c.LoyaltyTier, c.Active)
	}

	_, err = f.svc.CreateClient(ctx, domain.ClientInput{PayerName: "Other", TaxID: "529.982.247-25"})
	var ce *domain.ErrConflict
	if !errors.As(err, &ce) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// updating a client with its own CPF is fine
	if _, err := f.svc.UpdateClient(ctx, c.ID, domain.ClientInput{PayerName: "Ana S.", TaxID: "52998224725"}); err != nil {
		t.Errorf("UpdateClient: %v", err)
	}
}

func TestCreateBooking_ReconcilesAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.client(t, "Ana Souza")
	b := f.booking(t, c.ID, "2024-06-01", "2024-06-11", 5000)

	if b.CheckinAlert != "Tomorrow" {
		t.Errorf("CheckinAlert = %q", b.CheckinAlert)
	}
	if b.CalculatedCommission != 500 || b.CommissionPercent != 10 {
		t.Errorf("commission = %v at %v%%", b.CalculatedCommission, b.CommissionPercent)
	}
	if b.Status != domain.StatusConfirmed {
		t.Errorf("Status = %q", b.Status)
	}

	got, _ := f.svc.GetClient(ctx, c.ID)
	if !got.Active || got.PurchaseHistory.Count != 1 || got.PurchaseHistory.TotalValue != 5000 {
		t.Errorf("client not reconciled: %+v", got)
	}
	if got.LastPurchaseDate != "2024-06-01" {
		t.Errorf("LastPurchaseDate = %q", got.LastPurchaseDate)
	}

	sent := f.notifier.sent()
	if len(sent) != 1 || sent[0].Type != domain.AlertCheckinTomorrow || sent[0].BookingID != b.ID {
		t.Fatalf("notified = %+v", sent)
	}
	if alerts := f.svc.ListAlerts(ctx, false); len(alerts) != 1 {
		t.Errorf("stored alerts = %d", len(alerts))
	}
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "Ana")
	neg := -1.0
	over := 120.0

	base := func() domain.BookingInput {
		return domain.BookingInput{ClientID: c.ID, PurchaseDate: "2024-06-01", CheckinDate: "2024-07-01", Destination: "Natal", SaleValue: 100}
	}
	tests := []struct {
		name   string
		mutate func(*domain.BookingInput)
		field  string
	}{
		{"unknown client", func(in *domain.BookingInput) { in.ClientID = "nope" }, "client_id"},
		{"missing destination", func(in *domain.BookingInput) { in.Destination = "" }, "destination"},
		{"bad purchase date", func(in *domain.BookingInput) { in.PurchaseDate = "yesterday" }, "purchase_date"},
		{"bad checkin date", func(in *domain.BookingInput) { in.CheckinDate = "" }, "checkin_date"},
		{"checkout before checkin", func(in *domain.BookingInput) { in.CheckoutDate = "2024-06-30" }, "checkout_date"},
		{"negative sale", func(in *domain.BookingInput) { in.SaleValue = -5 }, "sale_value"},
		{"percent over 100", func(in *domain.BookingInput) { in.CommissionPercent = &over }, "commission_percent"},
		{"negative manual", func(in *domain.BookingInput) { in.ManualCommission = &neg }, "manual_commission"},
		{"unknown status", func(in *domain.BookingInput) { in.Status = "Lost" }, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			tt.mutate(&in)
			_, err := f.svc.CreateBooking(context.Background(), in)
			var ve *domain.ErrValidation
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("expected ErrValidation on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestRunAutomation_PersistsOnlyChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana")
	f.booking(t, c.ID, "2024-06-01", "2024-06-11", 5000)

	clients, bookings, alerts := f.store.Saves(port.KeyClients), f.store.Saves(port.KeyBookings), f.store.Saves(port.KeyAlerts)

	rep, err := f.svc.RunAutomation(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.NewAlerts != 0 || rep.BookingsChanged || rep.ClientsChanged {
		t.Errorf("second pass on the same day changed state: %+v", rep)
	}
	if f.store.Saves(port.KeyClients) != clients || f.store.Saves(port.KeyBookings) != bookings || f.store.Saves(port.KeyAlerts) != alerts {
		t.Error("unchanged collections were written")
	}

	f.clock.advance(24 * time.Hour)
	rep, err = f.svc.RunAutomation(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.NewAlerts != 1 || !rep.BookingsChanged || rep.ClientsChanged {
		t.Errorf("next day report = %+v", rep)
	}
	if f.store.Saves(port.KeyBookings) != bookings+1 || f.store.Saves(port.KeyAlerts) != alerts+1 {
		t.Error("changed collections should be written once")
	}
	if f.store.Saves(port.KeyClients) != clients {
		t.Error("clients did not change and should not be written")
	}
	if last := f.svc.LastRun(); last == nil || last.NewAlerts != 1 {
		t.Errorf("LastRun = %+v", last)
	}

	snap := f.metrics.AutomationSnapshot()
	if snap.Runs != 2 || snap.FailedRuns != 0 {
		t.Errorf("metrics = %+v", snap)
	}
}

func TestApply_StoreFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.FailSaves(errors.New("disk full"))
	if _, err := f.svc.CreateClient(ctx, domain.ClientInput{PayerName: "Ana"}); err == nil {
		t.Fatal("expected persistence error")
	}
	if n := len(f.svc.ListClients(ctx, domain.ClientFilter{})); n != 0 {
		t.Fatalf("state should not change when saving fails, got %d clients", n)
	}
	if _, err := f.svc.RunAutomation(ctx); err != nil {
		t.Errorf("a pass with nothing to write should not touch the store: %v", err)
	}

	f.store.FailSaves(nil)
	f.client(t, "Ana")
	if n := len(f.svc.ListClients(ctx, domain.ClientFilter{})); n != 1 {
		t.Errorf("clients = %d, want 1", n)
	}
}

func TestNotifierFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("telegram down")

	c := f.client(t, "Ana")
	f.booking(t, c.ID, "2024-06-01", "2024-06-10", 1000)
	if n := len(f.svc.ListAlerts(context.Background(), false)); n != 1 {
		t.Errorf("alerts = %d, want 1", n)
	}
}

func TestAlerts_MarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana")
	f.booking(t, c.ID, "2024-06-01", "2024-06-10", 1000)
	f.booking(t, c.ID, "2024-06-01", "2024-06-12", 1000)

	alerts := f.svc.ListAlerts(ctx, true)
	if len(alerts) != 2 {
		t.Fatalf("unread = %d, want 2", len(alerts))
	}
	if err := f.svc.MarkAlertRead(ctx, alerts[0].ID); err != nil {
		t.Fatal(err)
	}
	if n := len(f.svc.ListAlerts(ctx, true)); n != 1 {
		t.Errorf("unread after one read = %d", n)
	}

	var nf *domain.ErrNotFound
	if err := f.svc.MarkAlertRead(ctx, "missing"); !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	n, err := f.svc.MarkAllAlertsRead(ctx)
	if err != nil || n != 1 {
		t.Errorf("MarkAllAlertsRead = %d, %v", n, err)
	}

	// read alerts are kept and not raised again
	if rep, _ := f.svc.RunAutomation(ctx); rep.NewAlerts != 0 {
		t.Errorf("read alerts were regenerated: %+v", rep)
	}
	if n := len(f.svc.ListAlerts(ctx, false)); n != 2 {
		t.Errorf("alerts = %d, want 2", n)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana")
	b := f.booking(t, c.ID, "2024-06-01", "2024-06-10", 1000)

	var ce *domain.ErrConflict
	if err := f.svc.DeleteClient(ctx, c.ID); !errors.As(err, &ce) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := f.svc.DeleteBooking(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := f.svc.GetClient(ctx, c.ID)
	if got.PurchaseHistory.Count != 0 || got.Active {
		t.Errorf("client not reconciled after delete: %+v", got)
	}
	// losing the only booking makes the client inactive
	alerts := f.svc.ListAlerts(ctx, false)
	if len(alerts) != 1 || alerts[0].Type != domain.AlertClientInactive {
		t.Errorf("alerts after booking delete = %+v", alerts)
	}

	if err := f.svc.DeleteClient(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if n := len(f.svc.ListAlerts(ctx, false)); n != 0 {
		t.Errorf("alerts about deleted client kept: %d", n)
	}
	var nf *domain.ErrNotFound
	if _, err := f.svc.GetClient(ctx, c.ID); !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := f.svc.DeleteBooking(ctx, b.ID); !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateBooking_KeepsCreatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana")
	b := f.booking(t, c.ID, "2024-06-01", "2024-07-20", 1000)

	f.clock.advance(time.Hour)
	pct := 15.0
	up, err := f.svc.UpdateBooking(ctx, b.ID, domain.BookingInput{
		ClientID: c.ID, PurchaseDate: "2024-06-01", CheckinDate: "2024-07-20",
		Destination: "Porto", SaleValue: 2000, CommissionPercent: &pct, Status: domain.StatusCompleted,
	})
	if err != nil {
		t.Fatal(err)
	}
	if up.CreatedAt != b.CreatedAt || up.UpdatedAt == b.UpdatedAt {
		t.Errorf("timestamps: created %s -> %s, updated %s -> %s", b.CreatedAt, up.CreatedAt, b.UpdatedAt, up.UpdatedAt)
	}
	if up.CalculatedCommission != 300 || up.Destination != "Porto" {
		t.Errorf("updated booking = %+v", up)
	}
}

func TestUpdateConfig(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana")
	f.booking(t, c.ID, "2024-05-01", "2024-09-01", 1000)

	cfg := f.svc.GetConfig(ctx)
	cfg.InactivityDays = 0
	var ve *domain.ErrValidation
	if _, err := f.svc.UpdateConfig(ctx, cfg); !errors.As(err, &ve) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	cfg.InactivityDays = 30
	if _, err := f.svc.UpdateConfig(ctx, cfg); err != nil {
		t.Fatal(err)
	}
	got, _ := f.svc.GetClient(ctx, c.ID)
	if got.Active {
		t.Error("client should be inactive under the shorter threshold")
	}
	alerts := f.svc.ListAlerts(ctx, false)
	if len(alerts) != 1 || alerts[0].Type != domain.AlertClientInactive {
		t.Errorf("alerts = %+v", alerts)
	}
}

func TestReports_Cached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Ana")
	f.booking(t, c.ID, "2024-06-01", "2024-06-11", 5000)

	d1, err := f.svc.Dashboard(ctx, 30)
	if err != nil {
		t.Fatal(err)
	}
	if d1.NumSales != 1 || d1.ValueSold != 5000 || d1.CheckinsTomorrow != 1 {
		t.Errorf("dashboard = %+v", d1)
	}
	if _, err := f.svc.Dashboard(ctx, 30); err != nil {
		t.Fatal(err)
	}
	if rate := f.metrics.AutomationSnapshot().CacheHitRate; rate != 0.5 {
		t.Errorf("cache hit rate = %v, want 0.5", rate)
	}

	// a mutation invalidates cached reports
	f.booking(t, c.ID, "2024-06-02", "2024-08-01", 1000)
	d2, _ := f.svc.Dashboard(ctx, 30)
	if d2.NumSales != 2 {
		t.Errorf("dashboard after mutation = %+v", d2)
	}

	var ve *domain.ErrValidation
	if _, err := f.svc.Dashboard(ctx, 0); !errors.As(err, &ve) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, err := f.svc.MonthlySummary(ctx, 13, 2024); !errors.As(err, &ve) {
		t.Errorf("expected ErrValidation, got %v", err)
	}

	s, err := f.svc.MonthlySummary(ctx, 6, 2024)
	if err != nil || s.NumSales != 2 || s.ValueSold != 6000 {
		t.Errorf("summary = %+v, %v", s, err)
	}
	g, err := f.svc.GoalProgress(ctx, 0, 0)
	if err != nil || g.Month != 6 || g.Year != 2024 {
		t.Errorf("goals = %+v, %v", g, err)
	}
	trav, err := f.svc.UpcomingTravelers(ctx, 30)
	if err != nil || len(trav) != 1 {
		t.Errorf("travelers = %+v, %v", trav, err)
	}
}

func TestReports_MutationDuringComputeIsNotCached(t *testing.T) {
	inner := cache.New[any](time.Minute)
	t.Cleanup(inner.Close)
	c := &interleavingCache{Cache: inner}
	f := newFixtureWithCache(t, c)
	ctx := context.Background()
	cl := f.client(t, "Ana")

	c.beforeSet = func() { f.booking(t, cl.ID, "2024-06-01", "2024-08-01", 1000) }
	before, err := f.svc.SupplierROI(ctx)
	if err != nil || len(before) != 0 {
		t.Fatalf("report computed before the booking = %+v, %v", before, err)
	}

	after, err := f.svc.SupplierROI(ctx)
	if err != nil || len(after) != 1 || after[0].Supplier != "CVC" {
		t.Errorf("report after the booking = %+v, %v", after, err)
	}
}

func TestReports_UseAgencyTimezone(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	c := cache.New[any](time.Minute)
	t.Cleanup(c.Close)
	svc := service.NewAgency(memory.New(), &mockNotifier{}, c, observability.NewMetrics(), zap.NewNop(), brt, 2)
	svc.SetClock(func() time.Time { return time.Date(2024, time.June, 30, 23, 0, 0, 0, brt) })
	ctx := context.Background()
	if err := svc.Load(ctx, domain.DefaultAgencyConfig()); err != nil {
		t.Fatal(err)
	}

	cl, err := svc.CreateClient(ctx, domain.ClientInput{PayerName: "Ana"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.CreateBooking(ctx, domain.BookingInput{
		ClientID:     cl.ID,
		PurchaseDate: "2024-06-30T22:00:00-03:00",
		CheckinDate:  "2024-08-01",
		Destination:  "Lisboa",
		SaleValue:    1000,
	})
	if err != nil {
		t.Fatal(err)
	}

	if s, _ := svc.MonthlySummary(ctx, 6, 2024); s.NumSales != 1 || s.ValueSold != 1000 {
		t.Errorf("June summary = %+v", s)
	}
	if s, _ := svc.MonthlySummary(ctx, 7, 2024); s.NumSales != 0 {
		t.Errorf("July summary = %+v", s)
	}
	if g, _ := svc.GoalProgress(ctx, 0, 0); g.Month != 6 || g.ValueActual != 1000 {
		t.Errorf("current goal progress = %+v", g)
	}
	if got := svc.ListBookings(ctx, domain.BookingFilter{From: "2024-06-30", To: "2024-06-30"}); len(got) != 1 {
		t.Errorf("bookings purchased on 30 June = %d, want 1", len(got))
	}
}

func TestRunScheduler(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.svc.RunScheduler(ctx, 0, time.Hour)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for f.svc.LastRun() == nil {
		if time.Now().After(deadline) {
			t.Fatal("scheduler did not run a pass")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	h := f.svc.Health(context.Background())
	if h.Status != "healthy" || len(h.Services) != 1 || h.Services[0].Status != "up" {
		t.Errorf("health = %+v", h)
	}
}
