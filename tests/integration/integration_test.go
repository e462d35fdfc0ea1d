package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/handler"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/cache"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/notify"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/observability"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/storage/sqlite"
	"github.com/boddenberg/travel-agency-bfa-go/internal/port"
	"github.com/boddenberg/travel-agency-bfa-go/internal/service"

	"go.uber.org/zap"
)

// fakeBotAPI records the messages sent through the Telegram Bot API.
type fakeBotAPI struct {
	mu    sync.Mutex
	texts []string
}

func (b *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var params map[string]any
	_ = json.NewDecoder(r.Body).Decode(&params)
	text, _ := params["text"].(string)

	b.mu.Lock()
	b.texts = append(b.texts, text)
	b.mu.Unlock()

	w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":7,"type":"private"},"text":"ok"}}`))
}

func (b *fakeBotAPI) messages() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.texts...)
}

type app struct {
	server *httptest.Server
	svc    *service.Agency
}

func startApp(t *testing.T, store port.StateStore, notifier port.AlertNotifier, now time.Time) *app {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	c := cache.New[any](time.Minute)
	t.Cleanup(c.Close)

	svc := service.NewAgency(store, notifier, c, metrics, logger, time.UTC, 4)
	svc.SetClock(func() time.Time { return now })
	if err := svc.Load(context.Background(), domain.DefaultAgencyConfig()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	srv := httptest.NewServer(handler.NewRouter(svc, metrics, nil, logger))
	t.Cleanup(srv.Close)
	return &app{server: srv, svc: svc}
}

func (a *app) call(t *testing.T, method, path string, body any, dst any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// TestIntegration_FullFlow drives the HTTP API over a SQLite store with a fake
// Telegram Bot API, then restarts the service on the same database.
func TestIntegration_FullFlow(t *testing.T) {
	bot := &fakeBotAPI{}
	botServer := httptest.NewServer(bot)
	defer botServer.Close()

	tg, err := notify.NewTelegram(notify.TelegramConfig{
		Token:      "integration-token",
		ChatID:     7,
		APIURL:     botServer.URL,
		HTTPClient: botServer.Client(),
	}, resilience.NewCircuitBreaker("telegram-it"), resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(t.TempDir(), "agency.db")
	store, err := sqlite.Open(dbPath, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	day1 := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
	a := startApp(t, store, tg, day1)

	// --- Clients ---
	var ana, bruno domain.Client
	if code := a.call(t, http.MethodPost, "/v1/clients", domain.ClientInput{PayerName: "Ana Souza", TaxID: "52998224725", Origin: "Instagram"}, &ana); code != http.StatusCreated {
		t.Fatalf("create ana: %d", code)
	}
	if code := a.call(t, http.MethodPost, "/v1/clients", domain.ClientInput{PayerName: "Bruno Lima", Origin: "Google"}, &bruno); code != http.StatusCreated {
		t.Fatalf("create bruno: %d", code)
	}

	// --- Bookings ---
	manual := 250.0
	bookings := []domain.BookingInput{
		{ClientID: ana.ID, PurchaseDate: "2024-06-01", CheckinDate: "2024-06-11", Destination: "Lisboa", Supplier: "CVC", PaymentMethod: "Pix", SaleValue: 5000},
		{ClientID: ana.ID, PurchaseDate: "2024-05-20", CheckinDate: "2024-07-30", Destination: "Recife", Supplier: "Decolar", PaymentMethod: "Card", SaleValue: 2500, ManualCommission: &manual},
		{ClientID: bruno.ID, PurchaseDate: "2024-06-05", CheckinDate: "2024-06-14", Destination: "Roma", Supplier: "CVC", PaymentMethod: "Pix", SaleValue: 800, Companions: []string{"Carla"}},
	}
	for i, in := range bookings {
		if code := a.call(t, http.MethodPost, "/v1/bookings", in, nil); code != http.StatusCreated {
			t.Fatalf("create booking %d: %d", i, code)
		}
	}

	var got domain.Client
	a.call(t, http.MethodGet, "/v1/clients/"+ana.ID, nil, &got)
	if got.PurchaseHistory.Count != 2 || got.PurchaseHistory.TotalValue != 7500 || !got.Active {
		t.Errorf("ana after bookings = %+v", got)
	}

	// Lisboa is tomorrow, Roma in 4 days, Recife outside the alert window.
	var alerts domain.ListResponse[domain.Alert]
	a.call(t, http.MethodGet, "/v1/alerts", nil, &alerts)
	if alerts.Total != 2 {
		t.Fatalf("alerts = %+v", alerts.Data)
	}
	if msgs := bot.messages(); len(msgs) != 2 || !strings.Contains(msgs[0], "Ana Souza - Lisboa") {
		t.Errorf("telegram messages = %q", msgs)
	}

	// --- Reports ---
	var summary domain.ListResponse[domain.Summary]
	a.call(t, http.MethodGet, "/v1/reports/summary?month=6&year=2024", nil, &summary)
	if s := summary.Data[0]; s.NumSales != 2 || s.ValueSold != 5800 || s.TotalCommission != 580 || s.AverageTicket != 2900 {
		t.Errorf("june summary = %+v", s)
	}

	var top domain.ListResponse[domain.ClientProfit]
	a.call(t, http.MethodGet, "/v1/reports/top-clients", nil, &top)
	if top.Total != 2 || top.Data[0].ClientID != ana.ID || top.Data[0].Commission != 750 {
		t.Errorf("top clients = %+v", top.Data)
	}

	var travelers domain.ListResponse[domain.Traveler]
	a.call(t, http.MethodGet, "/v1/reports/travelers?days=7", nil, &travelers)
	if travelers.Total != 2 || travelers.Data[1].Companions != 1 {
		t.Errorf("travelers = %+v", travelers.Data)
	}

	// --- Automation is idempotent on the same day ---
	var rep domain.AutomationReport
	a.call(t, http.MethodPost, "/v1/automation/run", nil, &rep)
	if rep.NewAlerts != 0 || rep.BookingsChanged || rep.ClientsChanged {
		t.Errorf("same-day pass changed state: %+v", rep)
	}
	if len(bot.messages()) != 2 {
		t.Error("same-day pass should not notify again")
	}

	// --- Restart on the next day over the same database ---
	day2 := day1.Add(24 * time.Hour)
	b := startApp(t, store, tg, day2)

	var restored domain.ListResponse[domain.Booking]
	b.call(t, http.MethodGet, "/v1/bookings", nil, &restored)
	if restored.Total != 3 {
		t.Fatalf("bookings after restart = %d", restored.Total)
	}

	b.call(t, http.MethodPost, "/v1/automation/run", nil, &rep)
	if rep.NewAlerts != 1 || !rep.BookingsChanged {
		t.Errorf("next-day pass = %+v", rep)
	}
	var lisboa domain.ListResponse[domain.Booking]
	b.call(t, http.MethodGet, "/v1/bookings?destination=lisboa", nil, &lisboa)
	if lisboa.Total != 1 || lisboa.Data[0].CheckinAlert != "Today" {
		t.Errorf("lisboa after next-day pass = %+v", lisboa.Data)
	}

	// --- CSV export ---
	resp, err := http.Get(fmt.Sprintf("%s/v1/reports/origins?format=csv", b.server.URL))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var csv bytes.Buffer
	csv.ReadFrom(resp.Body)
	if !strings.HasPrefix(csv.String(), "\"origin\",\"count\",\"total_value\",\"percent\"\n\"Instagram\",\"2\",\"7500.00\"") {
		t.Errorf("origins csv = %q", csv.String())
	}
}
