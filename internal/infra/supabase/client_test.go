package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/supabase"

	"go.uber.org/zap"
)

// fakePostgREST is a tiny agency_state table served over HTTP.
type fakePostgREST struct {
	mu    sync.Mutex
	rows  map[string]json.RawMessage
	calls int
	fail  int // number of upcoming requests answered with 503
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if r.Header.Get("apikey") != "anon" || r.Header.Get("Authorization") != "Bearer service" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if f.fail > 0 {
		f.fail--
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if r.URL.Path != "/rest/v1/agency_state" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		key := strings.TrimPrefix(r.URL.Query().Get("key"), "eq.")
		v, ok := f.rows[key]
		if !ok {
			w.Write([]byte("[]"))
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{{"key": key, "value": v}})
	case http.MethodPost:
		if !strings.Contains(r.Header.Get("Prefer"), "resolution=merge-duplicates") {
			w.WriteHeader(http.StatusConflict)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var row struct {
			Key   string          `json:"key"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(body, &row); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.rows[row.Key] = row.Value
		w.WriteHeader(http.StatusCreated)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newClient(t *testing.T, fake *fakePostgREST, name string) *supabase.Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return supabase.NewClient(
		srv.Client(), srv.URL, "anon", "service",
		resilience.NewCircuitBreaker(name),
		resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond},
		zap.NewNop(),
	)
}

func TestClient_LoadMissing(t *testing.T) {
	c := newClient(t, &fakePostgREST{rows: map[string]json.RawMessage{}}, "sb-missing")

	var clients []domain.Client
	found, err := c.Load(context.Background(), "clients", &clients)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected not found")
	}
}

func TestClient_SaveAndLoad(t *testing.T) {
	c := newClient(t, &fakePostgREST{rows: map[string]json.RawMessage{}}, "sb-roundtrip")
	ctx := context.Background()

	in := []domain.Booking{{ID: "b1", ClientID: "c1", SaleValue: 1000, Status: domain.StatusConfirmed}}
	if err := c.Save(ctx, "bookings", in); err != nil {
		t.Fatalf("save: %v", err)
	}

	var out []domain.Booking
	found, err := c.Load(ctx, "bookings", &out)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if len(out) != 1 || out[0].SaleValue != 1000 {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestClient_RetriesTransientErrors(t *testing.T) {
	fake := &fakePostgREST{rows: map[string]json.RawMessage{}, fail: 2}
	c := newClient(t, fake, "sb-retry")

	if err := c.Save(context.Background(), "alerts", []domain.Alert{}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if fake.calls != 3 {
		t.Errorf("expected 3 calls, got %d", fake.calls)
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	fake := &fakePostgREST{rows: map[string]json.RawMessage{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	c := supabase.NewClient(srv.Client(), srv.URL, "wrong", "service",
		resilience.NewCircuitBreaker("sb-401"),
		resilience.Config{MaxRetries: 3, InitialBackoff: time.Millisecond},
		zap.NewNop(),
	)

	var cfg domain.AgencyConfig
	_, err := c.Load(context.Background(), "config", &cfg)

	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("expected a single call, got %d", fake.calls)
	}
}
