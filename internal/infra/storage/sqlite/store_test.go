package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/storage/sqlite"

	"go.uber.org/zap"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "agency.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_LoadMissing(t *testing.T) {
	s := openStore(t)

	var clients []domain.Client
	found, err := s.Load(context.Background(), "clients", &clients)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected nothing stored yet")
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	in := []domain.Client{{ID: "c1", PayerName: "Ana", LoyaltyTier: domain.TierGold, Active: true}}
	if err := s.Save(ctx, "clients", in); err != nil {
		t.Fatalf("save: %v", err)
	}

	var out []domain.Client
	found, err := s.Load(ctx, "clients", &out)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if len(out) != 1 || out[0].ID != "c1" || out[0].LoyaltyTier != domain.TierGold {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_ = s.Save(ctx, "config", domain.AgencyConfig{AgencyName: "first"})
	_ = s.Save(ctx, "config", domain.AgencyConfig{AgencyName: "second"})

	var cfg domain.AgencyConfig
	if _, err := s.Load(ctx, "config", &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AgencyName != "second" {
		t.Errorf("expected last write to win, got %q", cfg.AgencyName)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agency.db")
	ctx := context.Background()

	s, err := sqlite.Open(path, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Save(ctx, "alerts", []domain.Alert{{ID: "a1", Read: true}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.Close()

	s, err = sqlite.Open(path, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	var alerts []domain.Alert
	if found, err := s.Load(ctx, "alerts", &alerts); err != nil || !found {
		t.Fatalf("load after reopen: found=%v err=%v", found, err)
	}
	if len(alerts) != 1 || !alerts[0].Read {
		t.Errorf("unexpected alerts %+v", alerts)
	}
}
