package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/travel-agency-bfa-go/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()
	if cfg.Port == 0 || cfg.StoreBackend == "" {
		t.Fatalf("unexpected zero defaults: %+v", cfg)
	}
	if cfg.AutomationDelay != time.Second && os.Getenv("AUTOMATION_DELAY") == "" {
		t.Errorf("AutomationDelay = %v, want 1s", cfg.AutomationDelay)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("AUTOMATION_INTERVAL", "1h")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001234")
	t.Setenv("MAX_RETRIES", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, ,http://localhost:5173")

	cfg := config.Load()
	if cfg.Port != 9090 || cfg.StoreBackend != config.BackendMemory {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.AutomationInterval != time.Hour {
		t.Errorf("AutomationInterval = %v", cfg.AutomationInterval)
	}
	if cfg.TelegramChatID != -1001234 {
		t.Errorf("TelegramChatID = %d", cfg.TelegramChatID)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://localhost:5173" {
		t.Errorf("CORSOrigins = %q", cfg.CORSOrigins)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.MaxRetries)
	}
}

func TestLocation(t *testing.T) {
	cfg := &config.Config{Timezone: "Not/AZone"}
	loc, err := cfg.Location()
	if err == nil {
		t.Error("expected error for unknown zone")
	}
	if loc != time.UTC {
		t.Errorf("expected UTC fallback, got %v", loc)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "AGENCY_TEST_A=from-file\nAGENCY_TEST_B=\"quoted\"\n# comment\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AGENCY_TEST_A", "from-env")
	os.Unsetenv("AGENCY_TEST_B")
	t.Cleanup(func() { os.Unsetenv("AGENCY_TEST_B") })

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("AGENCY_TEST_A"); got != "from-env" {
		t.Errorf("existing env should win, got %q", got)
	}
	if got := os.Getenv("AGENCY_TEST_B"); got != "quoted" {
		t.Errorf("AGENCY_TEST_B = %q", got)
	}

	if err := config.LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}

func TestLoadAgencyConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := config.LoadAgencyConfig(filepath.Join(dir, "absent.yaml"))
	if err != nil || cfg.InactivityDays != 180 {
		t.Fatalf("expected defaults for missing file, got %+v, %v", cfg, err)
	}

	path := filepath.Join(dir, "agency.yaml")
	yml := `agency_name: Sol Viagens
inactivity_days: 90
monthly_value_target: 50000
suppliers: [CVC, Orinter]
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err = config.LoadAgencyConfig(path)
	if err != nil {
		t.Fatalf("LoadAgencyConfig: %v", err)
	}
	if cfg.AgencyName != "Sol Viagens" || cfg.InactivityDays != 90 || len(cfg.Suppliers) != 2 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.DefaultCommissionPercent != 10 {
		t.Errorf("unset fields should keep defaults, got %v", cfg.DefaultCommissionPercent)
	}
	if cfg.MonthlyValueTarget == nil || *cfg.MonthlyValueTarget != 50000 {
		t.Errorf("monthly target not read: %v", cfg.MonthlyValueTarget)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("inactivity_days: 0\n"), 0o600)
	if _, err := config.LoadAgencyConfig(bad); err == nil {
		t.Error("expected validation error")
	}
}
