package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/boddenberg/travel-agency-bfa-go/internal/config"
	"github.com/boddenberg/travel-agency-bfa-go/internal/handler"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/cache"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/notify"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/observability"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/storage/memory"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/storage/sqlite"
	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/travel-agency-bfa-go/internal/port"
	"github.com/boddenberg/travel-agency-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	dotenvErr := config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if dotenvErr != nil {
		logger.Warn("could not read .env file", zap.Error(dotenvErr))
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("unknown timezone, using UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("timezone", loc.String()),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("automation_delay", cfg.AutomationDelay),
		zap.Duration("automation_interval", cfg.AutomationInterval),
		zap.Bool("telegram", cfg.TelegramBotToken != ""),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "travel-agency-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	reportCache := cache.New[any](cfg.CacheTTL)
	defer reportCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	// --- Store ---
	var store port.StateStore
	switch cfg.StoreBackend {
	case config.BackendSupabase:
		if cfg.SupabaseURL == "" {
			logger.Fatal("STORE_BACKEND=supabase requires SUPABASE_URL")
		}
		logger.Info("using Supabase as state store", zap.String("supabase_url", cfg.SupabaseURL))
		store = supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			resilienceCfg,
			logger,
		)
	case config.BackendMemory:
		logger.Warn("using in-memory state store, data is lost on restart")
		store = memory.New()
	default:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				logger.Fatal("failed to create sqlite directory", zap.String("dir", dir), zap.Error(err))
			}
		}
		db, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			logger.Fatal("failed to open sqlite store", zap.String("path", cfg.SQLitePath), zap.Error(err))
		}
		defer db.Close()
		logger.Info("using SQLite as state store", zap.String("path", cfg.SQLitePath))
		store = db
	}

	// --- Notifier ---
	var notifier port.AlertNotifier = notify.NewLog(logger)
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(notify.TelegramConfig{
			Token:      cfg.TelegramBotToken,
			ChatID:     cfg.TelegramChatID,
			HTTPClient: httpClient,
		}, resilience.NewCircuitBreaker("telegram"), resilienceCfg, logger)
		if err != nil {
			logger.Fatal("failed to init telegram notifier", zap.Error(err))
		}
		notifier = tg
		logger.Info("alerts will be sent to Telegram", zap.Int64("chat_id", cfg.TelegramChatID))
	} else {
		logger.Info("Telegram not configured, alerts are only logged")
	}

	// --- Services ---
	seed, err := config.LoadAgencyConfig(cfg.AgencyConfigPath)
	if err != nil {
		logger.Fatal("invalid agency config file", zap.String("path", cfg.AgencyConfigPath), zap.Error(err))
	}

	agencySvc := service.NewAgency(store, notifier, reportCache, metrics, logger, loc, cfg.MaxConcurrency)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	err = agencySvc.Load(loadCtx, seed)
	cancelLoad()
	if err != nil {
		logger.Fatal("failed to load agency state", zap.Error(err))
	}

	// --- Automation ---
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		agencySvc.RunScheduler(schedCtx, cfg.AutomationDelay, cfg.AutomationInterval)
	}()

	// --- Router ---
	router := handler.NewRouter(agencySvc, metrics, cfg.CORSOrigins, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	stopScheduler()
	<-schedDone

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
