// Package supabase provides a StateStore backed by Supabase (PostgREST).
// Collections live in one table:
//
//	create table agency_state (
//	  key        text primary key,
//	  value      jsonb not null,
//	  updated_at timestamptz not null default now()
//	);
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/travel-agency-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

const table = "agency_state"

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
}

// stateRow maps agency_state columns.
type stateRow struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

// Load fetches the document stored under key (implements port.StateStore).
func (c *Client) Load(ctx context.Context, key string, dst any) (bool, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Load")
	defer span.End()
	span.SetAttributes(attribute.String("collection", key))

	var raw json.RawMessage
	err := resilience.Call(ctx, c.cb, c.cfg, "supabase/"+table, func() error {
		path := fmt.Sprintf("%s?key=eq.%s&select=key,value&limit=1", table, url.QueryEscape(key))
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil {
			raw = nil
			return nil
		}

		var rows []stateRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return resilience.Permanent(fmt.Errorf("failed to decode %s row: %w", key, err))
		}
		raw = nil
		if len(rows) > 0 {
			raw = rows[0].Value
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save upserts the document stored under key (implements port.StateStore).
func (c *Client) Save(ctx context.Context, key string, value any) error {
	ctx, span := tracer.Start(ctx, "Supabase.Save")
	defer span.End()
	span.SetAttributes(attribute.String("collection", key))

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	row := stateRow{Key: key, Value: raw, UpdatedAt: time.Now().UTC().Format(time.RFC3339)}

	return resilience.Call(ctx, c.cb, c.cfg, "supabase/"+table, func() error {
		return c.doUpsert(ctx, table, row)
	})
}

// Ping checks that the table is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	_, err := c.doRequest(ctx, http.MethodGet, table+"?select=key&limit=1")
	return err
}
