package domain

// ============================================================
// Health & generic API responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// AutomationMetrics is a cumulative view of reconciliation activity since start.
type AutomationMetrics struct {
	Runs          int64   `json:"runs"`
	FailedRuns    int64   `json:"failed_runs"`
	ErrorRate     float64 `json:"error_rate"`
	AlertsCreated int64   `json:"alerts_created"`
	RecordIssues  int64   `json:"record_issues"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
	Period        string  `json:"period"`
}
