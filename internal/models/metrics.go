package models

import "time"

// SystemMetrics is a lightweight aggregate snapshot for the admin dashboard,
// cheaper than scraping the Prometheus endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CredentialsIssued        uint64    `json:"credentials_issued"`
	AllocationRetries        uint64    `json:"allocation_retries"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
