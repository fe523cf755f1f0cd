package models

import "time"

// SystemMetrics is the JSON summary served to staff next to the Prometheus endpoint.
type SystemMetrics struct {
	Requests       TimedCount        `json:"requests"`
	PersistWrites  TimedCount        `json:"persist_writes"`
	DiscoveryCache CacheCounts       `json:"discovery_cache"`
	Operations     map[string]uint64 `json:"operations"`
	Goroutines     int               `json:"goroutines"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// TimedCount is a count with its mean duration.
type TimedCount struct {
	Total     uint64  `json:"total"`
	AverageMs float64 `json:"average_ms"`
}

// CacheCounts summarises discovery cache lookups.
type CacheCounts struct {
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
}
