package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventIndexBuild EventType = "index_build"
)

// SearchEvent describes one answered OR query.
type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Keywords  []string  `json:"keywords"`
	Returned  int       `json:"returned"`
	Found     bool      `json:"found"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// IndexBuildEvent describes one completed or failed index build.
type IndexBuildEvent struct {
	Type       EventType `json:"type"`
	Documents  int       `json:"documents"`
	Keywords   int       `json:"keywords"`
	NoiseWords int       `json:"noise_words"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type envelope struct {
	Type EventType `json:"type"`
}
