package port

import (
	"context"
	"time"
)

// SearchRecord is one completed search for the analytics sink.
type SearchRecord struct {
	RequestID    string
	Query        string
	IndexName    string
	VariantCount int
	HitCount     int64
	FallbackUsed bool
	CacheHit     bool
	Latency      time.Duration
	At           time.Time
}

// AnalyticsRecorder persists search records. Implementations are
// fire-and-forget: failures must never affect the request path.
type AnalyticsRecorder interface {
	Record(ctx context.Context, rec SearchRecord) error
	Close()
}
