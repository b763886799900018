package querylog

import (
	"context"
	"errors"
	"time"
)

// Status classifies how a DNS query ended.
type Status string

const (
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// NormalizeStatus validates and normalizes a status string. An empty status
// defaults to complete.
func NormalizeStatus(value string) (Status, bool) {
	if value == "" {
		return StatusComplete, true
	}
	switch Status(value) {
	case StatusComplete, StatusFailed, StatusCanceled:
		return Status(value), true
	default:
		return "", false
	}
}

// Query is one resolved DNS query as reported by a resolver.
type Query struct {
	Server  string
	TS      time.Time
	Latency time.Duration
	Status  Status
}

// Validate checks the minimal fields a query record needs.
func (q Query) Validate() error {
	if q.TS.IsZero() {
		return errors.New("querylog: zero timestamp")
	}
	if q.Latency < 0 {
		return errors.New("querylog: negative latency")
	}
	if _, ok := NormalizeStatus(string(q.Status)); !ok {
		return errors.New("querylog: invalid status")
	}
	return nil
}

// QueryRepository persists query records.
type QueryRepository interface {
	InsertQueries(ctx context.Context, queries []Query) error
}

// Recorder receives each query's timestamp as it arrives.
type Recorder interface {
	Record(ts time.Time)
}

// ActivitySource supplies the timestamps of recent queries, approximately
// covering [now - window, now]. Callers must not retain the returned slice
// past one refresh.
type ActivitySource interface {
	RecentActivity(ctx context.Context, now time.Time, window time.Duration) ([]time.Time, error)
}
