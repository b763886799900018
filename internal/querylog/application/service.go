package application

import (
	"context"
	"errors"
	"log"

	"dnspulse/internal/observability/metrics"
	querylog "dnspulse/internal/querylog/domain"
)

// RecordService feeds incoming queries into the activity tracker and,
// when a durable log is configured, into Postgres.
type RecordService struct {
	tracker querylog.Recorder
	repo    querylog.QueryRepository
	logger  *log.Logger
}

// ServiceOption configures the record service.
type ServiceOption func(*RecordService)

// WithRepository enables the durable query log.
func WithRepository(repo querylog.QueryRepository) ServiceOption {
	return func(s *RecordService) { s.repo = repo }
}

// NewRecordService constructs a record service.
func NewRecordService(tracker querylog.Recorder, logger *log.Logger, opts ...ServiceOption) (*RecordService, error) {
	if tracker == nil {
		return nil, errors.New("querylog: nil tracker")
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &RecordService{tracker: tracker, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Record validates and stores a batch of queries. The tracker is always fed;
// a durable-log failure is returned after the tracker update so the live
// graph keeps moving even when the database is down.
func (s *RecordService) Record(ctx context.Context, queries []querylog.Query) error {
	if len(queries) == 0 {
		return errors.New("querylog: no queries")
	}
	for _, q := range queries {
		if err := q.Validate(); err != nil {
			return err
		}
	}

	for _, q := range queries {
		s.tracker.Record(q.TS)
		metrics.IncQueryRecorded(string(q.Status))
	}

	if s.repo != nil {
		if err := s.repo.InsertQueries(ctx, queries); err != nil {
			s.logger.Printf("querylog: durable insert error: %v", err)
			return err
		}
	}
	return nil
}
