package application

import (
	"context"
	"errors"
	"testing"
	"time"

	querylog "dnspulse/internal/querylog/domain"
	"dnspulse/internal/querylog/infrastructure/memory"
)

type failingRepo struct{}

func (failingRepo) InsertQueries(context.Context, []querylog.Query) error {
	return errors.New("db down")
}

func TestRecordService_RejectsEmptyBatch(t *testing.T) {
	service, err := NewRecordService(memory.NewTracker(4), nil)
	if err != nil {
		t.Fatalf("new record service: %v", err)
	}
	if err := service.Record(context.Background(), nil); err == nil {
		t.Fatalf("expected empty batch to be rejected")
	}
}

func TestRecordService_TrackerFedBeforeDurableFailure(t *testing.T) {
	tracker := memory.NewTracker(4)
	service, err := NewRecordService(tracker, nil, WithRepository(failingRepo{}))
	if err != nil {
		t.Fatalf("new record service: %v", err)
	}

	queries := []querylog.Query{{TS: time.Now(), Status: querylog.StatusComplete}}
	if err := service.Record(context.Background(), queries); err == nil {
		t.Fatalf("expected durable insert error to surface")
	}
	if tracker.Total() != 1 {
		t.Fatalf("expected tracker to be fed despite db failure, got %d", tracker.Total())
	}
}

func TestRecordService_InvalidQueryRecordsNothing(t *testing.T) {
	tracker := memory.NewTracker(4)
	service, err := NewRecordService(tracker, nil)
	if err != nil {
		t.Fatalf("new record service: %v", err)
	}

	queries := []querylog.Query{
		{TS: time.Now(), Status: querylog.StatusComplete},
		{Status: querylog.StatusComplete}, // zero timestamp
	}
	if err := service.Record(context.Background(), queries); err == nil {
		t.Fatalf("expected invalid query to be rejected")
	}
	if tracker.Total() != 0 {
		t.Fatalf("expected no queries tracked, got %d", tracker.Total())
	}
}
