package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	querylog "dnspulse/internal/querylog/domain"
)

const defaultQueryTable = "dns_queries"

// QueryRepository is a Postgres implementation of the durable query log.
type QueryRepository struct {
	db    *sql.DB
	table string
}

// NewQueryRepository constructs a repository with the default table name.
func NewQueryRepository(db *sql.DB, opts ...RepositoryOption) *QueryRepository {
	repo := &QueryRepository{db: db, table: defaultQueryTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*QueryRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *QueryRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// InsertQueries appends query records to the log.
func (r *QueryRepository) InsertQueries(ctx context.Context, queries []querylog.Query) error {
	if r == nil || r.db == nil {
		return errors.New("querylog repo: nil db")
	}
	if len(queries) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	server,
	ts,
	latency_ms,
	status
) VALUES (
	$1, $2, $3, $4
)`, r.table)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, q := range queries {
		if err := q.Validate(); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(
			ctx,
			q.Server,
			q.TS,
			q.Latency.Milliseconds(),
			string(q.Status),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// RecentActivity returns query timestamps newer than now - window.
func (r *QueryRepository) RecentActivity(ctx context.Context, now time.Time, window time.Duration) ([]time.Time, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("querylog repo: nil db")
	}

	query := fmt.Sprintf(`SELECT ts FROM %s WHERE ts > $1`, r.table)
	rows, err := r.db.QueryContext(ctx, query, now.Add(-window))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stamps []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		stamps = append(stamps, ts)
	}
	return stamps, rows.Err()
}

// CountByStatus aggregates logged queries by status inside [from, to).
func (r *QueryRepository) CountByStatus(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("querylog repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT status, COUNT(*)
FROM %s
WHERE ts >= $1 AND ts < $2
GROUP BY status`, r.table)

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// RecentQueries loads the most recent logged queries, newest first.
func (r *QueryRepository) RecentQueries(ctx context.Context, limit int) ([]querylog.Query, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("querylog repo: nil db")
	}
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
SELECT server, ts, latency_ms, status
FROM %s
ORDER BY ts DESC
LIMIT $1`, r.table)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queries []querylog.Query
	for rows.Next() {
		var q querylog.Query
		var latencyMS int64
		var status string
		if err := rows.Scan(&q.Server, &q.TS, &latencyMS, &status); err != nil {
			return nil, err
		}
		q.Latency = time.Duration(latencyMS) * time.Millisecond
		q.Status = querylog.Status(status)
		queries = append(queries, q)
	}
	return queries, rows.Err()
}
