// Package journal keeps an append-only SQLite record of publish attempts.
//
// The journal is an audit trail. Nothing is ever re-sent from it.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Outcome is the result of one attempt.
type Outcome string

const (
	OutcomePublished Outcome = "published"
	OutcomeFailed    Outcome = "failed"
)

// Listing limits for Recent.
const (
	DefaultLimit = 20
	MaxLimit     = 500
)

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// ErrInvalidEntry is returned by Record for entries that cannot be stored.
var ErrInvalidEntry = errors.New("journal: invalid entry")

// Entry is one row of publish_attempts.
type Entry struct {
	ID            int64
	TemperatureID string
	Value         float64
	Topic         string
	Attempt       int
	MaxAttempts   int
	Outcome       Outcome
	Error         string
	Duration      time.Duration
	CreatedAt     time.Time
}

// Summary aggregates the whole journal.
type Summary struct {
	Attempts  int
	Published int
	Failed    int
	// LastPublished is zero when nothing was ever published.
	LastPublished time.Time
}

// Repository defines the journal operations.
type Repository interface {
	Record(ctx context.Context, e *Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Summary(ctx context.Context) (Summary, error)
}

// SQLiteRepository stores entries in the publish_attempts table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an already migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record appends e and sets its ID. CreatedAt defaults to now.
func (r *SQLiteRepository) Record(ctx context.Context, e *Entry) error {
	if e.TemperatureID == "" {
		return fmt.Errorf("%w: temperature id is required", ErrInvalidEntry)
	}
	if e.Outcome != OutcomePublished && e.Outcome != OutcomeFailed {
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidEntry, e.Outcome)
	}
	if e.Attempt < 1 || e.MaxAttempts < e.Attempt {
		return fmt.Errorf("%w: attempt %d of %d", ErrInvalidEntry, e.Attempt, e.MaxAttempts)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var errText *string
	if e.Error != "" {
		errText = &e.Error
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO publish_attempts
			(temperature_id, value, topic, attempt, max_attempts, outcome, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TemperatureID, e.Value, e.Topic, e.Attempt, e.MaxAttempts, string(e.Outcome), errText,
		e.Duration.Milliseconds(), e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting publish attempt: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading publish attempt id: %w", err)
	}
	e.ID = id
	return nil
}

// Recent returns up to limit entries, newest first. A limit <= 0 means
// DefaultLimit; larger than MaxLimit is capped.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, temperature_id, value, topic, attempt, max_attempts, outcome,
		       COALESCE(error, ''), duration_ms, created_at
		FROM publish_attempts
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying publish attempts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			outcome    string
			durationMS int64
			createdAt  string
		)
		if err := rows.Scan(&e.ID, &e.TemperatureID, &e.Value, &e.Topic, &e.Attempt, &e.MaxAttempts,
			&outcome, &e.Error, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning publish attempt: %w", err)
		}
		e.Outcome = Outcome(outcome)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at of attempt %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating publish attempts: %w", err)
	}
	return entries, nil
}

// Summary counts attempts by outcome.
func (r *SQLiteRepository) Summary(ctx context.Context) (Summary, error) {
	var (
		s    Summary
		last sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN outcome = 'published' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN outcome = 'failed' THEN 1 ELSE 0 END), 0),
		       MAX(CASE WHEN outcome = 'published' THEN created_at END)
		FROM publish_attempts`).Scan(&s.Attempts, &s.Published, &s.Failed, &last)
	if err != nil {
		return Summary{}, fmt.Errorf("summarising publish attempts: %w", err)
	}

	if last.Valid {
		s.LastPublished, err = time.Parse(timeLayout, last.String)
		if err != nil {
			return Summary{}, fmt.Errorf("parsing last publish time: %w", err)
		}
	}
	return s, nil
}
