package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/temppub/internal/infrastructure/database"
	_ "github.com/nerrad567/temppub/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "journal.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func entry(id string, n int, outcome Outcome, at time.Time) *Entry {
	e := &Entry{
		TemperatureID: id,
		Value:         22.5,
		Topic:         "temperature/changed",
		Attempt:       n,
		MaxAttempts:   3,
		Outcome:       outcome,
		Duration:      120 * time.Millisecond,
		CreatedAt:     at,
	}
	if outcome == OutcomeFailed {
		e.Error = "mqtt: connection failed"
	}
	return e
}

func TestRecordAndRecent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	entries := []*Entry{
		entry("temp-aaaaa", 1, OutcomeFailed, base),
		entry("temp-bbbbb", 2, OutcomeFailed, base.Add(time.Second)),
		entry("temp-ccccc", 3, OutcomePublished, base.Add(2*time.Second)),
	}
	for _, e := range entries {
		if err := repo.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if e.ID == 0 {
			t.Error("Record() did not set ID")
		}
	}

	got, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent(2) returned %d entries", len(got))
	}
	if got[0].TemperatureID != "temp-ccccc" || got[1].TemperatureID != "temp-bbbbb" {
		t.Errorf("Recent() order = %s, %s; want newest first", got[0].TemperatureID, got[1].TemperatureID)
	}

	first := got[0]
	if first.Outcome != OutcomePublished || first.Error != "" {
		t.Errorf("published entry = %+v", first)
	}
	if first.Duration != 120*time.Millisecond {
		t.Errorf("Duration = %v, want 120ms", first.Duration)
	}
	if !first.CreatedAt.Equal(base.Add(2 * time.Second)) {
		t.Errorf("CreatedAt = %v, want %v", first.CreatedAt, base.Add(2*time.Second))
	}
	if got[1].Error != "mqtt: connection failed" {
		t.Errorf("failed entry error = %q", got[1].Error)
	}
}

func TestRecentDefaultLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for range DefaultLimit + 5 {
		if err := repo.Record(ctx, entry("temp-aaaaa", 1, OutcomePublished, time.Time{})); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := repo.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != DefaultLimit {
		t.Errorf("Recent(0) returned %d entries, want %d", len(got), DefaultLimit)
	}
}

func TestSummary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	empty, err := repo.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if empty.Attempts != 0 || !empty.LastPublished.IsZero() {
		t.Errorf("empty Summary() = %+v", empty)
	}

	base := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	last := base.Add(90 * time.Second).Add(500 * time.Millisecond)
	for _, e := range []*Entry{
		entry("temp-aaaaa", 1, OutcomeFailed, base),
		entry("temp-bbbbb", 2, OutcomePublished, base.Add(90*time.Second)),
		entry("temp-ccccc", 1, OutcomePublished, last),
	} {
		if err := repo.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	s, err := repo.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.Attempts != 3 || s.Published != 2 || s.Failed != 1 {
		t.Errorf("Summary() = %+v, want 3 attempts, 2 published, 1 failed", s)
	}
	if !s.LastPublished.Equal(last) {
		t.Errorf("LastPublished = %v, want %v", s.LastPublished, last)
	}
}

func TestRecordRejectsInvalidEntries(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	tests := []struct {
		name  string
		entry *Entry
	}{
		{"missing id", entry("", 1, OutcomePublished, now)},
		{"unknown outcome", entry("temp-aaaaa", 1, Outcome("queued"), now)},
		{"attempt zero", entry("temp-aaaaa", 0, OutcomeFailed, now)},
		{"attempt beyond max", entry("temp-aaaaa", 4, OutcomeFailed, now)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Record(context.Background(), tt.entry); !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("Record() error = %v, want ErrInvalidEntry", err)
			}
		})
	}
}
