package light

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// Transition is one confirmed light transition.
type Transition struct {
	ID         int64
	SessionID  string
	Trigger    string
	CameraOn   bool
	MicOn      bool
	LightState State
	CreatedAt  time.Time
}

// HistoryRepository persists and queries the transition history.
type HistoryRepository interface {
	RecordTransition(ctx context.Context, t Transition) error
	RecentTransitions(ctx context.Context, limit int) ([]Transition, error)
	PruneTransitions(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SQLiteHistoryRepository implements HistoryRepository using SQLite.
type SQLiteHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteHistoryRepository creates a new SQLite transition history repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteHistoryRepository: Repository instance ready for use
func NewSQLiteHistoryRepository(db *sql.DB) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{db: db}
}

// RecordTransition inserts a transition row.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - t: Transition to persist; CreatedAt is assigned by the database
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteHistoryRepository) RecordTransition(ctx context.Context, t Transition) error {
	if t.Trigger == "" {
		return fmt.Errorf("trigger is required")
	}
	if t.LightState != StateOn && t.LightState != StateOff {
		return fmt.Errorf("invalid light state %q", t.LightState)
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO transitions (session_id, source, camera_on, mic_on, light_state) VALUES (?, ?, ?, ?, ?)",
		t.SessionID,
		t.Trigger,
		boolInt(t.CameraOn),
		boolInt(t.MicOn),
		string(t.LightState),
	)
	if err != nil {
		return fmt.Errorf("inserting transition: %w", err)
	}

	return nil
}

// RecentTransitions returns recent transitions, ordered newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - limit: Maximum entries to return (default 20, max 200)
//
// Returns:
//   - []Transition: Transitions ordered by created_at DESC
//   - error: nil on success, otherwise the underlying query error
func (r *SQLiteHistoryRepository) RecentTransitions(ctx context.Context, limit int) ([]Transition, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, source, camera_on, mic_on, light_state, created_at
		 FROM transitions
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying transitions: %w", err)
	}
	defer rows.Close()

	transitions := make([]Transition, 0, limit)
	for rows.Next() {
		var t Transition
		var cameraOn, micOn int
		var lightState, createdAt string

		if err := rows.Scan(&t.ID, &t.SessionID, &t.Trigger, &cameraOn, &micOn, &lightState, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning transition: %w", err)
		}

		t.CameraOn = cameraOn != 0
		t.MicOn = micOn != 0
		t.LightState = State(lightState)

		timestamp, err := parseTransitionTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		t.CreatedAt = timestamp

		transitions = append(transitions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transitions: %w", err)
	}

	return transitions, nil
}

// PruneTransitions deletes transitions older than the given duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Duration to retain (rows older than now-olderThan are deleted)
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteHistoryRepository) PruneTransitions(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM transitions WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting transitions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseTransitionTimestamp parses a timestamp stored in SQLite.
func parseTransitionTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	// CURRENT_TIMESTAMP and datetime('now') store this space separated form.
	fallback, fallbackErr := time.Parse("2006-01-02 15:04:05", value)
	if fallbackErr == nil {
		return fallback, nil
	}

	return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
}

// boolInt renders a bool as the 1/0 the schema stores.
func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
