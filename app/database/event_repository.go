package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/a1davida1/TPilot-sub011/app/rules"
)

var _ EventRepository = (*eventRepository)(nil)

type eventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) EventRepository {
	return &eventRepository{db: db}
}

// InsertPreviewEvent appends one lint evaluation to the event log. Events
// are never updated afterwards.
func (r *eventRepository) InsertPreviewEvent(ev PreviewEvent) error {
	warnings := ev.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("failed to encode warnings: %w", err)
	}

	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = now()
	}

	_, err = r.db.Exec(`
		INSERT INTO preview_events (user_id, subreddit, title_preview, body_preview, policy_state, warnings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.UserID, normalizeName(ev.Subreddit), ev.TitlePreview, ev.BodyPreview,
		string(ev.PolicyState), string(warningsJSON), createdAt.UTC())

	if err != nil {
		return fmt.Errorf("failed to insert preview event: %w", err)
	}

	return nil
}

func (r *eventRepository) CountPreviewEvents(userID string, since time.Time, state rules.PolicyState) (int, error) {
	query := `SELECT COUNT(*) FROM preview_events WHERE user_id = ? AND created_at >= ?`
	args := []interface{}{userID, since.UTC()}

	if state != "" {
		query += ` AND policy_state = ?`
		args = append(args, string(state))
	}

	var count int
	if err := r.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count preview events: %w", err)
	}

	return count, nil
}

func (r *eventRepository) GetRecentEvents(userID string, limit int) ([]PreviewEvent, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, subreddit, title_preview, body_preview, policy_state, warnings, created_at
		FROM preview_events
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}
	defer rows.Close()

	var events []PreviewEvent
	for rows.Next() {
		var ev PreviewEvent
		var state, warningsJSON string
		err := rows.Scan(&ev.ID, &ev.UserID, &ev.Subreddit, &ev.TitlePreview,
			&ev.BodyPreview, &state, &warningsJSON, &ev.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}

		ev.PolicyState = rules.PolicyState(state)
		if err := json.Unmarshal([]byte(warningsJSON), &ev.Warnings); err != nil {
			return nil, fmt.Errorf("failed to decode warnings: %w", err)
		}

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	return events, nil
}

func (r *eventRepository) GetEventCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM preview_events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get event count: %w", err)
	}
	return count, nil
}

// DeleteEventsBefore removes events older than the cutoff. Only the
// retention task calls this; the gate never depends on pruning.
func (r *eventRepository) DeleteEventsBefore(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`
		DELETE FROM preview_events WHERE created_at < ?
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old events: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted row count: %w", err)
	}

	return deleted, nil
}
