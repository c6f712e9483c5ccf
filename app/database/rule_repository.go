package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/a1davida1/TPilot-sub011/app/rules"
)

var _ RuleRepository = (*ruleRepository)(nil)

type ruleRepository struct {
	db *DB
}

func NewRuleRepository(db *DB) RuleRepository {
	return &ruleRepository{db: db}
}

// GetRuleSpec returns the stored spec for a community, or nil if the
// community is unknown or has never completed a sync.
func (r *ruleRepository) GetRuleSpec(name string) (*rules.RuleSpec, error) {
	var specJSON string
	var fetchedAt sql.NullTime

	err := r.db.QueryRow(`
		SELECT spec, fetched_at
		FROM subreddit_rules
		WHERE name = ?
	`, normalizeName(name)).Scan(&specJSON, &fetchedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule spec: %w", err)
	}
	if !fetchedAt.Valid {
		// Registered but never synced; no rules on file yet.
		return nil, nil
	}

	var spec rules.RuleSpec
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return nil, fmt.Errorf("failed to decode rule spec: %w", err)
	}

	return &spec, nil
}

// UpsertRuleSpec stores the effective spec for a community. Idempotent:
// syncing twice with identical upstream data rewrites the same payload.
func (r *ruleRepository) UpsertRuleSpec(name string, spec rules.RuleSpec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to encode rule spec: %w", err)
	}

	ts := now()
	_, err = r.db.Exec(`
		INSERT INTO subreddit_rules (name, spec, fetched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			spec = excluded.spec,
			fetched_at = excluded.fetched_at,
			updated_at = excluded.updated_at
	`, normalizeName(name), string(specJSON), spec.Source.FetchedAt.UTC(), ts, ts)

	if err != nil {
		return fmt.Errorf("failed to upsert rule spec: %w", err)
	}

	return nil
}

// RegisterCommunity creates an empty rule row for a community if none
// exists, so the scheduler can pick it up for its first sync.
func (r *ruleRepository) RegisterCommunity(name string) error {
	ts := now()
	_, err := r.db.Exec(`
		INSERT INTO subreddit_rules (name, spec, created_at, updated_at)
		VALUES (?, '{}', ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, normalizeName(name), ts, ts)

	if err != nil {
		return fmt.Errorf("failed to register community: %w", err)
	}

	return nil
}

func (r *ruleRepository) UpdateNextSync(name string, nextSync time.Time) error {
	_, err := r.db.Exec(`
		UPDATE subreddit_rules
		SET next_sync_at = ?, updated_at = ?
		WHERE name = ?
	`, nextSync.UTC(), now(), normalizeName(name))

	if err != nil {
		return fmt.Errorf("failed to update next sync time: %w", err)
	}

	return nil
}

func (r *ruleRepository) GetCommunitiesDueForSync(limit int) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT name
		FROM subreddit_rules
		WHERE next_sync_at IS NULL OR next_sync_at <= ?
		ORDER BY next_sync_at
		LIMIT ?
	`, now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get communities due for sync: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan community row: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating community rows: %w", err)
	}

	return names, nil
}

func (r *ruleRepository) ListCommunities() ([]Community, error) {
	rows, err := r.db.Query(`
		SELECT name, fetched_at, next_sync_at, created_at, updated_at
		FROM subreddit_rules
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list communities: %w", err)
	}
	defer rows.Close()

	var communities []Community
	for rows.Next() {
		var c Community
		err := rows.Scan(&c.Name, &c.FetchedAt, &c.NextSyncAt, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan community row: %w", err)
		}
		communities = append(communities, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating community rows: %w", err)
	}

	return communities, nil
}

func (r *ruleRepository) GetCommunityCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM subreddit_rules").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get community count: %w", err)
	}
	return count, nil
}

// normalizeName lowercases a community name; the rule store is keyed by
// lowercase name so "GoneWild" and "gonewild" resolve to the same row.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
