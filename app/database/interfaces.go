package database

import (
	"time"

	"github.com/a1davida1/TPilot-sub011/app/rules"
)

// RuleRepository is the rule store: one row per community, mutated only by
// ingestion, read-only to the linter.
type RuleRepository interface {
	GetRuleSpec(name string) (*rules.RuleSpec, error)
	UpsertRuleSpec(name string, spec rules.RuleSpec) error

	RegisterCommunity(name string) error
	UpdateNextSync(name string, nextSync time.Time) error
	GetCommunitiesDueForSync(limit int) ([]string, error)
	ListCommunities() ([]Community, error)
	GetCommunityCount() (int, error)
}

// EventRepository is the append-only preview event log. The linter writes,
// the gate counts; the two are coupled only through this log.
type EventRepository interface {
	InsertPreviewEvent(ev PreviewEvent) error

	// CountPreviewEvents counts a user's events with created_at >= since.
	// An empty state counts all policy states.
	CountPreviewEvents(userID string, since time.Time, state rules.PolicyState) (int, error)

	GetRecentEvents(userID string, limit int) ([]PreviewEvent, error)
	GetEventCount() (int, error)
	DeleteEventsBefore(cutoff time.Time) (int64, error)
}

// UserRepository reads the user records owned by the account subsystem.
type UserRepository interface {
	GetUser(id string) (*User, error)
}
