package database

import (
	"time"

	"github.com/a1davida1/TPilot-sub011/app/rules"
)

// Community is one row of the rule store, without the spec payload.
type Community struct {
	Name       string
	FetchedAt  *time.Time
	NextSyncAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PreviewEvent is one immutable record of a lint evaluation. Append-only:
// rows are never updated, and deleted only by the retention task.
type PreviewEvent struct {
	ID           int64
	UserID       string
	Subreddit    string
	TitlePreview string
	BodyPreview  string
	PolicyState  rules.PolicyState
	Warnings     []string
	CreatedAt    time.Time
}

// User is the persisted user record consumed from the account subsystem.
type User struct {
	ID        string
	Tier      string
	CreatedAt time.Time
}
