package gate

import (
	"log/slog"
	"time"

	"github.com/a1davida1/TPilot-sub011/app/database"
	"github.com/a1davida1/TPilot-sub011/app/rules"
)

const (
	// RequiredCleanPreviews is how many ok-state previews inside the window
	// a user needs before queueing is allowed.
	RequiredCleanPreviews = 3

	// Window is the trailing span counted, anchored to "now" at call time.
	Window = 14 * 24 * time.Hour

	// ReasonPreviewGateNotMet is the structured denial reason handed to the
	// posting UI so it can show the remaining gap.
	ReasonPreviewGateNotMet = "PREVIEW_GATE_NOT_MET"
)

// Stats is the rolling-window summary of a user's lint history.
type Stats struct {
	OKCount14d       int  `json:"okCount14d"`
	TotalPreviews14d int  `json:"totalPreviews14d"`
	CanQueue         bool `json:"canQueue"`
	Required         int  `json:"required"`
}

// Decision is the gate verdict for the post-queueing action. Derived on
// demand from the event log, never persisted.
type Decision struct {
	CanQueue bool   `json:"canQueue"`
	Required int    `json:"required,omitempty"`
	Current  int    `json:"current"`
	Reason   string `json:"reason,omitempty"`
}

// Gate decides whether a user may queue posts based on recent lint history.
// The only state is the append-only event log, so the gate can never be out
// of sync with the events it counts.
type Gate struct {
	eventRepo database.EventRepository
	nowFunc   func() time.Time
}

func NewGate(eventRepo database.EventRepository) *Gate {
	return &Gate{
		eventRepo: eventRepo,
		nowFunc:   time.Now,
	}
}

// GetPreviewStats computes the trailing-window stats for a user. A storage
// error is logged and swallowed: the caller gets zero counts and a denied
// gate, because granting access on a transient read failure risks platform
// policy violations this system cannot undo.
func (g *Gate) GetPreviewStats(userID string) Stats {
	stats := Stats{Required: RequiredCleanPreviews}

	since := g.nowFunc().UTC().Add(-Window)

	okCount, err := g.eventRepo.CountPreviewEvents(userID, since, rules.PolicyStateOK)
	if err != nil {
		slog.Error("Failed to count clean previews, failing closed", "user_id", userID, "error", err)
		return stats
	}

	total, err := g.eventRepo.CountPreviewEvents(userID, since, "")
	if err != nil {
		slog.Error("Failed to count previews, failing closed", "user_id", userID, "error", err)
		return stats
	}

	stats.OKCount14d = okCount
	stats.TotalPreviews14d = total
	stats.CanQueue = okCount >= RequiredCleanPreviews

	return stats
}

// CanQueuePosts reports whether the user has met the preview gate.
func (g *Gate) CanQueuePosts(userID string) bool {
	return g.GetPreviewStats(userID).CanQueue
}

// CheckPreviewGate returns the structured gate decision. A denial carries
// the threshold and the current count so the UI can explain the gap.
func (g *Gate) CheckPreviewGate(userID string) Decision {
	stats := g.GetPreviewStats(userID)

	if stats.CanQueue {
		return Decision{CanQueue: true, Current: stats.OKCount14d}
	}

	return Decision{
		CanQueue: false,
		Required: RequiredCleanPreviews,
		Current:  stats.OKCount14d,
		Reason:   ReasonPreviewGateNotMet,
	}
}
