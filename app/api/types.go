package api

import (
	"github.com/a1davida1/TPilot-sub011/app/database"
	"github.com/a1davida1/TPilot-sub011/app/gate"
	"github.com/a1davida1/TPilot-sub011/app/ingest"
	"github.com/a1davida1/TPilot-sub011/app/lint"
	"github.com/a1davida1/TPilot-sub011/app/registry"
	"github.com/a1davida1/TPilot-sub011/app/tasks"
)

type Handler struct {
	ruleRepo      database.RuleRepository
	eventRepo     database.EventRepository
	userRepo      database.UserRepository
	linter        *lint.Linter
	gate          *gate.Gate
	ingestService *ingest.Service
	configCache   *registry.ConfigCache
	scheduler     tasks.TaskSchedulerInterface
}

// LintRequest is the POST /lint body: one candidate post.
type LintRequest struct {
	Subreddit string `json:"subreddit"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	HasLink   bool   `json:"hasLink"`
}

// Subscription tiers in ascending order. The linter and gate endpoints
// require Pro or above; tier management itself lives in the billing
// subsystem, this engine only reads the persisted tier.
var tierRank = map[string]int{
	"free":    0,
	"starter": 1,
	"pro":     2,
	"premium": 3,
}

const minLintTier = "pro"

func tierAtLeast(tier, required string) bool {
	rank, ok := tierRank[tier]
	if !ok {
		return false
	}
	return rank >= tierRank[required]
}
