package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/a1davida1/TPilot-sub011/app/database"
	"github.com/a1davida1/TPilot-sub011/app/registry"
	"github.com/a1davida1/TPilot-sub011/app/rules"
)

const defaultSyncInterval = 6 * time.Hour

// Service produces up-to-date RuleSpecs. The rule source is an injected
// dependency so tests can substitute a fake without network access.
type Service struct {
	source     RuleSource
	ruleRepo   database.RuleRepository
	configs    *registry.ConfigCache
	batchSize  int
	batchDelay time.Duration
}

func NewService(source RuleSource, ruleRepo database.RuleRepository,
	configs *registry.ConfigCache, batchSize int, batchDelay time.Duration) *Service {
	if batchSize <= 0 {
		batchSize = 5
	}

	return &Service{
		source:     source,
		ruleRepo:   ruleRepo,
		configs:    configs,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// SyncOne recompiles and stores the RuleSpec for one community.
//
// Either upstream source may fail; ingestion degrades to empty content for
// that source and continues. Store errors propagate to the caller, which
// decides about retries. Running twice against unchanged upstream data
// yields identical stored fields except source.fetchedAt.
//
// A community disabled in the registry is skipped without touching the
// stored spec; the skip returns (nil, nil) and reschedules the next check.
func (s *Service) SyncOne(ctx context.Context, community string) (*rules.RuleSpec, error) {
	name := strings.ToLower(strings.TrimSpace(community))
	if name == "" {
		return nil, fmt.Errorf("community name is required")
	}

	if s.configs != nil {
		if config, err := s.configs.GetConfig(name); err == nil && !config.Enabled {
			slog.Debug("Skipping disabled community", "community", name)
			nextSync := time.Now().UTC().Add(s.syncInterval(name))
			if err := s.ruleRepo.UpdateNextSync(name, nextSync); err != nil {
				slog.Warn("Failed to update next sync time", "community", name, "error", err)
			}
			return nil, nil
		}
	}

	rawRules, err := s.source.FetchRules(ctx, name)
	if err != nil {
		slog.Warn("Rules fetch failed, continuing with empty rules", "community", name, "error", err)
		rawRules = nil
	}

	wiki, err := s.source.FetchWiki(ctx, name)
	if err != nil {
		slog.Warn("Wiki fetch failed, continuing with empty wiki", "community", name, "error", err)
		wiki = ""
	}

	base := BuildAutomatedBase(name, rawRules, wiki)

	existing, err := s.ruleRepo.GetRuleSpec(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing rule spec: %w", err)
	}

	overrides := s.resolveOverrides(name, existing)

	spec := rules.ApplyOverrides(base, overrides)
	spec.Overrides = overrides
	spec.Source = rules.Source{
		FetchedAt:     time.Now().UTC(),
		AutomatedBase: &base,
	}

	if err := s.ruleRepo.UpsertRuleSpec(name, spec); err != nil {
		return nil, fmt.Errorf("failed to store rule spec: %w", err)
	}

	nextSync := time.Now().UTC().Add(s.syncInterval(name))
	if err := s.ruleRepo.UpdateNextSync(name, nextSync); err != nil {
		slog.Warn("Failed to update next sync time", "community", name, "error", err)
	}

	return &spec, nil
}

// resolveOverrides picks the curator overrides for a sync: the registry
// file wins when it carries any, otherwise previously stored overrides
// survive. Overrides are stored alongside the spec, never derived from it,
// so re-syncing can never revert a curator's change.
func (s *Service) resolveOverrides(name string, existing *rules.RuleSpec) *rules.Override {
	if s.configs != nil {
		if config, err := s.configs.GetConfig(name); err == nil && !config.Overrides.IsEmpty() {
			return config.Overrides
		}
	}

	if existing != nil && !existing.Overrides.IsEmpty() {
		return existing.Overrides
	}

	return nil
}

func (s *Service) syncInterval(name string) time.Duration {
	if s.configs != nil {
		if config, err := s.configs.GetConfig(name); err == nil && config.Settings.SyncInterval > 0 {
			return time.Duration(config.Settings.SyncInterval) * time.Second
		}
	}
	return defaultSyncInterval
}

// Report summarizes a SyncAll run.
type Report struct {
	Synced []string
	Failed map[string]error
}

// SyncAll best-effort syncs every known community in fixed-size batches
// with an inter-batch delay, rate-limiting calls to the upstream source.
// A failing community is recorded and never aborts the rest of the run.
func (s *Service) SyncAll(ctx context.Context) (Report, error) {
	report := Report{Failed: make(map[string]error)}

	communities, err := s.ruleRepo.ListCommunities()
	if err != nil {
		return report, fmt.Errorf("failed to enumerate communities: %w", err)
	}

	names := make([]string, 0, len(communities))
	for _, c := range communities {
		names = append(names, c.Name)
	}

	for start := 0; start < len(names); start += s.batchSize {
		end := start + s.batchSize
		if end > len(names) {
			end = len(names)
		}

		for _, name := range names[start:end] {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}

			spec, err := s.SyncOne(ctx, name)
			if err != nil {
				slog.Error("Community sync failed", "community", name, "error", err)
				report.Failed[name] = err
				continue
			}
			if spec == nil {
				// Disabled in the registry; neither synced nor failed.
				continue
			}
			report.Synced = append(report.Synced, name)
		}

		if end < len(names) && s.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(s.batchDelay):
			}
		}
	}

	slog.Info("Sync completed", "synced", len(report.Synced), "failed", len(report.Failed))

	return report, nil
}
