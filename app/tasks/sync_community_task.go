package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/a1davida1/TPilot-sub011/app/ingest"
)

type SyncCommunityTask struct {
	Task
	ingestService *ingest.Service
}

func NewSyncCommunityTask(community string, ingestService *ingest.Service) *SyncCommunityTask {
	return &SyncCommunityTask{
		Task:          NewTask(TaskTypeSyncCommunity, community),
		ingestService: ingestService,
	}
}

func (t *SyncCommunityTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	spec, err := t.ingestService.SyncOne(ctx, t.Community)
	if err != nil {
		return fmt.Errorf("failed to sync community rules: %w", err)
	}
	if spec == nil {
		// Disabled in the registry since the task was enqueued
		slog.Info("Task skipped",
			"type", "SyncCommunity",
			"community", t.Community,
			"reason", "community disabled")
		return nil
	}

	slog.Info("Task completed",
		"type", "SyncCommunity",
		"community", t.Community,
		"duration", t.GetDuration(),
		"banned_words", len(spec.BannedWords),
		"link_policy", string(spec.LinkPolicy),
		"wiki_notes", len(spec.WikiNotes),
		"has_overrides", !spec.Overrides.IsEmpty())

	return nil
}
