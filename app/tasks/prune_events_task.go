package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/a1davida1/TPilot-sub011/app/database"
)

// EventRetention is how long preview events are kept. Far longer than the
// gate's counting window, so pruning can never change a gate decision.
const EventRetention = 90 * 24 * time.Hour

type PruneEventsTask struct {
	Task
	eventRepo database.EventRepository
}

func NewPruneEventsTask(eventRepo database.EventRepository) *PruneEventsTask {
	return &PruneEventsTask{
		Task:      NewTask(TaskTypePruneEvents, ""),
		eventRepo: eventRepo,
	}
}

func (t *PruneEventsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cutoff := time.Now().UTC().Add(-EventRetention)

	deleted, err := t.eventRepo.DeleteEventsBefore(cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune preview events: %w", err)
	}

	slog.Info("Task completed",
		"type", "PruneEvents",
		"duration", t.GetDuration(),
		"deleted", deleted)

	return nil
}
