package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/papersync/internal/logger"
)

const defaultRunRetention = 30 * 24 * time.Hour

// RunPruner deletes finished sync runs older than a retention period.
type RunPruner interface {
	DeleteOlderThan(retention time.Duration) (int64, error)
}

// PruneRunsTask removes old sync run history.
type PruneRunsTask struct {
	RetentionHours int `json:"retention_hours"`
}

// Config returns the queue configuration for run history pruning tasks.
func (t PruneRunsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_sync_runs",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// NewPruneRunsTask builds a task for the given retention.
func NewPruneRunsTask(retention time.Duration) PruneRunsTask {
	return PruneRunsTask{RetentionHours: int(retention / time.Hour)}
}

// PruneRunsProcessor creates a processor function for PruneRunsTask.
func PruneRunsProcessor(pruner RunPruner, log logger.Logger) backlite.QueueProcessor[PruneRunsTask] {
	if log == nil {
		log = logger.Nop()
	}
	return func(ctx context.Context, task PruneRunsTask) error {
		if pruner == nil {
			return fmt.Errorf("run pruner not configured")
		}

		retention := time.Duration(task.RetentionHours) * time.Hour
		if retention <= 0 {
			retention = defaultRunRetention
		}

		deleted, err := pruner.DeleteOlderThan(retention)
		if err != nil {
			return fmt.Errorf("prune sync runs: %w", err)
		}

		log.Info("pruned sync runs", logger.Int("deleted", int(deleted)), logger.Duration("retention", retention))
		return nil
	}
}

// NewPruneRunsQueue creates a backlite queue for run history pruning.
func NewPruneRunsQueue(pruner RunPruner, log logger.Logger) backlite.Queue {
	return backlite.NewQueue(PruneRunsProcessor(pruner, log))
}
