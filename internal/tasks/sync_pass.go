package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/papersync/internal/entities"
	"github.com/mrlokans/papersync/internal/logger"
	"github.com/mrlokans/papersync/internal/services"
	"github.com/mrlokans/papersync/internal/syncer"
)

// PassRunner runs one sync pass to completion.
type PassRunner interface {
	RunAndWait(ctx context.Context, trigger entities.SyncTrigger, fn func(entities.SyncEvent)) (syncer.Summary, error)
}

// SyncPassTask runs one sync pass in the background.
type SyncPassTask struct {
	Trigger entities.SyncTrigger `json:"trigger"`
}

// Config returns the queue configuration for sync pass tasks. A pass is not
// retried: records already written would only be reported as skipped.
func (t SyncPassTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sync_pass",
		MaxAttempts: 1,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SyncPassProcessor creates a processor function for SyncPassTask.
func SyncPassProcessor(runner PassRunner, log logger.Logger) backlite.QueueProcessor[SyncPassTask] {
	if log == nil {
		log = logger.Nop()
	}
	return func(ctx context.Context, task SyncPassTask) error {
		if runner == nil {
			return fmt.Errorf("sync runner not configured")
		}

		trigger := task.Trigger
		if trigger == "" {
			trigger = entities.SyncTriggerManual
		}

		summary, err := runner.RunAndWait(ctx, trigger, nil)
		if errors.Is(err, services.ErrSyncInProgress) {
			log.Info("sync pass task skipped: another pass is running")
			return nil
		}
		if err != nil {
			return fmt.Errorf("sync pass: %w", err)
		}
		if summary.Err != "" {
			return fmt.Errorf("sync pass failed: %s", summary.Err)
		}

		log.Info("sync pass task finished",
			logger.String("status", string(summary.Status())),
			logger.Int("created", summary.Created),
			logger.Int("skipped", summary.Skipped),
			logger.Int("failed", summary.Failed))
		return nil
	}
}

// NewSyncPassQueue creates a backlite queue for sync pass tasks.
func NewSyncPassQueue(runner PassRunner, log logger.Logger) backlite.Queue {
	return backlite.NewQueue(SyncPassProcessor(runner, log))
}

// EnqueueSyncPass queues one sync pass and returns the task id.
func (c *Client) EnqueueSyncPass(trigger entities.SyncTrigger) (string, error) {
	ids, err := c.Add(SyncPassTask{Trigger: trigger}).Save()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue sync pass: %w", err)
	}
	return ids[0], nil
}
