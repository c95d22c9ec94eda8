// Package runs records the history of sync passes.
//
// Each pass gets one row keyed by a ULID run id. A Tracker bound to that row
// implements syncer.ProgressReporter.
//
// # Usage
//
//	repo := runs.NewRepository(db)
//	tracker, err := repo.Begin(entities.SyncTriggerManual, folder, target)
//	events := orchestrator.Run(ctx, cfg, syncer.WithReporter(tracker))
package runs

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/mrlokans/papersync/internal/entities"
)

const (
	runIDPrefix = "sync-"

	// DefaultStaleAfter is how long a running pass may go without an update
	// before it is considered interrupted.
	DefaultStaleAfter = 10 * time.Minute

	interruptedMessage = "sync was interrupted"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

func newRunID(t time.Time) string {
	entropyLock.Lock()
	id := ulid.MustNew(ulid.Timestamp(t), entropy)
	entropyLock.Unlock()
	return runIDPrefix + id.String()
}

// Repository handles all sync run database operations.
type Repository struct {
	db         *gorm.DB
	staleAfter time.Duration
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, staleAfter: DefaultStaleAfter}
}

// Begin creates a running row for a new pass.
func (r *Repository) Begin(trigger entities.SyncTrigger, folder, target string) (*Tracker, error) {
	now := time.Now()
	run := entities.SyncRun{
		RunID:     newRunID(now),
		Trigger:   trigger,
		Status:    entities.SyncStatusRunning,
		Folder:    folder,
		Target:    target,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.Create(&run).Error; err != nil {
		return nil, err
	}
	return &Tracker{db: r.db, runID: run.RunID}, nil
}

func (r *Repository) GetRun(runID string) (*entities.SyncRun, error) {
	var run entities.SyncRun
	err := r.db.Where("run_id = ?", runID).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// LatestRun returns the most recently started pass, or nil when there is none.
func (r *Repository) LatestRun() (*entities.SyncRun, error) {
	var run entities.SyncRun
	err := r.db.Order("started_at DESC, id DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRecent returns up to limit passes, newest first.
func (r *Repository) ListRecent(limit int) ([]entities.SyncRun, error) {
	var list []entities.SyncRun
	query := r.db.Order("started_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&list).Error
	return list, err
}

// IsSyncRunning reports whether a pass is in progress. Running rows that
// have not been updated within the stale window are closed as failed.
func (r *Repository) IsSyncRunning() (bool, error) {
	var running []entities.SyncRun
	err := r.db.Where("status = ?", entities.SyncStatusRunning).Find(&running).Error
	if err != nil {
		return false, err
	}

	staleThreshold := time.Now().Add(-r.staleAfter)
	active := false
	for _, run := range running {
		if run.UpdatedAt.Before(staleThreshold) {
			tracker := &Tracker{db: r.db, runID: run.RunID}
			_ = tracker.CompleteSync(entities.SyncStatusFailed, interruptedMessage)
			continue
		}
		active = true
	}
	return active, nil
}

// CloseInterrupted marks every running row as failed. It is called on
// startup, when no pass can be in flight.
func (r *Repository) CloseInterrupted() (int64, error) {
	now := time.Now()
	result := r.db.Model(&entities.SyncRun{}).
		Where("status = ?", entities.SyncStatusRunning).
		Updates(map[string]any{
			"status":       entities.SyncStatusFailed,
			"error":        interruptedMessage,
			"current_item": "",
			"updated_at":   now,
			"completed_at": now,
		})
	return result.RowsAffected, result.Error
}

// DeleteOlderThan removes finished runs started before the retention window.
func (r *Repository) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := r.db.
		Where("status <> ? AND started_at < ?", entities.SyncStatusRunning, cutoff).
		Delete(&entities.SyncRun{})
	return result.RowsAffected, result.Error
}

// Tracker updates the row of one pass.
type Tracker struct {
	db    *gorm.DB
	runID string
}

func (t *Tracker) RunID() string {
	return t.runID
}

// StartSync records how many records the pass will process.
func (t *Tracker) StartSync(totalItems int) error {
	return t.update(map[string]any{
		"total_items": totalItems,
		"updated_at":  time.Now(),
	})
}

func (t *Tracker) UpdateProgress(processed, created, skipped, failed int, currentItem string) error {
	return t.update(map[string]any{
		"processed":    processed,
		"created":      created,
		"skipped":      skipped,
		"failed":       failed,
		"current_item": currentItem,
		"updated_at":   time.Now(),
	})
}

// CompleteSync closes the run with its final status.
func (t *Tracker) CompleteSync(status entities.SyncStatus, errorMsg string) error {
	now := time.Now()
	updates := map[string]any{
		"status":       status,
		"current_item": "",
		"updated_at":   now,
		"completed_at": now,
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}
	return t.update(updates)
}

func (t *Tracker) update(values map[string]any) error {
	return t.db.Model(&entities.SyncRun{}).
		Where("run_id = ?", t.runID).
		Updates(values).Error
}
