// Package scheduler runs sync passes on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/papersync/internal/entities"
	"github.com/mrlokans/papersync/internal/logger"
	"github.com/mrlokans/papersync/internal/services"
	"github.com/mrlokans/papersync/internal/settingsstore"
	"github.com/mrlokans/papersync/internal/syncer"
)

type SettingsProvider interface {
	GetSyncSettings() settingsstore.SyncSettings
}

// PassRunner runs one sync pass to completion.
type PassRunner interface {
	RunAndWait(ctx context.Context, trigger entities.SyncTrigger, fn func(entities.SyncEvent)) (syncer.Summary, error)
}

// SyncScheduler manages periodic Zotero to Craft passes
type SyncScheduler struct {
	settings SettingsProvider
	runner   PassRunner
	log      logger.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	baseCtx    context.Context
	cancelFunc context.CancelFunc
}

func NewSyncScheduler(settings SettingsProvider, runner PassRunner, log logger.Logger) *SyncScheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &SyncScheduler{
		settings: settings,
		runner:   runner,
		log:      log.With(logger.String("component", "scheduler")),
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
		baseCtx:  context.Background(),
	}
}

// Start begins the scheduler if sync is enabled and both services are
// configured.
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	eff := s.settings.GetSyncSettings()

	if !eff.Enabled {
		s.log.Info("sync scheduler disabled")
		return nil
	}
	if eff.ZoteroAPIKey == "" || eff.CraftToken == "" {
		s.log.Warn("sync scheduler: credentials not configured, skipping")
		return nil
	}

	if err := settingsstore.ValidateCronSchedule(eff.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", eff.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(eff.Schedule, func() {
		s.runSync(entities.SyncTriggerSchedule, true)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)
	s.baseCtx = cancelCtx

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(eff.Schedule)
	s.log.Info("sync scheduler started",
		logger.String("schedule", eff.Schedule),
		logger.String("description", settingsstore.GetCronDescription(eff.Schedule)),
		logger.String("next_run", formatTime(nextRun)))

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler and waits for a scheduled pass in
// flight.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.cron.Remove(s.entryID)
	stopCtx := s.cron.Stop()
	cancel := s.cancelFunc
	s.isRunning = false
	s.cancelFunc = nil
	// Manual passes started after Stop must not inherit the cancelled context.
	s.baseCtx = context.Background()
	s.mu.Unlock()

	// Cancelling first lets a running pass abort at the next record.
	if cancel != nil {
		cancel()
	}
	<-stopCtx.Done()

	s.log.Info("sync scheduler stopped")
}

// Reschedule applies changed settings.
func (s *SyncScheduler) Reschedule() error {
	s.mu.RLock()
	wasRunning := s.isRunning
	s.mu.RUnlock()

	if wasRunning {
		s.Stop()
	}
	return s.Start(context.Background())
}

// RunNow triggers an immediate pass, even when scheduled sync is disabled.
func (s *SyncScheduler) RunNow() error {
	go s.runSync(entities.SyncTriggerManual, false)
	return nil
}

func (s *SyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a pass started by the scheduler is in progress
func (s *SyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// GetNextRunTime returns when the next scheduled pass will occur
func (s *SyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *SyncScheduler) runSync(trigger entities.SyncTrigger, requireEnabled bool) {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		s.log.Info("sync skipped: already syncing")
		return
	}
	s.isSyncing = true
	ctx := s.baseCtx
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	if requireEnabled && !s.settings.GetSyncSettings().Enabled {
		s.log.Info("sync skipped: disabled")
		return
	}

	startTime := time.Now()
	summary, err := s.runner.RunAndWait(ctx, trigger, nil)
	if errors.Is(err, services.ErrSyncInProgress) {
		s.log.Info("sync skipped: another pass is running")
		return
	}
	if err != nil {
		s.log.Error("sync failed to start", logger.Error(err))
		return
	}

	s.log.Info("scheduled sync finished",
		logger.String("trigger", string(trigger)),
		logger.String("status", string(summary.Status())),
		logger.Int("created", summary.Created),
		logger.Int("skipped", summary.Skipped),
		logger.Int("failed", summary.Failed),
		logger.Duration("duration", time.Since(startTime).Round(time.Millisecond)))
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
