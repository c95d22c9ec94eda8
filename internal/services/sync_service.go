// Package services coordinates sync passes across the HTTP API, the
// scheduler, the task queue and the CLI. At most one pass runs at a time.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mrlokans/papersync/internal/config"
	"github.com/mrlokans/papersync/internal/entities"
	"github.com/mrlokans/papersync/internal/logger"
	"github.com/mrlokans/papersync/internal/syncer"
)

var ErrSyncInProgress = errors.New("a sync pass is already running")

// Pass is a started sync pass. Events must be drained until closed.
type Pass struct {
	RunID  string
	Events <-chan entities.SyncEvent
}

// SyncState describes the pass in flight, if any.
type SyncState struct {
	Running bool                 `json:"running"`
	RunID   string               `json:"run_id,omitempty"`
	Trigger entities.SyncTrigger `json:"trigger,omitempty"`
}

type SyncService struct {
	cfg          *config.Config
	settings     SettingsProvider
	runs         RunRecorder
	orchestrator *syncer.Orchestrator
	log          logger.Logger

	mu      sync.Mutex
	running bool
	runID   string
	trigger entities.SyncTrigger
	cancel  context.CancelFunc
}

func NewSyncService(cfg *config.Config, settings SettingsProvider, runs RunRecorder, orchestrator *syncer.Orchestrator, log logger.Logger) *SyncService {
	if log == nil {
		log = logger.Nop()
	}
	return &SyncService{
		cfg:          cfg,
		settings:     settings,
		runs:         runs,
		orchestrator: orchestrator,
		log:          log.With(logger.String("component", "sync_service")),
	}
}

// Start begins a pass. Cancelling ctx, or calling Cancel, aborts it before
// the next record.
func (s *SyncService) Start(ctx context.Context, trigger entities.SyncTrigger) (*Pass, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	s.running = true
	s.mu.Unlock()

	eff := s.settings.GetSyncSettings()
	passCfg := eff.PassConfig(s.cfg)

	var opts []syncer.RunOption
	runID := ""
	if s.runs != nil {
		tracker, err := s.runs.Begin(trigger, passCfg.Folder, passCfg.Target())
		if err != nil {
			s.log.Warn("failed to record sync run", logger.Error(err))
		} else {
			runID = tracker.RunID()
			opts = append(opts, syncer.WithReporter(tracker))
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.runID = runID
	s.trigger = trigger
	s.cancel = cancel
	s.mu.Unlock()

	log := s.log.With(logger.String("run_id", runID), logger.String("trigger", string(trigger)))
	log.Info("sync pass started",
		logger.String("folder", passCfg.Folder),
		logger.String("target", passCfg.Target()),
		logger.Int("batch_size", config.ClampBatchSize(passCfg.BatchSize)))

	events := s.orchestrator.Run(runCtx, passCfg, opts...)
	out := make(chan entities.SyncEvent)

	go func() {
		defer close(out)
		defer s.finish(cancel)

		summary := syncer.Drain(events, func(ev entities.SyncEvent) {
			log.Debug("sync event",
				logger.String("title", ev.Title),
				logger.String("status", string(ev.Status)),
				logger.String("detail", ev.Detail))
			out <- ev
		})

		status := summary.Status()
		message := summaryMessage(summary)
		if err := s.settings.SetSyncStatus(string(status), message, summary.Created); err != nil {
			log.Warn("failed to store sync status", logger.Error(err))
		}
		log.Info("sync pass ended", logger.String("status", string(status)), logger.String("summary", message))
	}()

	return &Pass{RunID: runID, Events: out}, nil
}

// RunAndWait runs a pass to completion, handing each event to fn.
func (s *SyncService) RunAndWait(ctx context.Context, trigger entities.SyncTrigger, fn func(entities.SyncEvent)) (syncer.Summary, error) {
	pass, err := s.Start(ctx, trigger)
	if err != nil {
		return syncer.Summary{}, err
	}
	return syncer.Drain(pass.Events, fn), nil
}

// Cancel aborts the pass in flight. It reports whether there was one.
func (s *SyncService) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.cancel == nil {
		return false
	}
	s.cancel()
	s.log.Info("sync pass cancellation requested", logger.String("run_id", s.runID))
	return true
}

func (s *SyncService) IsSyncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *SyncService) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return SyncState{}
	}
	return SyncState{Running: true, RunID: s.runID, Trigger: s.trigger}
}

func (s *SyncService) finish(cancel context.CancelFunc) {
	cancel()
	s.mu.Lock()
	s.running = false
	s.runID = ""
	s.trigger = ""
	s.cancel = nil
	s.mu.Unlock()
}

func summaryMessage(s syncer.Summary) string {
	if s.Err != "" {
		return s.Err
	}
	msg := fmt.Sprintf("%d created, %d skipped, %d failed", s.Created, s.Skipped, s.Failed)
	if s.Aborted {
		msg += " (aborted)"
	}
	return msg
}
