package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/papersync/internal/config"
	"github.com/mrlokans/papersync/internal/entities"
	"github.com/mrlokans/papersync/internal/logger"
	"github.com/mrlokans/papersync/internal/mapper"
	"github.com/mrlokans/papersync/internal/services"
	"github.com/mrlokans/papersync/internal/settingsstore"
	"github.com/mrlokans/papersync/internal/syncer"
	"github.com/mrlokans/papersync/internal/zotero"
)

// SyncRunner starts and cancels sync passes.
type SyncRunner interface {
	Start(ctx context.Context, trigger entities.SyncTrigger) (*services.Pass, error)
	Cancel() bool
	State() services.SyncState
}

// SyncSettingsReader exposes the effective settings and the last outcome.
type SyncSettingsReader interface {
	GetSyncSettings() settingsstore.SyncSettings
	GetSyncStatus() settingsstore.SyncStatus
}

type RunHistory interface {
	ListRecent(limit int) ([]entities.SyncRun, error)
}

// SyncTrigger starts a background pass without waiting for it.
type SyncTrigger interface {
	RunNow() error
	GetNextRunTime() *time.Time
}

// PassEnqueuer queues a sync pass as a durable background task.
type PassEnqueuer interface {
	EnqueueSyncPass(trigger entities.SyncTrigger) (string, error)
}

// SyncController exposes sync passes over HTTP.
type SyncController struct {
	cfg       *config.Config
	runner    SyncRunner
	settings  SyncSettingsReader
	runs      RunHistory
	scheduler SyncTrigger
	queue     PassEnqueuer
	newSource func(zotero.Config) syncer.RecordSource
	log       logger.Logger
}

func NewSyncController(cfg *config.Config, runner SyncRunner, settings SyncSettingsReader, runs RunHistory, scheduler SyncTrigger, queue PassEnqueuer, log logger.Logger) *SyncController {
	if log == nil {
		log = logger.Nop()
	}
	return &SyncController{
		cfg:       cfg,
		runner:    runner,
		settings:  settings,
		runs:      runs,
		scheduler: scheduler,
		queue:     queue,
		newSource: func(c zotero.Config) syncer.RecordSource { return zotero.NewClient(c, log) },
		log:       log.With(logger.String("component", "http_sync")),
	}
}

// Run handles POST /api/sync/run
// Streams the progress events of a new pass as newline-delimited JSON.
// The pass is aborted when the client disconnects.
func (sc *SyncController) Run(c *gin.Context) {
	pass, err := sc.runner.Start(c.Request.Context(), entities.SyncTriggerStream)
	if errors.Is(err, services.ErrSyncInProgress) {
		respondCodedError(c, http.StatusConflict, CodeSyncInProgress, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, sc.log, err, "start sync pass")
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	if pass.RunID != "" {
		c.Header("X-Sync-Run-Id", pass.RunID)
	}
	c.Status(http.StatusOK)

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-pass.Events
		if !ok {
			return false
		}
		if err := json.NewEncoder(w).Encode(ev); err != nil {
			sc.log.Warn("failed to write sync event", logger.Error(err))
			return false
		}
		return true
	})

	// The client may be gone; the pass still has to wind down.
	syncer.Drain(pass.Events, nil)
}

// Now handles POST /api/sync/now
// Starts a pass in the background and returns immediately.
func (sc *SyncController) Now(c *gin.Context) {
	if sc.runner.State().Running {
		respondCodedError(c, http.StatusConflict, CodeSyncInProgress, services.ErrSyncInProgress.Error())
		return
	}

	if sc.queue != nil {
		taskID, err := sc.queue.EnqueueSyncPass(entities.SyncTriggerManual)
		if err != nil {
			respondInternalError(c, sc.log, err, "enqueue sync pass")
			return
		}
		respondAccepted(c, "sync enqueued", gin.H{"task_id": taskID})
		return
	}

	if err := sc.scheduler.RunNow(); err != nil {
		respondInternalError(c, sc.log, err, "trigger sync pass")
		return
	}
	respondAccepted(c, "sync started", nil)
}

// Cancel handles POST /api/sync/cancel
func (sc *SyncController) Cancel(c *gin.Context) {
	if !sc.runner.Cancel() {
		respondNotFound(c, "running sync")
		return
	}
	respondSuccess(c, "cancellation requested")
}

// SyncStatusResponse describes the current and last pass.
type SyncStatusResponse struct {
	Current   services.SyncState       `json:"current"`
	Last      settingsstore.SyncStatus `json:"last"`
	Enabled   bool                     `json:"enabled"`
	NextRunAt *time.Time               `json:"next_run_at,omitempty"`
}

// Status handles GET /api/sync/status
func (sc *SyncController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, SyncStatusResponse{
		Current:   sc.runner.State(),
		Last:      sc.settings.GetSyncStatus(),
		Enabled:   sc.settings.GetSyncSettings().Enabled,
		NextRunAt: sc.scheduler.GetNextRunTime(),
	})
}

// Runs handles GET /api/sync/runs
func (sc *SyncController) Runs(c *gin.Context) {
	limit, ok := parseLimitQuery(c, 20, 100)
	if !ok {
		return
	}

	runs, err := sc.runs.ListRecent(limit)
	if err != nil {
		respondInternalError(c, sc.log, err, "list sync runs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// PreviewResponse is the note a pass would write for a record.
type PreviewResponse struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// Preview handles GET /api/sync/preview
// Renders the note for the newest record of the configured folder without
// writing anything.
func (sc *SyncController) Preview(c *gin.Context) {
	passCfg := sc.settings.GetSyncSettings().PassConfig(sc.cfg)
	if strings.TrimSpace(passCfg.Zotero.APIKey) == "" {
		respondCodedError(c, http.StatusBadRequest, CodeNotConfigured, syncer.ErrMissingSourceKey.Error())
		return
	}

	records, err := sc.newSource(passCfg.Zotero).ListTargetRecords(c.Request.Context(), passCfg.Folder, 1)
	if err != nil {
		sc.log.Warn("preview fetch failed", logger.Error(err))
		respondCodedError(c, http.StatusBadGateway, CodeUpstreamUnavailable, err.Error())
		return
	}
	if len(records) == 0 {
		respondNotFound(c, "record")
		return
	}

	record := records[0]
	fields := mapper.FieldsFromRecord(record)
	if fields.Title == "" {
		fields.Title = "Untitled"
	}
	body := mapper.RenderNoteBody(fields)
	html, err := mapper.RenderHTML(body)
	if err != nil {
		respondInternalError(c, sc.log, err, "render preview")
		return
	}

	c.JSON(http.StatusOK, PreviewResponse{
		Key:      record.Key,
		Title:    fields.Title,
		Markdown: body,
		HTML:     html,
	})
}
