// Package syncer runs sync passes: it pulls a batch of bibliographic records
// from Zotero and turns each one into a Craft note, reporting every step as a
// progress event.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrlokans/papersync/internal/config"
	"github.com/mrlokans/papersync/internal/craft"
	"github.com/mrlokans/papersync/internal/entities"
	"github.com/mrlokans/papersync/internal/logger"
	"github.com/mrlokans/papersync/internal/mapper"
	"github.com/mrlokans/papersync/internal/zotero"
)

const untitled = "Untitled"

// Titles of the pass-level events a caller may want to recognise.
const (
	TitleInvalidConfig = "Invalid configuration"
	TitleFetchFailed   = "Failed to fetch records"
	TitleAborted       = "Sync aborted"
)

var (
	ErrMissingSourceKey = errors.New("zotero api key is not configured")
	ErrMissingTarget    = errors.New("neither a craft collection nor a parent document is configured")
	ErrMissingToken     = errors.New("craft token is not configured")
)

// RecordSource lists the records a pass should process.
type RecordSource interface {
	ListTargetRecords(ctx context.Context, selector string, limit int) ([]zotero.Record, error)
}

// NoteDestination receives the notes.
type NoteDestination interface {
	GetCollectionSchema(ctx context.Context, collectionID string) (*mapper.Schema, error)
	ItemExistsByTitle(ctx context.Context, collectionID, parentDocumentID, title string) bool
	CreateCollectionItem(ctx context.Context, collectionID, title, body string, props mapper.PropertyMap) (string, error)
	CreateSubpage(ctx context.Context, parentDocumentID, title, body string, tags []string) (string, error)
}

// ProgressReporter persists the progress of a pass.
type ProgressReporter interface {
	StartSync(total int) error
	UpdateProgress(processed, created, skipped, failed int, currentItem string) error
	CompleteSync(status entities.SyncStatus, errorMsg string) error
}

type SourceFactory func(cfg Config) RecordSource

type DestinationFactory func(cfg Config) NoteDestination

// Config describes one pass.
type Config struct {
	Zotero           zotero.Config
	Folder           string
	Craft            craft.Config
	CollectionID     string
	ParentDocumentID string
	BatchSize        int
}

func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Zotero.APIKey) == "":
		return ErrMissingSourceKey
	case strings.TrimSpace(c.Craft.Token) == "":
		return ErrMissingToken
	case c.CollectionID == "" && c.ParentDocumentID == "":
		return ErrMissingTarget
	}
	return nil
}

// Target names where notes go, for logs and run history.
func (c Config) Target() string {
	if c.CollectionID != "" {
		return "collection:" + c.CollectionID
	}
	if c.ParentDocumentID != "" {
		return "document:" + c.ParentDocumentID
	}
	return ""
}

type Orchestrator struct {
	newSource      SourceFactory
	newDestination DestinationFactory
	log            logger.Logger
}

func NewOrchestrator(source SourceFactory, destination DestinationFactory, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		newSource:      source,
		newDestination: destination,
		log:            log.With(logger.String("component", "syncer")),
	}
}

// NewDefaultOrchestrator wires the Zotero and Craft API clients.
func NewDefaultOrchestrator(log logger.Logger) *Orchestrator {
	return NewOrchestrator(
		func(cfg Config) RecordSource { return zotero.NewClient(cfg.Zotero, log) },
		func(cfg Config) NoteDestination { return craft.NewClient(cfg.Craft, log) },
		log,
	)
}

type runOptions struct {
	reporter ProgressReporter
}

type RunOption func(*runOptions)

// WithReporter records the pass through r.
func WithReporter(r ProgressReporter) RunOption {
	return func(o *runOptions) { o.reporter = r }
}

// Run starts a pass and returns its progress stream. The channel is closed
// when the pass ends; the caller must drain it. Cancelling ctx stops the pass
// before the next record, the record in flight is finished first.
func (o *Orchestrator) Run(ctx context.Context, cfg Config, opts ...RunOption) <-chan entities.SyncEvent {
	ro := runOptions{reporter: nopReporter{}}
	for _, opt := range opts {
		opt(&ro)
	}

	events := make(chan entities.SyncEvent)
	go func() {
		defer close(events)
		p := &pass{cfg: cfg, reporter: ro.reporter, events: events, log: o.log}
		status, msg := o.run(ctx, p)
		if err := ro.reporter.CompleteSync(status, msg); err != nil {
			o.log.Warn("failed to record sync completion", logger.Error(err))
		}
	}()
	return events
}

type pass struct {
	cfg      Config
	reporter ProgressReporter
	events   chan<- entities.SyncEvent
	log      logger.Logger

	processed, created, skipped, failed int
}

func (p *pass) emit(title string, status entities.EventStatus, detail string) {
	p.events <- entities.SyncEvent{Title: title, Status: status, Detail: detail}
}

func (p *pass) fail(title, detail string) (entities.SyncStatus, string) {
	p.events <- entities.SyncEvent{Title: title, Status: entities.EventError, Detail: detail, Kind: entities.EventKindPassFailed}
	return entities.SyncStatusFailed, detail
}

func (p *pass) abort(detail string) (entities.SyncStatus, string) {
	p.events <- entities.SyncEvent{Title: TitleAborted, Status: entities.EventWarning, Detail: detail, Kind: entities.EventKindPassAborted}
	return entities.SyncStatusAborted, "aborted"
}

func (o *Orchestrator) run(ctx context.Context, p *pass) (entities.SyncStatus, string) {
	cfg := p.cfg
	if err := cfg.Validate(); err != nil {
		return p.fail(TitleInvalidConfig, err.Error())
	}

	p.emit("Connecting...", entities.EventInfo, cfg.Target())
	source := o.newSource(cfg)
	destination := o.newDestination(cfg)

	var schema *mapper.Schema
	if cfg.CollectionID != "" {
		s, err := destination.GetCollectionSchema(ctx, cfg.CollectionID)
		if err != nil {
			p.log.Warn("collection schema unavailable", logger.String("collection_id", cfg.CollectionID), logger.Error(err))
			p.emit("Could not load collection schema", entities.EventWarning, err.Error())
		} else {
			schema = s
		}
	}

	limit := config.ClampBatchSize(cfg.BatchSize)
	p.emit(fmt.Sprintf("Fetching up to %d records...", limit), entities.EventInfo, "")
	records, err := source.ListTargetRecords(ctx, cfg.Folder, limit)
	if err != nil {
		if ctx.Err() != nil {
			p.log.Info("sync aborted while fetching records", logger.Error(err))
			return p.abort("cancelled while fetching records")
		}
		p.log.Error("failed to fetch records", logger.String("folder", cfg.Folder), logger.Error(err))
		return p.fail(TitleFetchFailed, err.Error())
	}
	p.emit(fmt.Sprintf("Found %d records", len(records)), entities.EventSuccess, "")

	if err := p.reporter.StartSync(len(records)); err != nil {
		p.log.Warn("failed to record sync start", logger.Error(err))
	}

	itemCtx := context.WithoutCancel(ctx)
	for _, record := range records {
		if ctx.Err() != nil {
			p.log.Info("sync aborted", logger.Int("processed", p.processed), logger.Int("total", len(records)))
			return p.abort(fmt.Sprintf("%d of %d records processed", p.processed, len(records)))
		}

		ev := o.processRecord(itemCtx, p, destination, schema, record)
		p.tally(ev)
		p.events <- ev
		if err := p.reporter.UpdateProgress(p.processed, p.created, p.skipped, p.failed, ev.Title); err != nil {
			p.log.Warn("failed to record sync progress", logger.Error(err))
		}
	}

	p.log.Info("sync pass finished",
		logger.Int("created", p.created),
		logger.Int("skipped", p.skipped),
		logger.Int("failed", p.failed))
	return entities.SyncStatusCompleted, ""
}

func (p *pass) tally(ev entities.SyncEvent) {
	p.processed++
	switch ev.Status {
	case entities.EventCreated:
		p.created++
	case entities.EventSkipped:
		p.skipped++
	case entities.EventError:
		p.failed++
	}
}

func (o *Orchestrator) processRecord(ctx context.Context, p *pass, destination NoteDestination, schema *mapper.Schema, record zotero.Record) entities.SyncEvent {
	cfg := p.cfg
	title := strings.TrimSpace(record.Title)
	if title == "" {
		title = untitled
	}
	log := p.log.With(logger.String("item_key", record.Key), logger.String("title", title))

	if destination.ItemExistsByTitle(ctx, cfg.CollectionID, cfg.ParentDocumentID, title) {
		log.Debug("item already exists")
		return entities.SyncEvent{Title: title, Status: entities.EventSkipped, Detail: "Already exists"}
	}

	fields := mapper.FieldsFromRecord(record)
	fields.Title = title
	body := mapper.RenderNoteBody(fields)

	var err error
	if cfg.CollectionID != "" {
		res := mapper.MapProperties(fields, schema)
		for _, d := range res.Dropped {
			log.Warn("property dropped", logger.String("field", d.Field), logger.Error(d.Reason))
		}
		_, err = destination.CreateCollectionItem(ctx, cfg.CollectionID, title, body, res.Properties)
	} else {
		_, err = destination.CreateSubpage(ctx, cfg.ParentDocumentID, title, body, fields.Tags)
	}
	if err != nil {
		log.Error("failed to create note", logger.Error(err))
		return entities.SyncEvent{Title: title, Status: entities.EventError, Detail: err.Error()}
	}

	log.Info("note created")
	return entities.SyncEvent{Title: title, Status: entities.EventCreated}
}

type nopReporter struct{}

func (nopReporter) StartSync(int) error                             { return nil }
func (nopReporter) UpdateProgress(int, int, int, int, string) error { return nil }
func (nopReporter) CompleteSync(entities.SyncStatus, string) error  { return nil }
