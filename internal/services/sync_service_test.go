package services

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mrlokans/papersync/internal/config"
	"github.com/mrlokans/papersync/internal/database/runs"
	"github.com/mrlokans/papersync/internal/entities"
	"github.com/mrlokans/papersync/internal/mapper"
	"github.com/mrlokans/papersync/internal/settingsstore"
	"github.com/mrlokans/papersync/internal/syncer"
	"github.com/mrlokans/papersync/internal/zotero"
)

type stubSettings struct {
	mu      sync.Mutex
	eff     settingsstore.SyncSettings
	status  string
	message string
	created int
}

func (s *stubSettings) GetSyncSettings() settingsstore.SyncSettings { return s.eff }

func (s *stubSettings) SetSyncStatus(status, message string, created int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.message, s.created = status, message, created
	return nil
}

type stubSource struct{ records []zotero.Record }

func (s stubSource) ListTargetRecords(context.Context, string, int) ([]zotero.Record, error) {
	return s.records, nil
}

type stubDestination struct{}

func (stubDestination) GetCollectionSchema(context.Context, string) (*mapper.Schema, error) {
	return &mapper.Schema{}, nil
}
func (stubDestination) ItemExistsByTitle(_ context.Context, _, _, title string) bool {
	return title == "Existing"
}
func (stubDestination) CreateCollectionItem(context.Context, string, string, string, mapper.PropertyMap) (string, error) {
	return "id", nil
}
func (stubDestination) CreateSubpage(context.Context, string, string, string, []string) (string, error) {
	return "id", nil
}

func setupRuns(t *testing.T) *runs.Repository {
	dbPath := "./test_services_" + t.Name() + ".db"
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.SyncRun{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	})
	return runs.NewRepository(db)
}

func newTestService(t *testing.T, titles ...string) (*SyncService, *stubSettings, *runs.Repository) {
	var records []zotero.Record
	for _, title := range titles {
		records = append(records, zotero.Record{Key: title, ItemType: "book", Title: title})
	}
	orchestrator := syncer.NewOrchestrator(
		func(syncer.Config) syncer.RecordSource { return stubSource{records: records} },
		func(syncer.Config) syncer.NoteDestination { return stubDestination{} },
		nil,
	)
	settings := &stubSettings{eff: settingsstore.SyncSettings{
		ZoteroAPIKey:     "zk",
		CraftToken:       "ct",
		ParentDocumentID: "doc1",
		BatchSize:        10,
	}}
	repo := setupRuns(t)
	return NewSyncService(&config.Config{}, settings, repo, orchestrator, nil), settings, repo
}

func TestSyncService_RunAndWait(t *testing.T) {
	svc, settings, repo := newTestService(t, "New", "Existing")

	var events []entities.SyncEvent
	summary, err := svc.RunAndWait(context.Background(), entities.SyncTriggerCLI, func(ev entities.SyncEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)

	assert.Equal(t, syncer.Summary{Created: 1, Skipped: 1}, summary)
	assert.Len(t, events, 5)
	assert.False(t, svc.IsSyncing())

	assert.Equal(t, "completed", settings.status)
	assert.Equal(t, "1 created, 1 skipped, 0 failed", settings.message)
	assert.Equal(t, 1, settings.created)

	latest, err := repo.LatestRun()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, entities.SyncStatusCompleted, latest.Status)
	assert.Equal(t, entities.SyncTriggerCLI, latest.Trigger)
	assert.Equal(t, 2, latest.TotalItems)
	assert.Equal(t, 1, latest.Created)
	assert.Equal(t, "document:doc1", latest.Target)
}

func TestSyncService_RejectsOverlappingPass(t *testing.T) {
	svc, _, _ := newTestService(t, "One")

	pass, err := svc.Start(context.Background(), entities.SyncTriggerStream)
	require.NoError(t, err)
	assert.NotEmpty(t, pass.RunID)

	state := svc.State()
	assert.True(t, state.Running)
	assert.Equal(t, pass.RunID, state.RunID)
	assert.Equal(t, entities.SyncTriggerStream, state.Trigger)

	_, err = svc.Start(context.Background(), entities.SyncTriggerSchedule)
	assert.ErrorIs(t, err, ErrSyncInProgress)

	syncer.Drain(pass.Events, nil)
	assert.Equal(t, SyncState{}, svc.State())

	_, err = svc.RunAndWait(context.Background(), entities.SyncTriggerSchedule, nil)
	assert.NoError(t, err)
}

func TestSyncService_Cancel(t *testing.T) {
	svc, settings, _ := newTestService(t, "One", "Two")

	assert.False(t, svc.Cancel())

	pass, err := svc.Start(context.Background(), entities.SyncTriggerManual)
	require.NoError(t, err)

	first := <-pass.Events
	assert.Equal(t, "Connecting...", first.Title)
	assert.True(t, svc.Cancel())

	summary := syncer.Drain(pass.Events, nil)
	assert.True(t, summary.Aborted)
	assert.Zero(t, summary.Created)
	assert.Equal(t, "aborted", settings.status)
	assert.Equal(t, "0 created, 0 skipped, 0 failed (aborted)", settings.message)
}

func TestSyncService_FailedPassRecordsError(t *testing.T) {
	svc, settings, _ := newTestService(t)
	settings.eff.ParentDocumentID = ""

	summary, err := svc.RunAndWait(context.Background(), entities.SyncTriggerManual, nil)
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusFailed, summary.Status())
	assert.Equal(t, "failed", settings.status)
	assert.Equal(t, syncer.ErrMissingTarget.Error(), settings.message)
}
