package settingsstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/papersync/internal/config"
	"github.com/mrlokans/papersync/internal/entities"
)

func clearSyncEnv(t *testing.T) {
	for _, key := range []string{
		"ZOTERO_API_KEY", "ZOTERO_USER_ID", "ZOTERO_FOLDER",
		"CRAFT_TOKEN", "CRAFT_COLLECTION_ID", "CRAFT_PARENT_DOCUMENT_ID",
		"SYNC_ENABLED", "SYNC_SCHEDULE", "SYNC_BATCH_SIZE",
	} {
		unsetEnv(t, key)
	}
}

func ptr[T any](v T) *T { return &v }

func TestSyncSettings_Defaults(t *testing.T) {
	clearSyncEnv(t)
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := New(db)

	eff := store.GetSyncSettings()
	assert.False(t, eff.Enabled)
	assert.Equal(t, config.DefaultSyncSchedule, eff.Schedule)
	assert.Equal(t, config.DefaultBatchSize, eff.BatchSize)
	assert.Empty(t, eff.ZoteroAPIKey)

	info := store.GetSyncSettingsInfo()
	assert.Equal(t, SourceDefault, info.EnabledSource)
	assert.Equal(t, SourceDefault, info.ScheduleSource)
	assert.Equal(t, "Every 6 hours", info.ScheduleDescription)
	assert.False(t, info.HasZoteroAPIKey)
	assert.False(t, info.HasCraftToken)
	assert.Nil(t, info.NextRunAt)
}

func TestSyncSettings_EnvironmentAndDatabase(t *testing.T) {
	clearSyncEnv(t)
	t.Setenv("ZOTERO_API_KEY", "env-zotero-key-123")
	t.Setenv("SYNC_ENABLED", "1")
	t.Setenv("SYNC_BATCH_SIZE", "500")

	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := New(db)

	eff := store.GetSyncSettings()
	assert.True(t, eff.Enabled)
	assert.Equal(t, "env-zotero-key-123", eff.ZoteroAPIKey)
	assert.Equal(t, config.MaxBatchSize, eff.BatchSize)

	require.NoError(t, store.UpdateSyncSettings(SyncSettingsUpdate{
		Enabled:      ptr(false),
		BatchSize:    ptr(5),
		ZoteroAPIKey: ptr("db-zotero-key-456"),
		CraftToken:   ptr("craft-token-789"),
		CollectionID: ptr(" col1 "),
	}))

	info := store.GetSyncSettingsInfo()
	assert.False(t, info.Enabled)
	assert.Equal(t, SourceDatabase, info.EnabledSource)
	assert.Equal(t, 5, info.BatchSize)
	assert.Equal(t, "db-z****-456", info.ZoteroAPIKey)
	assert.Equal(t, SourceDatabase, info.ZoteroAPIKeySource)
	assert.True(t, info.HasCraftToken)
	assert.Equal(t, "col1", info.CollectionID)
}

func TestUpdateSyncSettings_EmptyStringClearsOverride(t *testing.T) {
	clearSyncEnv(t)
	t.Setenv("CRAFT_COLLECTION_ID", "env-col")
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := New(db)

	require.NoError(t, store.UpdateSyncSettings(SyncSettingsUpdate{CollectionID: ptr("db-col")}))
	assert.Equal(t, "db-col", store.GetSyncSettings().CollectionID)

	require.NoError(t, store.UpdateSyncSettings(SyncSettingsUpdate{CollectionID: ptr("")}))
	assert.Equal(t, "env-col", store.GetSyncSettings().CollectionID)
	assert.Equal(t, SourceEnvironment, store.GetSyncSettingsInfo().CollectionIDSource)
}

func TestUpdateSyncSettings_Validation(t *testing.T) {
	clearSyncEnv(t)
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := New(db)

	err := store.UpdateSyncSettings(SyncSettingsUpdate{Schedule: ptr("not a cron")})
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	err = store.UpdateSyncSettings(SyncSettingsUpdate{BatchSize: ptr(0)})
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	err = store.UpdateSyncSettings(SyncSettingsUpdate{BatchSize: ptr(51)})
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	err = store.UpdateSyncSettings(SyncSettingsUpdate{Folder: ptr("team:1")})
	assert.ErrorIs(t, err, ErrInvalidFolder)

	require.NoError(t, store.UpdateSyncSettings(SyncSettingsUpdate{Schedule: ptr("*/30 * * * *"), Folder: ptr("group:42:ABCD")}))
	eff := store.GetSyncSettings()
	assert.Equal(t, "*/30 * * * *", eff.Schedule)
	assert.Equal(t, "group:42:ABCD", eff.Folder)
}

func TestClearSyncSettings(t *testing.T) {
	clearSyncEnv(t)
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := New(db)

	require.NoError(t, store.UpdateSyncSettings(SyncSettingsUpdate{
		Enabled:  ptr(true),
		Schedule: ptr("0 0 * * *"),
		Folder:   ptr("ABCD"),
	}))
	require.NoError(t, store.ClearSyncSettings())

	info := store.GetSyncSettingsInfo()
	assert.Equal(t, SourceDefault, info.EnabledSource)
	assert.Equal(t, SourceDefault, info.ScheduleSource)
	assert.Equal(t, SourceDefault, info.FolderSource)
}

func TestSyncStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := New(db)

	assert.Equal(t, SyncStatus{}, store.GetSyncStatus())

	before := time.Now().Add(-time.Second)
	require.NoError(t, store.SetSyncStatus(string(entities.SyncStatusCompleted), "3 created, 2 skipped", 3))

	status := store.GetSyncStatus()
	require.NotNil(t, status.LastSyncAt)
	assert.True(t, status.LastSyncAt.After(before))
	assert.Equal(t, "completed", status.Status)
	assert.Equal(t, "3 created, 2 skipped", status.Message)
	assert.Equal(t, 3, status.Created)
}

func TestPassConfig(t *testing.T) {
	cfg := &config.Config{
		Zotero: config.Zotero{BaseURL: "https://zotero.test", MaxRetries: 2},
		Craft:  config.Craft{BaseURL: "https://craft.test", RequestsPerMinute: 30},
	}
	eff := SyncSettings{
		ZoteroAPIKey: "zk",
		Folder:       "ABCD",
		CraftToken:   "ct",
		CollectionID: "col1",
		BatchSize:    7,
	}

	pass := eff.PassConfig(cfg)
	assert.Equal(t, "zk", pass.Zotero.APIKey)
	assert.Equal(t, "https://zotero.test", pass.Zotero.BaseURL)
	assert.Equal(t, 2, pass.Zotero.MaxRetries)
	assert.Equal(t, "ct", pass.Craft.Token)
	assert.Equal(t, 30, pass.Craft.RequestsPerMinute)
	assert.Equal(t, "ABCD", pass.Folder)
	assert.Equal(t, "col1", pass.CollectionID)
	assert.Equal(t, 7, pass.BatchSize)
	assert.NoError(t, pass.Validate())
}

func TestCronHelpers(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("0 */6 * * *"))
	assert.Error(t, ValidateCronSchedule("every day"))
	assert.Equal(t, "Daily at midnight", GetCronDescription("0 0 * * *"))
	assert.Equal(t, "Custom schedule: 5 4 * * *", GetCronDescription("5 4 * * *"))

	next, err := GetNextRunTime("*/15 * * * *")
	require.NoError(t, err)
	assert.True(t, next.After(time.Now()))
	assert.WithinDuration(t, time.Now(), *next, 15*time.Minute+time.Second)
}
