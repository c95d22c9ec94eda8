package settings

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/papersync/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_settings_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Setting{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_SetSetting_New(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.SetSetting(entities.SettingKeySyncSchedule, "0 * * * *")
	require.NoError(t, err)

	setting, err := repo.GetSetting(entities.SettingKeySyncSchedule)
	require.NoError(t, err)
	assert.Equal(t, entities.SettingKeySyncSchedule, setting.Key)
	assert.Equal(t, "0 * * * *", setting.Value)
}

func TestRepository_SetSetting_Update(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.SetSetting(entities.SettingKeySyncBatchSize, "10"))
	require.NoError(t, repo.SetSetting(entities.SettingKeySyncBatchSize, "25"))

	setting, err := repo.GetSetting(entities.SettingKeySyncBatchSize)
	require.NoError(t, err)
	assert.Equal(t, "25", setting.Value)
}

func TestRepository_GetSetting_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetSetting("nonexistent")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_SetSettings(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.SetSettings(map[string]string{
		entities.SettingKeyCraftCollectionID: "col1",
		entities.SettingKeyZoteroFolder:      "ABCD",
	})
	require.NoError(t, err)

	col, err := repo.GetSetting(entities.SettingKeyCraftCollectionID)
	require.NoError(t, err)
	assert.Equal(t, "col1", col.Value)

	folder, err := repo.GetSetting(entities.SettingKeyZoteroFolder)
	require.NoError(t, err)
	assert.Equal(t, "ABCD", folder.Value)
}

func TestRepository_DeleteSetting(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.SetSetting(entities.SettingKeyCraftToken, "secret"))
	require.NoError(t, repo.DeleteSetting(entities.SettingKeyCraftToken))

	_, err := repo.GetSetting(entities.SettingKeyCraftToken)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
