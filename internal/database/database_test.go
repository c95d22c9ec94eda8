package database

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/papersync/internal/entities"
)

func setupTestDB(t *testing.T) (*Database, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := NewDatabase(dbPath, nil)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func TestNewDatabase_Migrates(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	assert.True(t, db.DB.Migrator().HasTable(&entities.Setting{}))
	assert.True(t, db.DB.Migrator().HasTable(&entities.SyncRun{}))
	assert.NoError(t, db.Ping(context.Background()))
}

func TestDatabase_Settings(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	t.Run("missing key", func(t *testing.T) {
		_, err := db.GetSetting(entities.SettingKeyZoteroFolder)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("set then update", func(t *testing.T) {
		require.NoError(t, db.SetSetting(entities.SettingKeyZoteroFolder, "ABCD"))
		require.NoError(t, db.SetSetting(entities.SettingKeyZoteroFolder, "group:1:EFGH"))

		setting, err := db.GetSetting(entities.SettingKeyZoteroFolder)
		require.NoError(t, err)
		assert.Equal(t, "group:1:EFGH", setting.Value)

		var count int64
		db.DB.Model(&entities.Setting{}).Where("key = ?", entities.SettingKeyZoteroFolder).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, db.DeleteSetting(entities.SettingKeyZoteroFolder))
		_, err := db.GetSetting(entities.SettingKeyZoteroFolder)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}
