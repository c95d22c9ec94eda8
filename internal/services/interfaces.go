package services

import (
	"github.com/mrlokans/papersync/internal/database/runs"
	"github.com/mrlokans/papersync/internal/entities"
	"github.com/mrlokans/papersync/internal/settingsstore"
)

// SettingsProvider supplies the effective sync settings and records the
// outcome of each pass.
type SettingsProvider interface {
	GetSyncSettings() settingsstore.SyncSettings
	SetSyncStatus(status, message string, created int) error
}

// RunRecorder opens a history row for each pass.
type RunRecorder interface {
	Begin(trigger entities.SyncTrigger, folder, target string) (*runs.Tracker, error)
}
