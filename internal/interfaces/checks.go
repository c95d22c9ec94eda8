package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/papersync/internal/craft"
	"github.com/mrlokans/papersync/internal/database"
	"github.com/mrlokans/papersync/internal/database/runs"
	"github.com/mrlokans/papersync/internal/database/settings"
	"github.com/mrlokans/papersync/internal/http"
	"github.com/mrlokans/papersync/internal/lookup"
	"github.com/mrlokans/papersync/internal/scheduler"
	"github.com/mrlokans/papersync/internal/services"
	"github.com/mrlokans/papersync/internal/settingsstore"
	"github.com/mrlokans/papersync/internal/syncer"
	"github.com/mrlokans/papersync/internal/tasks"
	"github.com/mrlokans/papersync/internal/zotero"
)

// =============================================================================
// Sync Pipeline
// =============================================================================

var _ syncer.RecordSource = (*zotero.Client)(nil)
var _ syncer.NoteDestination = (*craft.Client)(nil)
var _ syncer.ProgressReporter = (*runs.Tracker)(nil)

// =============================================================================
// Data Access Layer
// =============================================================================

// SettingsRepository implementations
var _ settingsstore.SettingsRepository = (*settings.Repository)(nil)
var _ settingsstore.SettingsRepository = (*database.Database)(nil)

// Run history
var _ services.RunRecorder = (*runs.Repository)(nil)
var _ tasks.RunPruner = (*runs.Repository)(nil)
var _ http.RunHistory = (*runs.Repository)(nil)

// =============================================================================
// Settings Consumers
// =============================================================================

var _ services.SettingsProvider = (*settingsstore.SettingsStore)(nil)
var _ scheduler.SettingsProvider = (*settingsstore.SettingsStore)(nil)
var _ lookup.SettingsProvider = (*settingsstore.SettingsStore)(nil)
var _ http.SyncSettingsReader = (*settingsstore.SettingsStore)(nil)
var _ http.SyncSettingsStore = (*settingsstore.SettingsStore)(nil)
var _ http.ConnectionSettings = (*settingsstore.SettingsStore)(nil)

// =============================================================================
// Pass Coordination
// =============================================================================

var _ scheduler.PassRunner = (*services.SyncService)(nil)
var _ tasks.PassRunner = (*services.SyncService)(nil)
var _ http.SyncRunner = (*services.SyncService)(nil)
var _ http.SyncTrigger = (*scheduler.SyncScheduler)(nil)
var _ http.Rescheduler = (*scheduler.SyncScheduler)(nil)
var _ http.PassEnqueuer = (*tasks.Client)(nil)
var _ http.TaskStatusReader = (*tasks.Client)(nil)

// =============================================================================
// External Services
// =============================================================================

var _ lookup.FolderLister = (*zotero.Client)(nil)
var _ lookup.CollectionLister = (*craft.Client)(nil)
var _ http.Lister = (*lookup.Service)(nil)
var _ http.CacheInvalidator = (*lookup.Service)(nil)
var _ http.ZoteroChecker = (*zotero.Client)(nil)
var _ http.CraftChecker = (*craft.Client)(nil)
