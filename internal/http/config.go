package http

import (
	"github.com/mrlokans/papersync/internal/config"
	"github.com/mrlokans/papersync/internal/database"
	"github.com/mrlokans/papersync/internal/database/runs"
	"github.com/mrlokans/papersync/internal/logger"
	"github.com/mrlokans/papersync/internal/lookup"
	"github.com/mrlokans/papersync/internal/scheduler"
	"github.com/mrlokans/papersync/internal/services"
	"github.com/mrlokans/papersync/internal/settingsstore"
	"github.com/mrlokans/papersync/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Config      *config.Config
	Database    *database.Database
	Settings    *settingsstore.SettingsStore
	SyncService *services.SyncService
	Runs        *runs.Repository
	Scheduler   *scheduler.SyncScheduler
	Lookup      *lookup.Service

	// Task queue client (optional)
	TaskClient *tasks.Client

	// Application info
	Version string

	Logger logger.Logger
}
