// Package database provides the data access layer for the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── settings/        # Persisted settings
//	└── runs/            # Sync run history and progress
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./papersync.db", log)
//
//	settingsRepo := settings.NewRepository(db.DB)
//	runsRepo := runs.NewRepository(db.DB)
//
//	tracker, err := runsRepo.Begin(entities.SyncTriggerManual, folder, target)
//
// # Interface Implementations
//
//   - settings.Repository: implements settingsstore.SettingsRepository
//   - runs.Tracker: implements syncer.ProgressReporter
//   - runs.Repository: implements http.RunStore
package database
