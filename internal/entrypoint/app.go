package entrypoint

import (
	"context"
	"fmt"

	"github.com/mrlokans/papersync/internal/config"
	"github.com/mrlokans/papersync/internal/database"
	"github.com/mrlokans/papersync/internal/database/runs"
	"github.com/mrlokans/papersync/internal/database/settings"
	"github.com/mrlokans/papersync/internal/logger"
	"github.com/mrlokans/papersync/internal/lookup"
	"github.com/mrlokans/papersync/internal/scheduler"
	"github.com/mrlokans/papersync/internal/secrets"
	"github.com/mrlokans/papersync/internal/services"
	"github.com/mrlokans/papersync/internal/settingsstore"
	"github.com/mrlokans/papersync/internal/syncer"
	"github.com/mrlokans/papersync/internal/tasks"
)

// App holds the wired components shared by the server and the CLI.
type App struct {
	Config      *config.Config
	Log         logger.Logger
	DB          *database.Database
	Settings    *settingsstore.SettingsStore
	Runs        *runs.Repository
	SyncService *services.SyncService
	Scheduler   *scheduler.SyncScheduler
	Lookup      *lookup.Service
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}

	db, err := database.NewDatabase(cfg.Database.Path, log)
	if err != nil {
		return nil, err
	}

	var opts []settingsstore.Option
	if box, err := openSecretBox(cfg, log); err != nil {
		log.Warn("credentials will be stored unsealed", logger.Error(err))
	} else {
		opts = append(opts, settingsstore.WithSecretBox(box))
	}

	store := settingsstore.New(settings.NewRepository(db.DB), opts...)
	runRepo := runs.NewRepository(db.DB)
	if closed, err := runRepo.CloseInterrupted(); err != nil {
		log.Warn("failed to close interrupted sync runs", logger.Error(err))
	} else if closed > 0 {
		log.Info("closed interrupted sync runs", logger.Int("count", int(closed)))
	}

	syncService := services.NewSyncService(cfg, store, runRepo, syncer.NewDefaultOrchestrator(log), log)

	return &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		Settings:    store,
		Runs:        runRepo,
		SyncService: syncService,
		Scheduler:   scheduler.NewSyncScheduler(store, syncService, log),
		Lookup:      lookup.NewService(cfg, store, log),
	}, nil
}

func openSecretBox(cfg *config.Config, log logger.Logger) (*secrets.Box, error) {
	keyFile := cfg.Secrets.KeyFile
	if keyFile == "" {
		keyFile = secrets.KeyFilePath(cfg.Database.Path)
	}
	key, created, err := secrets.ResolveKey(cfg.Secrets.Key, keyFile)
	if err != nil {
		return nil, err
	}
	if created {
		log.Info("generated credentials key", logger.String("path", keyFile))
	}
	return secrets.NewBoxFromBase64(key)
}

// StartTasks opens the task queue, registers its queues, starts the workers
// and enqueues the run history cleanup.
func (a *App) StartTasks(ctx context.Context) (*tasks.Client, error) {
	client, err := tasks.NewClient(a.Config.Database.Path, tasks.ConfigFrom(a.Config.Tasks), a.Log)
	if err != nil {
		return nil, err
	}

	client.Register(
		tasks.NewSyncPassQueue(a.SyncService, a.Log),
		tasks.NewPruneRunsQueue(a.Runs, a.Log),
	)
	client.Start(ctx)

	if _, err := client.Add(tasks.NewPruneRunsTask(a.Config.Tasks.RunRetention)).Save(); err != nil {
		a.Log.Warn("failed to enqueue run history cleanup", logger.Error(err))
	}
	return client, nil
}

func (a *App) Close() error {
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
