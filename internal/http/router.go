package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/papersync/internal/logger"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	router := gin.New()
	router.Use(RequestLogger(log.With(logger.String("component", "http"))))
	router.Use(gin.Recovery())

	var queue PassEnqueuer
	if cfg.TaskClient != nil {
		queue = cfg.TaskClient
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	syncController := NewSyncController(cfg.Config, cfg.SyncService, cfg.Settings, cfg.Runs, cfg.Scheduler, queue, log)
	settingsController := NewSettingsController(cfg.Settings, cfg.Scheduler, cfg.Lookup, log)
	lookupController := NewLookupController(cfg.Lookup, log)
	connectionsController := NewConnectionsController(cfg.Config, cfg.Settings, log)

	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	api := router.Group("/api")
	{
		syncGroup := api.Group("/sync")
		syncGroup.POST("/run", syncController.Run)
		syncGroup.POST("/now", syncController.Now)
		syncGroup.POST("/cancel", syncController.Cancel)
		syncGroup.GET("/status", syncController.Status)
		syncGroup.GET("/runs", syncController.Runs)
		syncGroup.GET("/preview", syncController.Preview)

		api.GET("/settings/sync", settingsController.GetSyncSettings)
		api.POST("/settings/sync", settingsController.UpdateSyncSettings)
		api.POST("/settings/sync/reset", settingsController.ResetSyncSettings)

		api.GET("/zotero/folders", lookupController.Folders)
		api.GET("/zotero/groups", lookupController.Groups)
		api.GET("/craft/collections", lookupController.Collections)

		api.POST("/connections/check", connectionsController.Check)

		if cfg.TaskClient != nil {
			tasksController := NewTasksController(cfg.TaskClient)
			api.GET("/tasks/:id", tasksController.GetTaskStatus)
		}
	}

	return router
}
