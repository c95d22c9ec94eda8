package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/papersync/internal/logger"
	"github.com/mrlokans/papersync/internal/settingsstore"
)

// SyncSettingsStore reads and writes sync settings.
type SyncSettingsStore interface {
	GetSyncSettingsInfo() settingsstore.SyncSettingsInfo
	UpdateSyncSettings(u settingsstore.SyncSettingsUpdate) error
	ClearSyncSettings() error
}

type Rescheduler interface {
	Reschedule() error
}

type CacheInvalidator interface {
	Invalidate()
}

// SettingsController handles sync settings endpoints.
type SettingsController struct {
	store     SyncSettingsStore
	scheduler Rescheduler
	lookup    CacheInvalidator
	log       logger.Logger
}

func NewSettingsController(store SyncSettingsStore, scheduler Rescheduler, lookup CacheInvalidator, log logger.Logger) *SettingsController {
	if log == nil {
		log = logger.Nop()
	}
	return &SettingsController{
		store:     store,
		scheduler: scheduler,
		lookup:    lookup,
		log:       log.With(logger.String("component", "http_settings")),
	}
}

// GetSyncSettings handles GET /api/settings/sync
func (sc *SettingsController) GetSyncSettings(c *gin.Context) {
	c.JSON(http.StatusOK, sc.store.GetSyncSettingsInfo())
}

// UpdateSyncSettings handles POST /api/settings/sync
func (sc *SettingsController) UpdateSyncSettings(c *gin.Context) {
	var req settingsstore.SyncSettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if err := sc.store.UpdateSyncSettings(req); err != nil {
		if isValidationError(err) {
			respondCodedError(c, http.StatusBadRequest, CodeValidation, err.Error())
			return
		}
		respondInternalError(c, sc.log, err, "update sync settings")
		return
	}

	sc.applied()
	c.JSON(http.StatusOK, sc.store.GetSyncSettingsInfo())
}

// ResetSyncSettings handles POST /api/settings/sync/reset
// Removes every database override so environment values and defaults apply.
func (sc *SettingsController) ResetSyncSettings(c *gin.Context) {
	if err := sc.store.ClearSyncSettings(); err != nil {
		respondInternalError(c, sc.log, err, "reset sync settings")
		return
	}

	sc.applied()
	c.JSON(http.StatusOK, sc.store.GetSyncSettingsInfo())
}

func (sc *SettingsController) applied() {
	if sc.lookup != nil {
		sc.lookup.Invalidate()
	}
	if sc.scheduler != nil {
		if err := sc.scheduler.Reschedule(); err != nil {
			sc.log.Warn("failed to reschedule sync", logger.Error(err))
		}
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, settingsstore.ErrInvalidSchedule) ||
		errors.Is(err, settingsstore.ErrInvalidBatchSize) ||
		errors.Is(err, settingsstore.ErrInvalidFolder)
}
