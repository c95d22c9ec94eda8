package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/papersync/internal/config"
	"github.com/mrlokans/papersync/internal/craft"
	"github.com/mrlokans/papersync/internal/logger"
	"github.com/mrlokans/papersync/internal/settingsstore"
	"github.com/mrlokans/papersync/internal/zotero"
)

type ZoteroChecker interface {
	CheckConnection(ctx context.Context) bool
	UserID(ctx context.Context) (string, error)
}

type CraftChecker interface {
	CheckConnection(ctx context.Context) bool
}

// ConnectionSettings exposes credentials and stores the resolved user id.
type ConnectionSettings interface {
	GetSyncSettings() settingsstore.SyncSettings
	SetZoteroUserID(userID string) error
}

type ServiceStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	UserID     string `json:"user_id,omitempty"`
}

type ConnectionsResponse struct {
	Zotero ServiceStatus `json:"zotero"`
	Craft  ServiceStatus `json:"craft"`
}

// ConnectionsController verifies the configured credentials.
type ConnectionsController struct {
	cfg       *config.Config
	settings  ConnectionSettings
	newZotero func(zotero.Config) ZoteroChecker
	newCraft  func(craft.Config) CraftChecker
	log       logger.Logger
}

func NewConnectionsController(cfg *config.Config, settings ConnectionSettings, log logger.Logger) *ConnectionsController {
	if log == nil {
		log = logger.Nop()
	}
	return &ConnectionsController{
		cfg:       cfg,
		settings:  settings,
		newZotero: func(c zotero.Config) ZoteroChecker { return zotero.NewClient(c, log) },
		newCraft:  func(c craft.Config) CraftChecker { return craft.NewClient(c, log) },
		log:       log.With(logger.String("component", "http_connections")),
	}
}

// Check handles POST /api/connections/check
func (cc *ConnectionsController) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	eff := cc.settings.GetSyncSettings()
	passCfg := eff.PassConfig(cc.cfg)
	var resp ConnectionsResponse

	if strings.TrimSpace(eff.ZoteroAPIKey) != "" {
		resp.Zotero.Configured = true
		client := cc.newZotero(passCfg.Zotero)
		resp.Zotero.Connected = client.CheckConnection(ctx)
		resp.Zotero.UserID = eff.ZoteroUserID
		if resp.Zotero.Connected && eff.ZoteroUserID == "" {
			resp.Zotero.UserID = cc.resolveUserID(ctx, client)
		}
	}

	if strings.TrimSpace(eff.CraftToken) != "" {
		resp.Craft.Configured = true
		resp.Craft.Connected = cc.newCraft(passCfg.Craft).CheckConnection(ctx)
	}

	c.JSON(http.StatusOK, resp)
}

func (cc *ConnectionsController) resolveUserID(ctx context.Context, client ZoteroChecker) string {
	userID, err := client.UserID(ctx)
	if err != nil {
		cc.log.Warn("failed to resolve zotero user id", logger.Error(err))
		return ""
	}
	if err := cc.settings.SetZoteroUserID(userID); err != nil {
		cc.log.Warn("failed to store zotero user id", logger.Error(err))
	}
	return userID
}
