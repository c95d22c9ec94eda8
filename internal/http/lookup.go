package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/papersync/internal/craft"
	"github.com/mrlokans/papersync/internal/logger"
	"github.com/mrlokans/papersync/internal/lookup"
	"github.com/mrlokans/papersync/internal/zotero"
)

// Lister serves the folder and collection listings.
type Lister interface {
	Folders(ctx context.Context) ([]zotero.Folder, error)
	Groups(ctx context.Context) ([]zotero.GroupFolders, error)
	Collections(ctx context.Context) ([]craft.Collection, error)
}

// LookupController feeds the source and destination pickers.
type LookupController struct {
	lister Lister
	log    logger.Logger
}

func NewLookupController(lister Lister, log logger.Logger) *LookupController {
	if log == nil {
		log = logger.Nop()
	}
	return &LookupController{lister: lister, log: log.With(logger.String("component", "http_lookup"))}
}

// Folders handles GET /api/zotero/folders
func (lc *LookupController) Folders(c *gin.Context) {
	folders, err := lc.lister.Folders(c.Request.Context())
	if err != nil {
		lc.respondLookupError(c, err, "folders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

// Groups handles GET /api/zotero/groups
func (lc *LookupController) Groups(c *gin.Context) {
	groups, err := lc.lister.Groups(c.Request.Context())
	if err != nil {
		lc.respondLookupError(c, err, "groups")
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// Collections handles GET /api/craft/collections
func (lc *LookupController) Collections(c *gin.Context) {
	collections, err := lc.lister.Collections(c.Request.Context())
	if err != nil {
		lc.respondLookupError(c, err, "collections")
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": collections})
}

func (lc *LookupController) respondLookupError(c *gin.Context, err error, what string) {
	if errors.Is(err, lookup.ErrZoteroNotConfigured) || errors.Is(err, lookup.ErrCraftNotConfigured) {
		respondCodedError(c, http.StatusBadRequest, CodeNotConfigured, err.Error())
		return
	}
	lc.log.Warn("lookup failed", logger.String("listing", what), logger.Error(err))
	respondCodedError(c, http.StatusBadGateway, CodeUpstreamUnavailable, err.Error())
}
