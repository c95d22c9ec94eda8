package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/papersync/internal/craft"
	"github.com/mrlokans/papersync/internal/lookup"
	"github.com/mrlokans/papersync/internal/zotero"
)

type stubLister struct {
	folders     []zotero.Folder
	groups      []zotero.GroupFolders
	collections []craft.Collection
	err         error
}

func (s stubLister) Folders(context.Context) ([]zotero.Folder, error) { return s.folders, s.err }
func (s stubLister) Groups(context.Context) ([]zotero.GroupFolders, error) {
	return s.groups, s.err
}
func (s stubLister) Collections(context.Context) ([]craft.Collection, error) {
	return s.collections, s.err
}

func lookupRouter(lister Lister) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := NewLookupController(lister, nil)
	router := gin.New()
	router.GET("/api/zotero/folders", controller.Folders)
	router.GET("/api/zotero/groups", controller.Groups)
	router.GET("/api/craft/collections", controller.Collections)
	return router
}

func getJSON(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestLookupController(t *testing.T) {
	router := lookupRouter(stubLister{
		folders:     []zotero.Folder{{ID: "ABCD", Name: "Papers"}},
		groups:      []zotero.GroupFolders{{GroupID: "7", GroupName: "Lab", Folders: []zotero.Folder{{ID: "EFGH", Name: "Shared"}}}},
		collections: []craft.Collection{{ID: "col1", Name: "Reading List"}},
	})

	w := getJSON(router, "/api/zotero/folders")
	assert.Equal(t, http.StatusOK, w.Code)
	var folders struct {
		Folders []zotero.Folder `json:"folders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &folders))
	assert.Equal(t, "Papers", folders.Folders[0].Name)

	w = getJSON(router, "/api/zotero/groups")
	assert.Equal(t, http.StatusOK, w.Code)
	var groups struct {
		Groups []zotero.GroupFolders `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groups))
	require.Len(t, groups.Groups, 1)
	assert.Equal(t, "Shared", groups.Groups[0].Folders[0].Name)

	w = getJSON(router, "/api/craft/collections")
	assert.Equal(t, http.StatusOK, w.Code)
	var collections struct {
		Collections []craft.Collection `json:"collections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &collections))
	assert.Equal(t, "col1", collections.Collections[0].ID)
}

func TestLookupController_Errors(t *testing.T) {
	w := getJSON(lookupRouter(stubLister{err: lookup.ErrZoteroNotConfigured}), "/api/zotero/folders")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, CodeNotConfigured, resp.Code)

	w = getJSON(lookupRouter(stubLister{err: errors.New("timeout")}), "/api/craft/collections")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, CodeUpstreamUnavailable, resp.Code)
}
