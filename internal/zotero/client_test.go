package zotero

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/papersync/internal/apiclient"
)

func newTestClient(serverURL, userID string) *Client {
	return NewClient(Config{
		APIKey:     "zkey",
		UserID:     userID,
		BaseURL:    serverURL,
		MaxRetries: -1,
	}, nil)
}

const itemsJSON = `[
	{"key":"AAA","data":{"key":"AAA","itemType":"journalArticle","title":"Deep Learning",
		"creators":[{"creatorType":"author","firstName":"Yann","lastName":"LeCun"}],
		"date":"May 2015","dateAdded":"2024-01-15T10:30:00Z","DOI":"10.1038/nature14539",
		"tags":[{"tag":"AI"},{"tag":"Neural Networks"}]}},
	{"key":"BBB","data":{"itemType":"book","title":"Second"}}
]`

func TestClient_ListTargetRecords_PersonalFolder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer zkey", r.Header.Get("Authorization"))
		assert.Equal(t, "3", r.Header.Get("Zotero-API-Version"))
		assert.Equal(t, "/users/42/collections/COLL1/items/top", r.URL.Path)
		assert.Equal(t, "dateModified", r.URL.Query().Get("sort"))
		assert.Equal(t, "desc", r.URL.Query().Get("direction"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(itemsJSON))
	}))
	defer server.Close()

	records, err := newTestClient(server.URL, "42").ListTargetRecords(context.Background(), "user:COLL1", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "AAA", first.Key)
	assert.Equal(t, "Deep Learning", first.Title)
	assert.Equal(t, "10.1038/nature14539", first.DOI)
	assert.Equal(t, []string{"AI", "Neural Networks"}, first.TagNames())
	assert.Equal(t, "BBB", records[1].Key)
}

func TestClient_ListTargetRecords_Paths(t *testing.T) {
	tests := []struct {
		selector string
		path     string
	}{
		{"", "/users/42/items/top"},
		{"COLL1", "/users/42/collections/COLL1/items/top"},
		{"group:777", "/groups/777/items/top"},
		{"group:777:GCOL", "/groups/777/collections/GCOL/items/top"},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			var gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Write([]byte(`[]`))
			}))
			defer server.Close()

			records, err := newTestClient(server.URL, "42").ListTargetRecords(context.Background(), tt.selector, 5)
			require.NoError(t, err)
			assert.Empty(t, records)
			assert.Equal(t, tt.path, gotPath)
		})
	}
}

func TestClient_ListTargetRecords_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("Forbidden"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, "42").ListTargetRecords(context.Background(), "", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apiclient.ErrUpstreamUnavailable))
	assert.Contains(t, err.Error(), "403")
}

func TestClient_ListTargetRecords_InvalidSelector(t *testing.T) {
	_, err := newTestClient("http://unused", "42").ListTargetRecords(context.Background(), "group:", 5)
	assert.True(t, errors.Is(err, ErrInvalidSelector))
}

func TestClient_UserID_ResolvedFromKey(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/keys/current":
			calls++
			w.Write([]byte(`{"key":"zkey","userID":9001,"username":"reader"}`))
		case "/users/9001/collections":
			w.Write([]byte(`[]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, "")
	_, err := client.ListFolders(context.Background())
	require.NoError(t, err)
	_, err = client.ListFolders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestClient_ListFolders_ParentAndPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/42/collections", r.URL.Path)
		start := r.URL.Query().Get("start")
		w.Header().Set("Total-Results", "101")
		if start == "0" {
			w.Write([]byte("["))
			for i := 0; i < 100; i++ {
				if i > 0 {
					w.Write([]byte(","))
				}
				fmt.Fprintf(w, `{"key":"K%d","data":{"key":"K%d","name":"Folder %d","parentCollection":false}}`, i, i, i)
			}
			w.Write([]byte("]"))
			return
		}
		assert.Equal(t, "100", start)
		w.Write([]byte(`[{"key":"CHILD","data":{"key":"CHILD","name":"Child","parentCollection":"K0"}}]`))
	}))
	defer server.Close()

	folders, err := newTestClient(server.URL, "42").ListFolders(context.Background())
	require.NoError(t, err)
	require.Len(t, folders, 101)
	assert.Equal(t, "", folders[0].ParentID)
	assert.Equal(t, Folder{ID: "CHILD", Name: "Child", ParentID: "K0"}, folders[100])
}

func TestClient_ListGroupsWithFolders_DegradesPerGroup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/42/groups":
			w.Write([]byte(`[{"id":1,"data":{"id":1,"name":"Lab"}},{"id":2,"data":{"id":2,"name":"Private"}}]`))
		case "/groups/1/collections":
			w.Write([]byte(`[{"key":"G1C","data":{"name":"Papers","parentCollection":false}}]`))
		case "/groups/2/collections":
			w.WriteHeader(http.StatusForbidden)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	groups, err := newTestClient(server.URL, "42").ListGroupsWithFolders(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "1", groups[0].GroupID)
	assert.Equal(t, "Lab", groups[0].GroupName)
	assert.Equal(t, []Folder{{ID: "G1C", Name: "Papers"}}, groups[0].Folders)

	assert.Equal(t, "2", groups[1].GroupID)
	assert.NotNil(t, groups[1].Folders)
	assert.Empty(t, groups[1].Folders)
}

func TestClient_ListGroupsWithFolders_GroupListFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, "42").ListGroupsWithFolders(context.Background())
	assert.True(t, errors.Is(err, apiclient.ErrUpstreamUnavailable))
}

func TestClient_CheckConnection(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"userID":1}`))
	}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer bad.Close()

	assert.True(t, newTestClient(ok.URL, "").CheckConnection(context.Background()))
	assert.False(t, newTestClient(bad.URL, "").CheckConnection(context.Background()))
}
