package craft

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/papersync/internal/apiclient"
	"github.com/mrlokans/papersync/internal/mapper"
)

func newTestClient(serverURL string) *Client {
	return NewClient(Config{Token: "ctoken", BaseURL: serverURL, MaxRetries: -1}, nil)
}

func TestClient_GetCollectionSchema(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ctoken", r.Header.Get("Authorization"))
		assert.Equal(t, "/collections/col1/schema", r.URL.Path)
		w.Write([]byte(`{"properties":[
			{"name":"Year","key":"p1","type":"number"},
			{"name":"Status","key":"p2","type":"select","options":[{"name":"Waiting"},{"name":"Done"}]},
			{"name":"Tags","key":"p3","type":"multi_select","options":[{"name":"AI"}]},
			{"name":"Cover","key":"p4","type":"image"},
			{"name":"Date Added","key":"p5","type":"date"}
		]}`))
	}))
	defer server.Close()

	schema, err := newTestClient(server.URL).GetCollectionSchema(context.Background(), "col1")
	require.NoError(t, err)
	assert.Equal(t, []mapper.FieldDescriptor{
		{Name: "Year", Key: "p1", Type: mapper.FieldNumber},
		{Name: "Status", Key: "p2", Type: mapper.FieldSingleChoice, Options: []string{"Waiting", "Done"}},
		{Name: "Tags", Key: "p3", Type: mapper.FieldMultiChoice, Options: []string{"AI"}},
		{Name: "Date Added", Key: "p5", Type: mapper.FieldDate},
	}, schema.Fields)
}

func TestClient_GetCollectionSchema_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetCollectionSchema(context.Background(), "missing")
	assert.True(t, errors.Is(err, apiclient.ErrUpstreamUnavailable))
}

func TestClient_ItemExistsByTitle_Collection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/col1/items", r.URL.Path)
		w.Write([]byte(`{"items":[{"id":"1","title":"  Deep Learning  "},{"id":"2","title":"Other"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()
	assert.True(t, client.ItemExistsByTitle(ctx, "col1", "", "Deep Learning"))
	assert.True(t, client.ItemExistsByTitle(ctx, "col1", "", " Deep Learning\n"))
	assert.False(t, client.ItemExistsByTitle(ctx, "col1", "", "deep learning"))
	assert.False(t, client.ItemExistsByTitle(ctx, "col1", "", "Deep"))
}

func TestClient_ItemExistsByTitle_ParentDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blocks", r.URL.Path)
		assert.Equal(t, "doc1", r.URL.Query().Get("id"))
		assert.Equal(t, "1", r.URL.Query().Get("maxDepth"))
		w.Write([]byte(`{"id":"doc1","type":"page","markdown":"Reading","content":[
			{"id":"a","type":"text","markdown":"Attention Is All You Need"},
			{"id":"b","type":"page","markdown":"Deep Learning "}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()
	assert.True(t, client.ItemExistsByTitle(ctx, "", "doc1", "Deep Learning"))
	assert.False(t, client.ItemExistsByTitle(ctx, "", "doc1", "Attention Is All You Need"))
}

func TestClient_ItemExistsByTitle_FailsOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.False(t, client.ItemExistsByTitle(context.Background(), "col1", "", "Deep Learning"))
	assert.False(t, client.ItemExistsByTitle(context.Background(), "", "doc1", "Deep Learning"))
}

func TestClient_ItemExistsByTitle_NoTarget(t *testing.T) {
	assert.False(t, newTestClient("http://unused").ItemExistsByTitle(context.Background(), "", "", "x"))
}

func TestClient_CreateCollectionItem(t *testing.T) {
	var createReq createItemsRequest
	var appendReq insertBlocksRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		switch r.URL.Path {
		case "/collections/col1/items":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&createReq))
			w.Write([]byte(`{"items":[{"id":"item-9"}]}`))
		case "/blocks":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&appendReq))
			w.Write([]byte(`{"items":[{"id":"blk"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	id, err := newTestClient(server.URL).CreateCollectionItem(context.Background(), "col1", "Deep Learning", "**Year:** 2015", mapper.PropertyMap{"p1": 2015})
	require.NoError(t, err)
	assert.Equal(t, "item-9", id)

	require.Len(t, createReq.Items, 1)
	assert.Equal(t, "Deep Learning", createReq.Items[0].Title)
	assert.Equal(t, float64(2015), createReq.Items[0].Properties["p1"])

	assert.Equal(t, "end", appendReq.Position.Position)
	assert.Equal(t, "item-9", appendReq.Position.PageID)
	require.Len(t, appendReq.Blocks, 1)
	assert.Equal(t, "**Year:** 2015", appendReq.Blocks[0].Markdown)
}

func TestClient_CreateCollectionItem_AttachFailureStillCreated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/blocks" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"items":[{"id":"item-1"}]}`))
	}))
	defer server.Close()

	id, err := newTestClient(server.URL).CreateCollectionItem(context.Background(), "col1", "T", "body", nil)
	require.NoError(t, err)
	assert.Equal(t, "item-1", id)
}

func TestClient_CreateCollectionItem_CreateFailed(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"unknown option"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CreateCollectionItem(context.Background(), "col1", "T", "body", nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, errors.Is(err, apiclient.ErrCreateFailed))

	var se *apiclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	assert.Contains(t, se.Body, "unknown option")
}

func TestClient_CreateSubpage(t *testing.T) {
	var req insertBlocksRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blocks", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Write([]byte(`{"items":[{"id":"page-3"}]}`))
	}))
	defer server.Close()

	id, err := newTestClient(server.URL).CreateSubpage(context.Background(), "doc1", "Deep Learning", "body text", []string{"ml"})
	require.NoError(t, err)
	assert.Equal(t, "page-3", id)

	assert.Equal(t, blockPosition{Position: "end", PageID: "doc1"}, req.Position)
	require.Len(t, req.Blocks, 1)
	page := req.Blocks[0]
	assert.Equal(t, "page", page.Type)
	assert.Equal(t, "Deep Learning", page.Markdown)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "body text", page.Content[0].Markdown)
}

func TestClient_ListCollectionsAndCheckConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ctoken" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"items":[{"id":"c1","name":"Papers"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	cols, err := client.ListCollections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Collection{{ID: "c1", Name: "Papers"}}, cols)
	assert.True(t, client.CheckConnection(context.Background()))

	bad := NewClient(Config{Token: "wrong", BaseURL: server.URL, MaxRetries: -1}, nil)
	assert.False(t, bad.CheckConnection(context.Background()))
}

func TestBlock_PageTitle(t *testing.T) {
	assert.Equal(t, "Title", Block{Title: " Title ", Markdown: "ignored"}.PageTitle())
	assert.Equal(t, "Heading", Block{Markdown: "# Heading"}.PageTitle())
}
