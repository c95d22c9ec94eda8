// Package craft writes reading notes into a Craft space through its
// documents API: collection items with typed properties, or sub-pages under
// a parent document.
package craft

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mrlokans/papersync/internal/apiclient"
	"github.com/mrlokans/papersync/internal/logger"
	"github.com/mrlokans/papersync/internal/mapper"
)

// Config holds credentials and transport settings.
type Config struct {
	Token             string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	MaxRetries        int
}

// Client talks to the documents API.
type Client struct {
	api *apiclient.Client
	log logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		api: apiclient.New(apiclient.Options{
			Service:           "craft",
			BaseURL:           cfg.BaseURL,
			Token:             cfg.Token,
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
			MaxRetries:        cfg.MaxRetries,
			Logger:            log,
		}),
		log: log.With(logger.String("component", "craft")),
	}
}

// ListCollections returns the collections visible to the token.
func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	var resp collectionsResponse
	if _, err := c.api.Get(ctx, "list collections", "/collections", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return []Collection{}, nil
	}
	return resp.Items, nil
}

// CheckConnection reports whether the token is accepted.
func (c *Client) CheckConnection(ctx context.Context) bool {
	if _, err := c.ListCollections(ctx); err != nil {
		c.log.Warn("connection check failed", logger.Error(err))
		return false
	}
	return true
}

// GetCollectionSchema returns the field list of a collection. Properties of
// an unsupported type are left out.
func (c *Client) GetCollectionSchema(ctx context.Context, collectionID string) (*mapper.Schema, error) {
	var resp schemaResponse
	path := "/collections/" + url.PathEscape(collectionID) + "/schema"
	if _, err := c.api.Get(ctx, "get collection schema", path, nil, &resp); err != nil {
		return nil, err
	}

	schema := &mapper.Schema{Fields: make([]mapper.FieldDescriptor, 0, len(resp.Properties))}
	for _, p := range resp.Properties {
		ft, ok := wireFieldTypes[p.Type]
		if !ok {
			c.log.Debug("skipping unsupported property type",
				logger.String("property", p.Name),
				logger.String("type", p.Type))
			continue
		}
		desc := mapper.FieldDescriptor{Name: p.Name, Key: p.Key, Type: ft}
		if ft.IsChoice() {
			for _, o := range p.Options {
				desc.Options = append(desc.Options, o.Name)
			}
		}
		schema.Fields = append(schema.Fields, desc)
	}
	return schema, nil
}

// ItemExistsByTitle reports whether a note titled title already exists in
// the collection, or as a page directly under the parent document when no
// collection is given. Titles are compared exactly after trimming. Lookup
// failures count as not found.
func (c *Client) ItemExistsByTitle(ctx context.Context, collectionID, parentDocumentID, title string) bool {
	want := strings.TrimSpace(title)

	switch {
	case collectionID != "":
		var resp itemsResponse
		path := "/collections/" + url.PathEscape(collectionID) + "/items"
		if _, err := c.api.Get(ctx, "list collection items", path, nil, &resp); err != nil {
			c.log.Warn("existence check failed, assuming absent",
				logger.String("title", want), logger.Error(err))
			return false
		}
		for _, item := range resp.Items {
			if strings.TrimSpace(item.Title) == want {
				return true
			}
		}

	case parentDocumentID != "":
		var doc Block
		q := url.Values{"id": {parentDocumentID}, "maxDepth": {"1"}}
		if _, err := c.api.Get(ctx, "list document blocks", "/blocks", q, &doc); err != nil {
			c.log.Warn("existence check failed, assuming absent",
				logger.String("title", want), logger.Error(err))
			return false
		}
		for _, b := range doc.Content {
			if b.Type == blockTypePage && b.PageTitle() == want {
				return true
			}
		}
	}

	return false
}

// CreateCollectionItem creates an item and then appends body under it. The
// item counts as created once the first step succeeds; a failure to attach
// the body is logged and not returned.
func (c *Client) CreateCollectionItem(ctx context.Context, collectionID, title, body string, props mapper.PropertyMap) (string, error) {
	req := createItemsRequest{Items: []newItem{{Title: title, Properties: props}}}
	var resp createdResponse
	path := "/collections/" + url.PathEscape(collectionID) + "/items"
	if err := c.api.Post(ctx, "create collection item", path, req, &resp, apiclient.ErrCreateFailed); err != nil {
		return "", err
	}
	itemID := resp.firstID()
	if itemID == "" {
		return "", fmt.Errorf("craft create collection item: %w: response carried no id", apiclient.ErrCreateFailed)
	}

	if body != "" {
		if err := c.appendBlocks(ctx, itemID, []Block{{Type: blockTypeText, Markdown: body}}); err != nil {
			c.log.Warn("item created without body",
				logger.String("item_id", itemID),
				logger.String("title", title),
				logger.Error(err))
		}
	}
	return itemID, nil
}

// CreateSubpage appends a page titled title, containing body, to the end of
// the parent document. Pages carry no tag property, so tags are expected in
// the rendered body and are only logged here.
func (c *Client) CreateSubpage(ctx context.Context, parentDocumentID, title, body string, tags []string) (string, error) {
	c.log.Debug("creating subpage",
		logger.String("parent_document_id", parentDocumentID),
		logger.String("title", title),
		logger.Int("tags", len(tags)))

	page := Block{Type: blockTypePage, Markdown: title}
	if body != "" {
		page.Content = []Block{{Type: blockTypeText, Markdown: body}}
	}
	req := insertBlocksRequest{
		Blocks:   []Block{page},
		Position: blockPosition{Position: "end", PageID: parentDocumentID},
	}

	var resp createdResponse
	if err := c.api.Post(ctx, "create subpage", "/blocks", req, &resp, apiclient.ErrCreateFailed); err != nil {
		return "", err
	}
	return resp.firstID(), nil
}

func (c *Client) appendBlocks(ctx context.Context, pageID string, blocks []Block) error {
	req := insertBlocksRequest{
		Blocks:   blocks,
		Position: blockPosition{Position: "end", PageID: pageID},
	}
	return c.api.Post(ctx, "append blocks", "/blocks", req, nil, apiclient.ErrContentAttachFailed)
}
