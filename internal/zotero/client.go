// Package zotero reads bibliographic records, collections and groups from
// the Zotero Web API v3.
package zotero

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mrlokans/papersync/internal/apiclient"
	"github.com/mrlokans/papersync/internal/logger"
)

const (
	apiVersion = "3"
	pageSize   = 100
)

// ErrInvalidSelector indicates a folder selector string could not be parsed.
var ErrInvalidSelector = errors.New("invalid folder selector")

// ErrNoUserID indicates the user id is unknown and could not be resolved.
var ErrNoUserID = errors.New("zotero user id not configured")

// Config holds credentials and transport settings.
type Config struct {
	APIKey            string
	UserID            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	MaxRetries        int
}

// Client talks to the Zotero Web API.
type Client struct {
	api *apiclient.Client
	log logger.Logger

	mu     sync.Mutex
	userID string
}

// NewClient creates a client. When cfg.UserID is empty it is resolved from
// the API key on first use.
func NewClient(cfg Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		api: apiclient.New(apiclient.Options{
			Service:           "zotero",
			BaseURL:           cfg.BaseURL,
			Token:             cfg.APIKey,
			Headers:           map[string]string{"Zotero-API-Version": apiVersion},
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
			MaxRetries:        cfg.MaxRetries,
			Logger:            log,
		}),
		log:    log.With(logger.String("component", "zotero")),
		userID: cfg.UserID,
	}
}

// CurrentKey returns information about the configured API key.
func (c *Client) CurrentKey(ctx context.Context) (*KeyInfo, error) {
	var info KeyInfo
	if _, err := c.api.Get(ctx, "get current key", "/keys/current", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// UserID returns the configured user id, resolving it from the key if needed.
func (c *Client) UserID(ctx context.Context) (string, error) {
	c.mu.Lock()
	id := c.userID
	c.mu.Unlock()
	if id != "" {
		return id, nil
	}

	info, err := c.CurrentKey(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoUserID, err)
	}
	if info.UserID == 0 {
		return "", ErrNoUserID
	}

	id = strconv.FormatInt(info.UserID, 10)
	c.mu.Lock()
	c.userID = id
	c.mu.Unlock()
	return id, nil
}

// CheckConnection reports whether the key is accepted.
func (c *Client) CheckConnection(ctx context.Context) bool {
	if _, err := c.CurrentKey(ctx); err != nil {
		c.log.Warn("connection check failed", logger.Error(err))
		return false
	}
	return true
}

// ListTargetRecords returns up to limit top-level records for the selector,
// newest modification first.
func (c *Client) ListTargetRecords(ctx context.Context, selector string, limit int) ([]Record, error) {
	sel, err := ParseFolderSelector(selector)
	if err != nil {
		return nil, err
	}

	prefix, err := c.libraryPrefix(ctx, sel)
	if err != nil {
		return nil, err
	}
	path := prefix
	if sel.FolderKey != "" {
		path += "/collections/" + url.PathEscape(sel.FolderKey)
	}
	path += "/items/top"

	q := url.Values{}
	q.Set("format", "json")
	q.Set("sort", "dateModified")
	q.Set("direction", "desc")
	q.Set("limit", strconv.Itoa(limit))

	var envelopes []itemEnvelope
	if _, err := c.api.Get(ctx, "list records", path, q, &envelopes); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(envelopes))
	for _, env := range envelopes {
		rec := env.Data
		if rec.Key == "" {
			rec.Key = env.Key
		}
		records = append(records, rec)
	}
	return records, nil
}

// ListFolders returns every collection in the personal library.
func (c *Client) ListFolders(ctx context.Context) ([]Folder, error) {
	uid, err := c.UserID(ctx)
	if err != nil {
		return nil, err
	}
	return c.listCollections(ctx, "/users/"+url.PathEscape(uid))
}

// ListGroupFolders returns every collection in a group library.
func (c *Client) ListGroupFolders(ctx context.Context, groupID string) ([]Folder, error) {
	return c.listCollections(ctx, "/groups/"+url.PathEscape(groupID))
}

// ListGroups returns the groups the user belongs to.
func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	uid, err := c.UserID(ctx)
	if err != nil {
		return nil, err
	}

	envs, err := paginate[groupEnvelope](ctx, c.api, "list groups", "/users/"+url.PathEscape(uid)+"/groups")
	if err != nil {
		return nil, err
	}
	groups := make([]Group, 0, len(envs))
	for _, e := range envs {
		groups = append(groups, e.group())
	}
	return groups, nil
}

// ListGroupsWithFolders returns each group with its folders. A group whose
// folders cannot be read is returned with an empty folder list.
func (c *Client) ListGroupsWithFolders(ctx context.Context) ([]GroupFolders, error) {
	groups, err := c.ListGroups(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]GroupFolders, 0, len(groups))
	for _, g := range groups {
		folders, err := c.ListGroupFolders(ctx, g.ID)
		if err != nil {
			c.log.Warn("failed to list group folders",
				logger.String("group_id", g.ID),
				logger.String("group", g.Name),
				logger.Error(err))
			folders = []Folder{}
		}
		result = append(result, GroupFolders{GroupID: g.ID, GroupName: g.Name, Folders: folders})
	}
	return result, nil
}

func (c *Client) listCollections(ctx context.Context, prefix string) ([]Folder, error) {
	envs, err := paginate[collectionEnvelope](ctx, c.api, "list folders", prefix+"/collections")
	if err != nil {
		return nil, err
	}
	folders := make([]Folder, 0, len(envs))
	for _, e := range envs {
		folders = append(folders, e.folder())
	}
	return folders, nil
}

// paginate walks a list endpoint with start/limit until a short page or the
// Total-Results header is reached.
func paginate[T any](ctx context.Context, api *apiclient.Client, op, path string) ([]T, error) {
	var all []T
	start := 0
	for {
		q := url.Values{}
		q.Set("format", "json")
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("start", strconv.Itoa(start))

		var page []T
		header, err := api.Get(ctx, op, path, q, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		start += len(page)

		total := -1
		if v := strings.TrimSpace(header.Get("Total-Results")); v != "" {
			if t, err := strconv.Atoi(v); err == nil {
				total = t
			}
		}
		if len(page) < pageSize || (total >= 0 && start >= total) {
			return all, nil
		}
	}
}

func (c *Client) libraryPrefix(ctx context.Context, sel FolderSelector) (string, error) {
	if sel.Library == LibraryGroup {
		return "/groups/" + url.PathEscape(sel.GroupID), nil
	}
	uid, err := c.UserID(ctx)
	if err != nil {
		return "", err
	}
	return "/users/" + url.PathEscape(uid), nil
}
