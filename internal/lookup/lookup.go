// Package lookup serves the folder, group and collection listings used to
// pick a sync source and destination. Listings are cached briefly.
package lookup

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mrlokans/papersync/internal/config"
	"github.com/mrlokans/papersync/internal/craft"
	"github.com/mrlokans/papersync/internal/logger"
	"github.com/mrlokans/papersync/internal/settingsstore"
	"github.com/mrlokans/papersync/internal/zotero"
)

var (
	ErrZoteroNotConfigured = errors.New("zotero api key is not configured")
	ErrCraftNotConfigured  = errors.New("craft token is not configured")
)

const (
	keyFolders     = "zotero:folders"
	keyGroups      = "zotero:groups"
	keyCollections = "craft:collections"
)

type SettingsProvider interface {
	GetSyncSettings() settingsstore.SyncSettings
}

type FolderLister interface {
	ListFolders(ctx context.Context) ([]zotero.Folder, error)
	ListGroupsWithFolders(ctx context.Context) ([]zotero.GroupFolders, error)
}

type CollectionLister interface {
	ListCollections(ctx context.Context) ([]craft.Collection, error)
}

type Service struct {
	cfg       *config.Config
	settings  SettingsProvider
	newZotero func(zotero.Config) FolderLister
	newCraft  func(craft.Config) CollectionLister
	cache     *expirable.LRU[string, any]
	log       logger.Logger
}

func NewService(cfg *config.Config, settings SettingsProvider, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		cfg:       cfg,
		settings:  settings,
		newZotero: func(c zotero.Config) FolderLister { return zotero.NewClient(c, log) },
		newCraft:  func(c craft.Config) CollectionLister { return craft.NewClient(c, log) },
		cache:     expirable.NewLRU[string, any](cacheSize(cfg), nil, cacheTTL(cfg)),
		log:       log.With(logger.String("component", "lookup")),
	}
}

func cacheSize(cfg *config.Config) int {
	if cfg.Lookup.CacheSize > 0 {
		return cfg.Lookup.CacheSize
	}
	return 64
}

func cacheTTL(cfg *config.Config) time.Duration {
	if cfg.Lookup.CacheTTL > 0 {
		return cfg.Lookup.CacheTTL
	}
	return 5 * time.Minute
}

// Folders lists the folders of the personal library.
func (s *Service) Folders(ctx context.Context) ([]zotero.Folder, error) {
	return cached(s, keyFolders, func() ([]zotero.Folder, error) {
		client, err := s.zoteroClient()
		if err != nil {
			return nil, err
		}
		return client.ListFolders(ctx)
	})
}

// Groups lists the groups the key can read, each with its folders.
func (s *Service) Groups(ctx context.Context) ([]zotero.GroupFolders, error) {
	return cached(s, keyGroups, func() ([]zotero.GroupFolders, error) {
		client, err := s.zoteroClient()
		if err != nil {
			return nil, err
		}
		return client.ListGroupsWithFolders(ctx)
	})
}

// Collections lists the destination collections.
func (s *Service) Collections(ctx context.Context) ([]craft.Collection, error) {
	return cached(s, keyCollections, func() ([]craft.Collection, error) {
		eff := s.settings.GetSyncSettings()
		if eff.CraftToken == "" {
			return nil, ErrCraftNotConfigured
		}
		return s.newCraft(eff.PassConfig(s.cfg).Craft).ListCollections(ctx)
	})
}

// Invalidate drops every cached listing. Call it when credentials change.
func (s *Service) Invalidate() {
	s.cache.Purge()
}

func (s *Service) zoteroClient() (FolderLister, error) {
	eff := s.settings.GetSyncSettings()
	if eff.ZoteroAPIKey == "" {
		return nil, ErrZoteroNotConfigured
	}
	return s.newZotero(eff.PassConfig(s.cfg).Zotero), nil
}

// cached returns the value under key, loading and storing it on a miss.
// Failed loads are not cached.
func cached[T any](s *Service, key string, load func() (T, error)) (T, error) {
	if v, ok := s.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	s.cache.Add(key, v)
	s.log.Debug("lookup cached", logger.String("key", key))
	return v, nil
}
