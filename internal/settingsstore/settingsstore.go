// Package settingsstore resolves runtime settings. Each value comes from the
// database when an override is stored, else from the environment, else from
// the built-in default.
package settingsstore

import (
	"errors"
	"os"

	"gorm.io/gorm"

	"github.com/mrlokans/papersync/internal/entities"
	"github.com/mrlokans/papersync/internal/secrets"
)

const (
	SourceDatabase    = "database"
	SourceEnvironment = "environment"
	SourceDefault     = "default"
)

// SettingsRepository is the persistence the store reads overrides from.
type SettingsRepository interface {
	GetSetting(key string) (*entities.Setting, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error
}

// Priority: database > environment > default
type SettingsStore struct {
	repo SettingsRepository
	box  *secrets.Box
}

type Option func(*SettingsStore)

// WithSecretBox seals secret overrides before they are stored.
func WithSecretBox(box *secrets.Box) Option {
	return func(s *SettingsStore) { s.box = box }
}

func New(repo SettingsRepository, opts ...Option) *SettingsStore {
	s := &SettingsStore{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// definition ties a setting key to its environment variable and default.
type definition struct {
	key    string
	env    string
	def    string
	secret bool
}

func (s *SettingsStore) resolve(d definition) (value, source string) {
	setting, err := s.repo.GetSetting(d.key)
	if err == nil && setting.Value != "" {
		if v, ok := s.open(d, setting.Value); ok {
			return v, SourceDatabase
		}
	}
	if d.env != "" {
		if envVal := os.Getenv(d.env); envVal != "" {
			return envVal, SourceEnvironment
		}
	}
	return d.def, SourceDefault
}

// open returns the plain value of a stored override. A sealed value that
// cannot be opened is treated as missing.
func (s *SettingsStore) open(d definition, stored string) (string, bool) {
	if !d.secret || !secrets.IsSealed(stored) {
		return stored, true
	}
	if s.box == nil {
		return "", false
	}
	v, err := s.box.Open(stored)
	if err != nil {
		return "", false
	}
	return v, true
}

// store writes an override, sealing secrets when a box is configured.
func (s *SettingsStore) store(d definition, value string) error {
	if d.secret && s.box != nil {
		sealed, err := s.box.Seal(value)
		if err != nil {
			return err
		}
		value = sealed
	}
	return s.repo.SetSetting(d.key, value)
}

func (s *SettingsStore) value(d definition) string {
	v, _ := s.resolve(d)
	return v
}

func (s *SettingsStore) source(d definition) string {
	_, src := s.resolve(d)
	return src
}

func (s *SettingsStore) clear(keys ...string) error {
	for _, key := range keys {
		err := s.repo.DeleteSetting(key)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return nil
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

// maskToken returns a masked version of the token for display
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
