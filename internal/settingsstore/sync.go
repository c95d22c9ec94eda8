package settingsstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/papersync/internal/config"
	"github.com/mrlokans/papersync/internal/craft"
	"github.com/mrlokans/papersync/internal/entities"
	"github.com/mrlokans/papersync/internal/syncer"
	"github.com/mrlokans/papersync/internal/zotero"
)

var (
	ErrInvalidSchedule  = errors.New("invalid cron schedule")
	ErrInvalidBatchSize = errors.New("batch size out of range")
	ErrInvalidFolder    = errors.New("invalid folder selector")
)

var (
	zoteroAPIKey = definition{key: entities.SettingKeyZoteroAPIKey, env: "ZOTERO_API_KEY", secret: true}
	zoteroUserID = definition{key: entities.SettingKeyZoteroUserID, env: "ZOTERO_USER_ID"}
	zoteroFolder = definition{key: entities.SettingKeyZoteroFolder, env: "ZOTERO_FOLDER"}

	craftToken            = definition{key: entities.SettingKeyCraftToken, env: "CRAFT_TOKEN", secret: true}
	craftCollectionID     = definition{key: entities.SettingKeyCraftCollectionID, env: "CRAFT_COLLECTION_ID"}
	craftParentDocumentID = definition{key: entities.SettingKeyCraftParentDocumentID, env: "CRAFT_PARENT_DOCUMENT_ID"}

	syncEnabled   = definition{key: entities.SettingKeySyncEnabled, env: "SYNC_ENABLED", def: "false"}
	syncSchedule  = definition{key: entities.SettingKeySyncSchedule, env: "SYNC_SCHEDULE", def: config.DefaultSyncSchedule}
	syncBatchSize = definition{key: entities.SettingKeySyncBatchSize, env: "SYNC_BATCH_SIZE", def: strconv.Itoa(config.DefaultBatchSize)}
)

// SyncSettings is the effective configuration of a sync pass.
type SyncSettings struct {
	Enabled          bool
	Schedule         string
	BatchSize        int
	ZoteroAPIKey     string
	ZoteroUserID     string
	Folder           string
	CraftToken       string
	CollectionID     string
	ParentDocumentID string
}

// SyncSettingsInfo includes source information for each field. Secrets are
// masked.
type SyncSettingsInfo struct {
	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"` // "database", "environment", "default"

	Schedule            string     `json:"schedule"`
	ScheduleSource      string     `json:"schedule_source"`
	ScheduleDescription string     `json:"schedule_description"`
	NextRunAt           *time.Time `json:"next_run_at,omitempty"`

	BatchSize       int    `json:"batch_size"`
	BatchSizeSource string `json:"batch_size_source"`

	ZoteroAPIKey       string `json:"zotero_api_key"`
	ZoteroAPIKeySource string `json:"zotero_api_key_source"`
	HasZoteroAPIKey    bool   `json:"has_zotero_api_key"`

	ZoteroUserID       string `json:"zotero_user_id"`
	ZoteroUserIDSource string `json:"zotero_user_id_source"`

	Folder       string `json:"folder"`
	FolderSource string `json:"folder_source"`

	CraftToken       string `json:"craft_token"`
	CraftTokenSource string `json:"craft_token_source"`
	HasCraftToken    bool   `json:"has_craft_token"`

	CollectionID       string `json:"collection_id"`
	CollectionIDSource string `json:"collection_id_source"`

	ParentDocumentID       string `json:"parent_document_id"`
	ParentDocumentIDSource string `json:"parent_document_id_source"`
}

// SyncSettingsUpdate carries database overrides. Nil fields are left as
// they are; an empty string removes the override.
type SyncSettingsUpdate struct {
	Enabled          *bool   `json:"enabled"`
	Schedule         *string `json:"schedule"`
	BatchSize        *int    `json:"batch_size"`
	ZoteroAPIKey     *string `json:"zotero_api_key"`
	ZoteroUserID     *string `json:"zotero_user_id"`
	Folder           *string `json:"folder"`
	CraftToken       *string `json:"craft_token"`
	CollectionID     *string `json:"collection_id"`
	ParentDocumentID *string `json:"parent_document_id"`
}

// SyncStatus is the outcome of the last finished pass.
type SyncStatus struct {
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	Status     string     `json:"status,omitempty"`  // "completed", "failed", "aborted", "running", ""
	Message    string     `json:"message,omitempty"` // Error message or stats summary
	Created    int        `json:"created,omitempty"`
}

func (s *SettingsStore) GetSyncEnabled() bool {
	return parseBool(s.value(syncEnabled))
}

func (s *SettingsStore) GetSyncSchedule() string {
	return s.value(syncSchedule)
}

// GetSyncBatchSize returns the batch bound, clamped to the supported range.
func (s *SettingsStore) GetSyncBatchSize() int {
	n, err := strconv.Atoi(s.value(syncBatchSize))
	if err != nil {
		return config.DefaultBatchSize
	}
	return config.ClampBatchSize(n)
}

func (s *SettingsStore) GetZoteroAPIKey() string {
	return s.value(zoteroAPIKey)
}

func (s *SettingsStore) GetCraftToken() string {
	return s.value(craftToken)
}

func (s *SettingsStore) GetFolder() string {
	return s.value(zoteroFolder)
}

// SetZoteroUserID stores the user id resolved from the API key.
func (s *SettingsStore) SetZoteroUserID(userID string) error {
	return s.repo.SetSetting(entities.SettingKeyZoteroUserID, userID)
}

// GetSyncSettings returns the effective configuration
func (s *SettingsStore) GetSyncSettings() SyncSettings {
	return SyncSettings{
		Enabled:          s.GetSyncEnabled(),
		Schedule:         s.GetSyncSchedule(),
		BatchSize:        s.GetSyncBatchSize(),
		ZoteroAPIKey:     s.GetZoteroAPIKey(),
		ZoteroUserID:     s.value(zoteroUserID),
		Folder:           s.GetFolder(),
		CraftToken:       s.GetCraftToken(),
		CollectionID:     s.value(craftCollectionID),
		ParentDocumentID: s.value(craftParentDocumentID),
	}
}

// GetSyncSettingsInfo returns the configuration with source information
func (s *SettingsStore) GetSyncSettingsInfo() SyncSettingsInfo {
	eff := s.GetSyncSettings()
	info := SyncSettingsInfo{
		Enabled:       eff.Enabled,
		EnabledSource: s.source(syncEnabled),

		Schedule:            eff.Schedule,
		ScheduleSource:      s.source(syncSchedule),
		ScheduleDescription: GetCronDescription(eff.Schedule),

		BatchSize:       eff.BatchSize,
		BatchSizeSource: s.source(syncBatchSize),

		ZoteroAPIKey:       maskToken(eff.ZoteroAPIKey),
		ZoteroAPIKeySource: s.source(zoteroAPIKey),
		HasZoteroAPIKey:    eff.ZoteroAPIKey != "",

		ZoteroUserID:       eff.ZoteroUserID,
		ZoteroUserIDSource: s.source(zoteroUserID),

		Folder:       eff.Folder,
		FolderSource: s.source(zoteroFolder),

		CraftToken:       maskToken(eff.CraftToken),
		CraftTokenSource: s.source(craftToken),
		HasCraftToken:    eff.CraftToken != "",

		CollectionID:       eff.CollectionID,
		CollectionIDSource: s.source(craftCollectionID),

		ParentDocumentID:       eff.ParentDocumentID,
		ParentDocumentIDSource: s.source(craftParentDocumentID),
	}
	if next, err := GetNextRunTime(eff.Schedule); err == nil && eff.Enabled {
		info.NextRunAt = next
	}
	return info
}

// UpdateSyncSettings validates u and stores it as database overrides.
func (s *SettingsStore) UpdateSyncSettings(u SyncSettingsUpdate) error {
	if u.Schedule != nil && *u.Schedule != "" {
		if err := ValidateCronSchedule(*u.Schedule); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
	}
	if u.BatchSize != nil && (*u.BatchSize < 1 || *u.BatchSize > config.MaxBatchSize) {
		return fmt.Errorf("%w: must be between 1 and %d", ErrInvalidBatchSize, config.MaxBatchSize)
	}
	if u.Folder != nil && *u.Folder != "" {
		if _, err := zotero.ParseFolderSelector(*u.Folder); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFolder, err)
		}
	}

	if u.Enabled != nil {
		if err := s.repo.SetSetting(syncEnabled.key, strconv.FormatBool(*u.Enabled)); err != nil {
			return err
		}
	}
	if u.BatchSize != nil {
		if err := s.repo.SetSetting(syncBatchSize.key, strconv.Itoa(*u.BatchSize)); err != nil {
			return err
		}
	}

	overrides := []struct {
		def   definition
		value *string
	}{
		{syncSchedule, u.Schedule},
		{zoteroAPIKey, u.ZoteroAPIKey},
		{zoteroUserID, u.ZoteroUserID},
		{zoteroFolder, u.Folder},
		{craftToken, u.CraftToken},
		{craftCollectionID, u.CollectionID},
		{craftParentDocumentID, u.ParentDocumentID},
	}
	for _, f := range overrides {
		if err := s.setOrClear(f.def, f.value); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettingsStore) setOrClear(d definition, value *string) error {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return s.clear(d.key)
	}
	return s.store(d, v)
}

// ClearSyncSettings clears all database overrides, reverting to env/default
func (s *SettingsStore) ClearSyncSettings() error {
	return s.clear(
		syncEnabled.key,
		syncSchedule.key,
		syncBatchSize.key,
		zoteroAPIKey.key,
		zoteroUserID.key,
		zoteroFolder.key,
		craftToken.key,
		craftCollectionID.key,
		craftParentDocumentID.key,
	)
}

// GetSyncStatus returns the last sync status
func (s *SettingsStore) GetSyncStatus() SyncStatus {
	status := SyncStatus{}

	if setting, err := s.repo.GetSetting(entities.SettingKeySyncLastAt); err == nil && setting.Value != "" {
		if ts, err := time.Parse(time.RFC3339, setting.Value); err == nil {
			status.LastSyncAt = &ts
		}
	}
	if setting, err := s.repo.GetSetting(entities.SettingKeySyncLastStatus); err == nil {
		status.Status = setting.Value
	}
	if setting, err := s.repo.GetSetting(entities.SettingKeySyncLastMessage); err == nil {
		status.Message = setting.Value
	}
	if setting, err := s.repo.GetSetting(entities.SettingKeySyncLastCreated); err == nil && setting.Value != "" {
		if count, err := strconv.Atoi(setting.Value); err == nil {
			status.Created = count
		}
	}

	return status
}

// SetSyncStatus records the outcome of a pass
func (s *SettingsStore) SetSyncStatus(status, message string, created int) error {
	now := time.Now().UTC().Format(time.RFC3339)

	if err := s.repo.SetSetting(entities.SettingKeySyncLastAt, now); err != nil {
		return err
	}
	if err := s.repo.SetSetting(entities.SettingKeySyncLastStatus, status); err != nil {
		return err
	}
	if err := s.repo.SetSetting(entities.SettingKeySyncLastMessage, message); err != nil {
		return err
	}
	return s.repo.SetSetting(entities.SettingKeySyncLastCreated, strconv.Itoa(created))
}

// PassConfig builds the configuration of one sync pass from the effective
// settings and the transport settings in cfg.
func (s SyncSettings) PassConfig(cfg *config.Config) syncer.Config {
	return syncer.Config{
		Zotero: zotero.Config{
			APIKey:            s.ZoteroAPIKey,
			UserID:            s.ZoteroUserID,
			BaseURL:           cfg.Zotero.BaseURL,
			Timeout:           cfg.Zotero.Timeout,
			RequestsPerMinute: cfg.Zotero.RequestsPerMinute,
			MaxRetries:        cfg.Zotero.MaxRetries,
		},
		Folder: s.Folder,
		Craft: craft.Config{
			Token:             s.CraftToken,
			BaseURL:           cfg.Craft.BaseURL,
			Timeout:           cfg.Craft.Timeout,
			RequestsPerMinute: cfg.Craft.RequestsPerMinute,
			MaxRetries:        cfg.Craft.MaxRetries,
		},
		CollectionID:     s.CollectionID,
		ParentDocumentID: s.ParentDocumentID,
		BatchSize:        s.BatchSize,
	}
}
