package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Source credentials and selection
	SettingKeyZoteroAPIKey = "zotero_api_key"
	SettingKeyZoteroUserID = "zotero_user_id"
	SettingKeyZoteroFolder = "zotero_folder"

	// Destination credentials and target
	SettingKeyCraftToken            = "craft_token"
	SettingKeyCraftCollectionID     = "craft_collection_id"
	SettingKeyCraftParentDocumentID = "craft_parent_document_id"

	// Sync behaviour
	SettingKeySyncEnabled   = "sync_enabled"
	SettingKeySyncSchedule  = "sync_schedule"
	SettingKeySyncBatchSize = "sync_batch_size"

	// Last pass outcome
	SettingKeySyncLastAt      = "sync_last_at"
	SettingKeySyncLastStatus  = "sync_last_status"
	SettingKeySyncLastMessage = "sync_last_message"
	SettingKeySyncLastCreated = "sync_last_created"
)
