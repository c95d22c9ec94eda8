package entities

import (
	"time"
)

type SyncTrigger string

const (
	SyncTriggerSchedule SyncTrigger = "schedule"
	SyncTriggerManual   SyncTrigger = "manual"
	SyncTriggerStream   SyncTrigger = "stream"
	SyncTriggerCLI      SyncTrigger = "cli"
)

type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
	SyncStatusAborted   SyncStatus = "aborted"
)

// SyncRun is the persisted history of one sync pass.
type SyncRun struct {
	ID          uint        `gorm:"primaryKey" json:"-"`
	RunID       string      `gorm:"size:40;uniqueIndex" json:"run_id"`
	Trigger     SyncTrigger `gorm:"size:20" json:"trigger"`
	Status      SyncStatus  `gorm:"size:20;index" json:"status"`
	Folder      string      `gorm:"size:255" json:"folder,omitempty"`
	Target      string      `gorm:"size:255" json:"target,omitempty"`
	TotalItems  int         `json:"total_items"`
	Processed   int         `json:"processed"`
	Created     int         `json:"created"`
	Skipped     int         `json:"skipped"`
	Failed      int         `json:"failed"`
	CurrentItem string      `gorm:"size:512" json:"current_item,omitempty"`
	Error       string      `gorm:"type:text" json:"error,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}
