package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records protocol actions that change persisted or shared state.
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"index:idx_audit_trace;size:36" json:"trace_id"`
	UserID     *int64         `gorm:"index:idx_audit_user" json:"user_id"`
	Username   string         `gorm:"size:32" json:"username"`
	Action     string         `gorm:"size:64;not null" json:"action"`
	Request    datatypes.JSON `json:"request"`
	Error      string         `gorm:"type:text" json:"error"`
	IP         string         `gorm:"size:45" json:"ip"`
	ShardID    *int64         `json:"shard_id"`
	MapID      *int64         `json:"map_id"`
	DurationMs int            `json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}
