// Package domain contains persistence models for the audit trail.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Action identifies the kind of mutation an entry records.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether the action is one of the known kinds.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// AuditEntry is an immutable before/after record of a single mutation.
// User and org references are nullable: the entry outlives the acting user,
// and ownership may be unresolved at write time.
type AuditEntry struct {
	ID         snowflake.ID   `gorm:"primaryKey" json:"id"`
	UserID     *snowflake.ID  `gorm:"index" json:"user_id"`
	OrgID      *snowflake.ID  `gorm:"index" json:"org_id"`
	Action     Action         `gorm:"type:text;not null" json:"action"`
	EntityType string         `gorm:"type:text;not null" json:"entity_type"`
	EntityID   string         `gorm:"type:text;not null" json:"entity_id"`
	Before     datatypes.JSON `gorm:"type:jsonb" json:"before"`
	After      datatypes.JSON `gorm:"type:jsonb" json:"after"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (AuditEntry) TableName() string { return "audit_entries" }

// AuditCursor is the keyset position for paginated listing.
type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

// ListFilter narrows a tenant-scoped audit listing.
type ListFilter struct {
	OrgID      snowflake.ID
	Action     string
	EntityType string
	EntityID   string
	Cursor     *AuditCursor
	Limit      int
}
