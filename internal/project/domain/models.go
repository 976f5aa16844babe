// Package domain contains persistence models for projects.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusPlanned   = "planned"
	StatusActive    = "active"
	StatusOnHold    = "on_hold"
	StatusCompleted = "completed"
)

// ValidStatus reports whether the status is a known project status.
func ValidStatus(status string) bool {
	switch status {
	case StatusPlanned, StatusActive, StatusOnHold, StatusCompleted:
		return true
	default:
		return false
	}
}

// Project is a tenant-scoped unit of work.
type Project struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID  `gorm:"not null;index" json:"org_id"`
	Name        string        `gorm:"type:text;not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	OwnerID     *snowflake.ID `gorm:"index" json:"owner_id"`
	Status      string        `gorm:"type:text;not null;default:'planned'" json:"status"`
	StartDate   *time.Time    `json:"start_date"`
	EndDate     *time.Time    `json:"end_date"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Project) TableName() string { return "projects" }

type CreateProjectRequest struct {
	Name        string
	Description string
	OwnerID     *snowflake.ID
	Status      string
	StartDate   *time.Time
	EndDate     *time.Time
}

type UpdateProjectRequest struct {
	Name        *string
	Description *string
	OwnerID     *snowflake.ID
	Status      *string
	StartDate   *time.Time
	EndDate     *time.Time
}

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateProjectRequest) (*Project, error)
	Get(ctx context.Context, id snowflake.ID) (*Project, error)
	List(ctx context.Context) ([]*Project, error)
	Update(ctx context.Context, userID snowflake.ID, id snowflake.ID, req UpdateProjectRequest) (*Project, error)
	Delete(ctx context.Context, userID snowflake.ID, id snowflake.ID) error
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrProjectNotFound     = errors.New("project_not_found")
)
