package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/teamdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

// Record carries everything needed to append one audit entry.
type Record struct {
	UserID     *snowflake.ID
	OrgID      *snowflake.ID
	Action     Action
	EntityType string
	EntityID   string
	Before     map[string]any
	After      map[string]any
}

type ListRequest struct {
	pagination.Pagination
	Action     string
	EntityType string
	EntityID   string
}

type ListResponse struct {
	pagination.PageInfo
	Entries []AuditEntry `json:"entries"`
}

// Service appends immutable audit entries and lists them per tenant,
// newest first.
type Service interface {
	Record(ctx context.Context, rec Record) error
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditEntry) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditEntry, error)
}

var (
	ErrInvalidAction       = errors.New("invalid_action")
	ErrInvalidEntity       = errors.New("invalid_entity")
	ErrInvalidSnapshot     = errors.New("invalid_snapshot")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
)
