package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// ValidRole reports whether the role is one of the known membership roles.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleManager, RoleEmployee:
		return true
	default:
		return false
	}
}

type Service interface {
	// Create provisions a tenant and its owning membership in one
	// transaction.
	Create(ctx context.Context, userID snowflake.ID, req CreateOrganizationRequest) (*OrganizationResponse, error)

	// ResolveBySlug maps a tenant hint to a concrete organization. An
	// empty or unknown slug is not an error: it returns (nil, nil) and
	// authorization downstream denies access.
	ResolveBySlug(ctx context.Context, slug string) (*Organization, error)

	// IsMember reports whether any membership row exists for the pair,
	// regardless of role. False, never an error, for zero org or user.
	IsMember(ctx context.Context, orgID, userID snowflake.ID) (bool, error)

	// IsOwnerOrAdmin reports whether a membership row exists with an
	// owner or admin role. Same zero-value semantics as IsMember.
	IsOwnerOrAdmin(ctx context.Context, orgID, userID snowflake.ID) (bool, error)

	ListByUser(ctx context.Context, userID snowflake.ID) ([]OrganizationListItem, error)
}

type CreateOrganizationRequest struct {
	Name string
}

type OrganizationResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type OrganizationListItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrSlugTaken           = errors.New("slug_taken")
)
