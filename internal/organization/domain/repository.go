package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type MembershipListItem struct {
	ID        snowflake.ID
	Name      string
	Slug      string
	Role      string
	CreatedAt time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrganization(ctx context.Context, org Organization) error
	AddMembership(ctx context.Context, membership Membership) error
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
	HasMembership(ctx context.Context, orgID, userID snowflake.ID) (bool, error)
	HasMembershipWithRole(ctx context.Context, orgID, userID snowflake.ID, roles ...string) (bool, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]MembershipListItem, error)
}
