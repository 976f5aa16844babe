package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/teamdesk/internal/organization/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateOrganization(ctx context.Context, org domain.Organization) error {
	return r.db.WithContext(ctx).Create(&org).Error
}

func (r *repository) AddMembership(ctx context.Context, membership domain.Membership) error {
	return r.db.WithContext(ctx).Create(&membership).Error
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).First(&org, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repository) HasMembership(ctx context.Context, orgID, userID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Membership{}).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) HasMembershipWithRole(ctx context.Context, orgID, userID snowflake.ID, roles ...string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Membership{}).
		Where("org_id = ? AND user_id = ? AND role IN ?", orgID, userID, roles).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.MembershipListItem, error) {
	var items []domain.MembershipListItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT o.id, o.name, o.slug, m.role, o.created_at
		 FROM organizations o
		 JOIN memberships m ON m.org_id = o.id
		 WHERE m.user_id = ?
		 ORDER BY o.created_at ASC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}
