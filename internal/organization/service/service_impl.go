package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/teamdesk/internal/organization/domain"
	"github.com/smallbiznis/teamdesk/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func NewService(gdb *gorm.DB, log *zap.Logger, repo domain.Repository, genID *snowflake.Node) domain.Service {
	return &service{
		db:    gdb,
		log:   log.Named("organization.service"),
		repo:  repo,
		genID: genID,
	}
}

func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateOrganizationRequest) (*domain.OrganizationResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	orgID := s.genID.Generate()
	org := domain.Organization{
		ID:        orgID,
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrganization(ctx, org); err != nil {
			return err
		}

		membership := domain.Membership{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			UserID:    userID,
			Role:      domain.RoleOwner,
			CreatedAt: now,
		}
		return repo.AddMembership(ctx, membership)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	return &domain.OrganizationResponse{
		ID:   orgID.String(),
		Name: name,
		Slug: org.Slug,
	}, nil
}

// ResolveBySlug performs exactly one unique-slug lookup. Absence of a
// tenant is a representable state, not an error.
func (s *service) ResolveBySlug(ctx context.Context, rawSlug string) (*domain.Organization, error) {
	trimmed := strings.TrimSpace(rawSlug)
	if trimmed == "" {
		return nil, nil
	}
	return s.repo.GetBySlug(ctx, trimmed)
}

func (s *service) IsMember(ctx context.Context, orgID, userID snowflake.ID) (bool, error) {
	if orgID == 0 || userID == 0 {
		return false, nil
	}
	return s.repo.HasMembership(ctx, orgID, userID)
}

func (s *service) IsOwnerOrAdmin(ctx context.Context, orgID, userID snowflake.ID) (bool, error) {
	if orgID == 0 || userID == 0 {
		return false, nil
	}
	return s.repo.HasMembershipWithRole(ctx, orgID, userID, domain.RoleOwner, domain.RoleAdmin)
}

func (s *service) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.OrganizationListItem, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.OrganizationListItem, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.OrganizationListItem{
			ID:        item.ID.String(),
			Name:      item.Name,
			Slug:      item.Slug,
			Role:      item.Role,
			CreatedAt: item.CreatedAt,
		})
	}

	return resp, nil
}
