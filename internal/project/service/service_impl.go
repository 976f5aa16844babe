package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/teamdesk/internal/audit/audited"
	auditdomain "github.com/smallbiznis/teamdesk/internal/audit/domain"
	"github.com/smallbiznis/teamdesk/internal/orgcontext"
	"github.com/smallbiznis/teamdesk/internal/project/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	AuditSvc auditdomain.Service
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	store *audited.Store[domain.Project]
}

func NewService(p Params) domain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("project.service"),
		genID: p.GenID,
		store: audited.New(p.DB, p.Log, p.AuditSvc, domain.Describe()),
	}
}

// Create persists a project for the request's tenant. When no owner is
// supplied the acting user becomes the owner.
func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateProjectRequest) (*domain.Project, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	status := req.Status
	if status == "" {
		status = domain.StatusPlanned
	}
	if !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	ownerID := req.OwnerID
	if ownerID == nil && userID != 0 {
		ownerID = &userID
	}

	now := time.Now().UTC()
	project := domain.Project{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Name:        name,
		Description: req.Description,
		OwnerID:     ownerID,
		Status:      status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Create(ctx, userID, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *service) Get(ctx context.Context, id snowflake.ID) (*domain.Project, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	project, err := s.store.Repo().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil || project.OrgID != orgID {
		return nil, domain.ErrProjectNotFound
	}
	return project, nil
}

func (s *service) List(ctx context.Context) ([]*domain.Project, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	return s.store.Repo().Find(ctx, &domain.Project{OrgID: orgID})
}

func (s *service) Update(ctx context.Context, userID snowflake.ID, id snowflake.ID, req domain.UpdateProjectRequest) (*domain.Project, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if req.Status != nil && !domain.ValidStatus(*req.Status) {
		return nil, domain.ErrInvalidStatus
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, domain.ErrInvalidName
	}

	project, err := s.store.Update(ctx, userID, id, func(p *domain.Project) {
		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.OwnerID != nil {
			p.OwnerID = req.OwnerID
		}
		if req.Status != nil {
			p.Status = *req.Status
		}
		if req.StartDate != nil {
			p.StartDate = req.StartDate
		}
		if req.EndDate != nil {
			p.EndDate = req.EndDate
		}
		p.UpdatedAt = time.Now().UTC()
	})
	if err == audited.ErrNotFound {
		return nil, domain.ErrProjectNotFound
	}
	return project, err
}

func (s *service) Delete(ctx context.Context, userID snowflake.ID, id snowflake.ID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := s.store.Delete(ctx, userID, id)
	if err == audited.ErrNotFound {
		return domain.ErrProjectNotFound
	}
	return err
}
