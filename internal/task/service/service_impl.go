package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/teamdesk/internal/audit/audited"
	auditdomain "github.com/smallbiznis/teamdesk/internal/audit/domain"
	"github.com/smallbiznis/teamdesk/internal/orgcontext"
	projectdomain "github.com/smallbiznis/teamdesk/internal/project/domain"
	"github.com/smallbiznis/teamdesk/internal/task/domain"
	"github.com/smallbiznis/teamdesk/pkg/repository"
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
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	tasks    *audited.Store[domain.Task]
	comments *audited.Store[domain.TaskComment]
	projects repository.Repository[projectdomain.Project]
}

func NewService(p Params) domain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("task.service"),
		genID:    p.GenID,
		tasks:    audited.New(p.DB, p.Log, p.AuditSvc, domain.Describe()),
		comments: audited.New(p.DB, p.Log, p.AuditSvc, domain.DescribeComment()),
		projects: repository.ProvideStore[projectdomain.Project](p.DB),
	}
}

// Create persists a task under the request's tenant. The target project must
// belong to the same tenant.
func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateTaskRequest) (*domain.Task, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	status := req.Status
	if status == "" {
		status = domain.StatusTodo
	}
	if !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, domain.ErrInvalidPriority
	}

	project, err := s.projects.FindByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil || project.OrgID != orgID {
		return nil, domain.ErrProjectNotFound
	}

	now := time.Now().UTC()
	task := domain.Task{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		ProjectID:   req.ProjectID,
		Title:       title,
		Description: req.Description,
		Status:      status,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
		Priority:    priority,
		SortOrder:   req.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tasks.Create(ctx, userID, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *service) Get(ctx context.Context, id snowflake.ID) (*domain.Task, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	task, err := s.tasks.Repo().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil || task.OrgID != orgID {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (s *service) List(ctx context.Context, projectID snowflake.ID) ([]*domain.Task, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	return s.tasks.Repo().Find(ctx, &domain.Task{OrgID: orgID, ProjectID: projectID})
}

func (s *service) Update(ctx context.Context, userID snowflake.ID, id snowflake.ID, req domain.UpdateTaskRequest) (*domain.Task, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, domain.ErrInvalidTitle
	}
	if req.Status != nil && !domain.ValidStatus(*req.Status) {
		return nil, domain.ErrInvalidStatus
	}
	if req.Priority != nil && !domain.ValidPriority(*req.Priority) {
		return nil, domain.ErrInvalidPriority
	}

	task, err := s.tasks.Update(ctx, userID, id, func(t *domain.Task) {
		if req.Title != nil {
			t.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			t.Description = *req.Description
		}
		if req.Status != nil {
			t.Status = *req.Status
		}
		if req.AssigneeID != nil {
			t.AssigneeID = req.AssigneeID
		}
		if req.DueDate != nil {
			t.DueDate = req.DueDate
		}
		if req.Priority != nil {
			t.Priority = *req.Priority
		}
		if req.SortOrder != nil {
			t.SortOrder = *req.SortOrder
		}
		t.UpdatedAt = time.Now().UTC()
	})
	if err == audited.ErrNotFound {
		return nil, domain.ErrTaskNotFound
	}
	return task, err
}

func (s *service) Delete(ctx context.Context, userID snowflake.ID, id snowflake.ID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := s.tasks.Delete(ctx, userID, id)
	if err == audited.ErrNotFound {
		return domain.ErrTaskNotFound
	}
	return err
}

// AddComment appends a comment to a tenant-visible task. The comment row has
// no org column; audit ownership resolves through the task.
func (s *service) AddComment(ctx context.Context, userID snowflake.ID, taskID snowflake.ID, body string) (*domain.TaskComment, error) {
	if _, err := s.Get(ctx, taskID); err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domain.ErrInvalidBody
	}

	comment := domain.TaskComment{
		ID:        s.genID.Generate(),
		TaskID:    taskID,
		AuthorID:  userID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.comments.Create(ctx, userID, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *service) ListComments(ctx context.Context, taskID snowflake.ID) ([]*domain.TaskComment, error) {
	if _, err := s.Get(ctx, taskID); err != nil {
		return nil, err
	}
	return s.comments.Repo().Find(ctx, &domain.TaskComment{TaskID: taskID})
}

func (s *service) DeleteComment(ctx context.Context, userID snowflake.ID, commentID snowflake.ID) error {
	comment, err := s.comments.Repo().FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return domain.ErrCommentNotFound
	}
	if _, err := s.Get(ctx, comment.TaskID); err != nil {
		return domain.ErrCommentNotFound
	}

	err = s.comments.Delete(ctx, userID, commentID)
	if err == audited.ErrNotFound {
		return domain.ErrCommentNotFound
	}
	return err
}
