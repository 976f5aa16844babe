package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	auditdomain "github.com/smallbiznis/teamdesk/internal/audit/domain"
	auditrepository "github.com/smallbiznis/teamdesk/internal/audit/repository"
	auditservice "github.com/smallbiznis/teamdesk/internal/audit/service"
	"github.com/smallbiznis/teamdesk/internal/observability/metrics"
	"github.com/smallbiznis/teamdesk/internal/orgcontext"
	projectdomain "github.com/smallbiznis/teamdesk/internal/project/domain"
	"github.com/smallbiznis/teamdesk/internal/task/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc    domain.Service
	db     *gorm.DB
	node   *snowflake.Node
	orgID  snowflake.ID
	userID snowflake.ID
	ctx    context.Context
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&projectdomain.Project{},
		&domain.Task{},
		&domain.TaskComment{},
		&auditdomain.AuditEntry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    auditrepository.Provide(),
		Metrics: metrics.New(prometheus.NewRegistry()),
	})

	svc := NewService(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		AuditSvc: auditSvc,
	})

	orgID := node.Generate()
	return &fixture{
		svc:    svc,
		db:     db,
		node:   node,
		orgID:  orgID,
		userID: node.Generate(),
		ctx:    orgcontext.WithOrgID(context.Background(), orgID),
	}
}

func (f *fixture) newProject(t *testing.T, orgID snowflake.ID) *projectdomain.Project {
	t.Helper()
	project := &projectdomain.Project{
		ID:     f.node.Generate(),
		OrgID:  orgID,
		Name:   "Launch",
		Status: projectdomain.StatusActive,
	}
	require.NoError(t, f.db.Create(project).Error)
	return project
}

func (f *fixture) entries(t *testing.T) []auditdomain.AuditEntry {
	t.Helper()
	var entries []auditdomain.AuditEntry
	require.NoError(t, f.db.Order("created_at asc, id asc").Find(&entries).Error)
	return entries
}

func TestCreateTask(t *testing.T) {
	f := setup(t)
	project := f.newProject(t, f.orgID)

	task, err := f.svc.Create(f.ctx, f.userID, domain.CreateTaskRequest{
		ProjectID: project.ID,
		Title:     "Write docs",
	})
	require.NoError(t, err)
	assert.Equal(t, f.orgID, task.OrgID)
	assert.Equal(t, domain.StatusTodo, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)

	entries := f.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "task", entries[0].EntityType)
	assert.Equal(t, auditdomain.ActionCreate, entries[0].Action)
}

func TestCreateTaskRejectsForeignProject(t *testing.T) {
	f := setup(t)
	foreign := f.newProject(t, f.node.Generate())

	_, err := f.svc.Create(f.ctx, f.userID, domain.CreateTaskRequest{
		ProjectID: foreign.ID,
		Title:     "Sneaky",
	})
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	assert.Empty(t, f.entries(t))
}

func TestDeleteTaskAudits(t *testing.T) {
	f := setup(t)
	project := f.newProject(t, f.orgID)

	task, err := f.svc.Create(f.ctx, f.userID, domain.CreateTaskRequest{
		ProjectID: project.ID,
		Title:     "Write docs",
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(f.ctx, f.userID, task.ID))

	_, err = f.svc.Get(f.ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	entries := f.entries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, auditdomain.ActionDelete, entries[1].Action)
	assert.NotEmpty(t, entries[1].Before)
	assert.Empty(t, entries[1].After)
}

// Comments have no org column; the audit entry's ownership must come from
// the parent task.
func TestCommentOwnershipResolvesThroughTask(t *testing.T) {
	f := setup(t)
	project := f.newProject(t, f.orgID)

	task, err := f.svc.Create(f.ctx, f.userID, domain.CreateTaskRequest{
		ProjectID: project.ID,
		Title:     "Write docs",
	})
	require.NoError(t, err)

	comment, err := f.svc.AddComment(f.ctx, f.userID, task.ID, "looks good")
	require.NoError(t, err)
	assert.Equal(t, task.ID, comment.TaskID)

	entries := f.entries(t)
	require.Len(t, entries, 2)
	entry := entries[1]
	assert.Equal(t, "task_comment", entry.EntityType)
	require.NotNil(t, entry.OrgID)
	assert.Equal(t, f.orgID, *entry.OrgID)
}

func TestCommentValidation(t *testing.T) {
	f := setup(t)
	project := f.newProject(t, f.orgID)

	task, err := f.svc.Create(f.ctx, f.userID, domain.CreateTaskRequest{
		ProjectID: project.ID,
		Title:     "Write docs",
	})
	require.NoError(t, err)

	_, err = f.svc.AddComment(f.ctx, f.userID, task.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidBody)
}

func TestDeleteComment(t *testing.T) {
	f := setup(t)
	project := f.newProject(t, f.orgID)

	task, err := f.svc.Create(f.ctx, f.userID, domain.CreateTaskRequest{
		ProjectID: project.ID,
		Title:     "Write docs",
	})
	require.NoError(t, err)

	comment, err := f.svc.AddComment(f.ctx, f.userID, task.ID, "looks good")
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteComment(f.ctx, f.userID, comment.ID))

	comments, err := f.svc.ListComments(f.ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	entries := f.entries(t)
	require.Len(t, entries, 3)
	assert.Equal(t, auditdomain.ActionDelete, entries[2].Action)
	assert.Equal(t, "task_comment", entries[2].EntityType)
}
