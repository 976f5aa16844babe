package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	auditdomain "github.com/smallbiznis/teamdesk/internal/audit/domain"
	auditrepository "github.com/smallbiznis/teamdesk/internal/audit/repository"
	auditservice "github.com/smallbiznis/teamdesk/internal/audit/service"
	"github.com/smallbiznis/teamdesk/internal/observability/metrics"
	"github.com/smallbiznis/teamdesk/internal/orgcontext"
	"github.com/smallbiznis/teamdesk/internal/project/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Project{}, &auditdomain.AuditEntry{}))

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
	return svc, db, node
}

func auditEntries(t *testing.T, db *gorm.DB) []auditdomain.AuditEntry {
	t.Helper()
	var entries []auditdomain.AuditEntry
	require.NoError(t, db.Order("created_at asc, id asc").Find(&entries).Error)
	return entries
}

func TestCreateDefaultsOwnerToActingUser(t *testing.T) {
	svc, db, node := setupService(t)
	orgID := node.Generate()
	userID := node.Generate()
	ctx := orgcontext.WithOrgID(context.Background(), orgID)

	project, err := svc.Create(ctx, userID, domain.CreateProjectRequest{Name: "Launch"})
	require.NoError(t, err)
	assert.Equal(t, orgID, project.OrgID)
	assert.Equal(t, domain.StatusPlanned, project.Status)
	require.NotNil(t, project.OwnerID)
	assert.Equal(t, userID, *project.OwnerID)

	entries := auditEntries(t, db)
	require.Len(t, entries, 1)
	assert.Equal(t, auditdomain.ActionCreate, entries[0].Action)
	assert.Equal(t, "project", entries[0].EntityType)
	require.NotNil(t, entries[0].OrgID)
	assert.Equal(t, orgID, *entries[0].OrgID)
}

func TestCreateRequiresTenant(t *testing.T) {
	svc, _, node := setupService(t)

	_, err := svc.Create(context.Background(), node.Generate(), domain.CreateProjectRequest{Name: "Launch"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestGetScopesByTenant(t *testing.T) {
	svc, _, node := setupService(t)
	orgID := node.Generate()
	otherOrg := node.Generate()
	userID := node.Generate()
	ctx := orgcontext.WithOrgID(context.Background(), orgID)

	project, err := svc.Create(ctx, userID, domain.CreateProjectRequest{Name: "Launch"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, got.ID)

	_, err = svc.Get(orgcontext.WithOrgID(context.Background(), otherOrg), project.ID)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound, "cross-tenant read reports absence")
}

func TestUpdateAuditsBeforeAndAfter(t *testing.T) {
	svc, db, node := setupService(t)
	orgID := node.Generate()
	userID := node.Generate()
	ctx := orgcontext.WithOrgID(context.Background(), orgID)

	project, err := svc.Create(ctx, userID, domain.CreateProjectRequest{Name: "Launch"})
	require.NoError(t, err)

	status := domain.StatusActive
	updated, err := svc.Update(ctx, userID, project.ID, domain.UpdateProjectRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, updated.Status)

	entries := auditEntries(t, db)
	require.Len(t, entries, 2)
	entry := entries[1]
	assert.Equal(t, auditdomain.ActionUpdate, entry.Action)

	var before, after map[string]any
	require.NoError(t, json.Unmarshal(entry.Before, &before))
	require.NoError(t, json.Unmarshal(entry.After, &after))
	assert.Equal(t, domain.StatusPlanned, before["status"])
	assert.Equal(t, domain.StatusActive, after["status"])
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	svc, _, node := setupService(t)
	orgID := node.Generate()
	userID := node.Generate()
	ctx := orgcontext.WithOrgID(context.Background(), orgID)

	project, err := svc.Create(ctx, userID, domain.CreateProjectRequest{Name: "Launch"})
	require.NoError(t, err)

	bogus := "archived"
	_, err = svc.Update(ctx, userID, project.ID, domain.UpdateProjectRequest{Status: &bogus})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestDeleteRemovesAndAudits(t *testing.T) {
	svc, db, node := setupService(t)
	orgID := node.Generate()
	userID := node.Generate()
	ctx := orgcontext.WithOrgID(context.Background(), orgID)

	project, err := svc.Create(ctx, userID, domain.CreateProjectRequest{Name: "Launch"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, userID, project.ID))

	_, err = svc.Get(ctx, project.ID)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	entries := auditEntries(t, db)
	require.Len(t, entries, 2)
	assert.Equal(t, auditdomain.ActionDelete, entries[1].Action)
	assert.NotEmpty(t, entries[1].Before)
	assert.Empty(t, entries[1].After)
}
