package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/teamdesk/internal/organization/domain"
	"github.com/smallbiznis/teamdesk/internal/organization/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Organization{}, &domain.Membership{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(db, zap.NewNop(), repository.NewRepository(db), node)
	return svc, db, node
}

func TestCreateProvisionsOwnerMembership(t *testing.T) {
	svc, db, node := setupService(t)
	ctx := context.Background()
	userID := node.Generate()

	org, err := svc.Create(ctx, userID, domain.CreateOrganizationRequest{Name: "Acme Corp"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", org.Name)
	assert.Equal(t, "acme-corp", org.Slug)

	var memberships []domain.Membership
	require.NoError(t, db.Find(&memberships).Error)
	require.Len(t, memberships, 1)
	assert.Equal(t, userID, memberships[0].UserID)
	assert.Equal(t, domain.RoleOwner, memberships[0].Role)
}

func TestCreateDuplicateSlug(t *testing.T) {
	svc, _, node := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, node.Generate(), domain.CreateOrganizationRequest{Name: "Acme Corp"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, node.Generate(), domain.CreateOrganizationRequest{Name: "Acme Corp"})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestCreateValidation(t *testing.T) {
	svc, _, node := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 0, domain.CreateOrganizationRequest{Name: "Acme"})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = svc.Create(ctx, node.Generate(), domain.CreateOrganizationRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestResolveBySlug(t *testing.T) {
	svc, _, node := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, node.Generate(), domain.CreateOrganizationRequest{Name: "Acme Corp"})
	require.NoError(t, err)

	org, err := svc.ResolveBySlug(ctx, "acme-corp")
	require.NoError(t, err)
	require.NotNil(t, org)
	assert.Equal(t, created.ID, org.ID.String())

	unknown, err := svc.ResolveBySlug(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, unknown, "unknown slug is absence, not an error")

	empty, err := svc.ResolveBySlug(ctx, "   ")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestMembershipPredicates(t *testing.T) {
	svc, _, node := setupService(t)
	ctx := context.Background()

	ownerID := node.Generate()
	strangerID := node.Generate()

	created, err := svc.Create(ctx, ownerID, domain.CreateOrganizationRequest{Name: "Acme Corp"})
	require.NoError(t, err)
	orgID, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	cases := []struct {
		name    string
		orgID   snowflake.ID
		userID  snowflake.ID
		member  bool
		elevate bool
	}{
		{"owner", orgID, ownerID, true, true},
		{"stranger", orgID, strangerID, false, false},
		{"zero user", orgID, 0, false, false},
		{"zero org", 0, ownerID, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			member, err := svc.IsMember(ctx, tc.orgID, tc.userID)
			require.NoError(t, err)
			assert.Equal(t, tc.member, member)

			elevated, err := svc.IsOwnerOrAdmin(ctx, tc.orgID, tc.userID)
			require.NoError(t, err)
			assert.Equal(t, tc.elevate, elevated)
		})
	}
}

func TestIsOwnerOrAdminExcludesEmployee(t *testing.T) {
	svc, db, node := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, node.Generate(), domain.CreateOrganizationRequest{Name: "Acme Corp"})
	require.NoError(t, err)
	orgID, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	employeeID := node.Generate()
	require.NoError(t, db.Create(&domain.Membership{
		ID:     node.Generate(),
		OrgID:  orgID,
		UserID: employeeID,
		Role:   domain.RoleEmployee,
	}).Error)

	member, err := svc.IsMember(ctx, orgID, employeeID)
	require.NoError(t, err)
	assert.True(t, member)

	elevated, err := svc.IsOwnerOrAdmin(ctx, orgID, employeeID)
	require.NoError(t, err)
	assert.False(t, elevated)
}

func TestListByUser(t *testing.T) {
	svc, _, node := setupService(t)
	ctx := context.Background()
	userID := node.Generate()

	_, err := svc.Create(ctx, userID, domain.CreateOrganizationRequest{Name: "Acme Corp"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, userID, domain.CreateOrganizationRequest{Name: "Globex"})
	require.NoError(t, err)

	items, err := svc.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domain.RoleOwner, items[0].Role)
}
