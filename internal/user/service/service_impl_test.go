package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/teamdesk/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupService(t *testing.T) domain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(db, zap.NewNop(), node)
}

func TestRegisterHashesPassword(t *testing.T) {
	svc := setupService(t)

	user, err := svc.Register(context.Background(), domain.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correcthorse",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "correcthorse", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correcthorse")))
}

func TestRegisterValidation(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterRequest{Username: " ", Email: "a@b.c", Password: "correcthorse"})
	assert.ErrorIs(t, err, domain.ErrInvalidUsername)

	_, err = svc.Register(ctx, domain.RegisterRequest{Username: "alice", Email: "nope", Password: "correcthorse"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Register(ctx, domain.RegisterRequest{Username: "alice", Email: "a@b.c", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterRequest{Username: "alice", Email: "a@b.c", Password: "correcthorse"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, domain.RegisterRequest{Username: "alice", Email: "a@b.c", Password: "correcthorse"})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestGetByID(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, domain.RegisterRequest{Username: "alice", Email: "a@b.c", Password: "correcthorse"})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.GetByID(ctx, 99999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
