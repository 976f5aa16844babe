package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/teamdesk/internal/user/domain"
	"github.com/smallbiznis/teamdesk/pkg/db"
	"github.com/smallbiznis/teamdesk/pkg/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type service struct {
	log   *zap.Logger
	users repository.Repository[domain.User]
	genID *snowflake.Node
}

func NewService(gdb *gorm.DB, log *zap.Logger, genID *snowflake.Node) domain.Service {
	return &service{
		log:   log.Named("user.service"),
		users: repository.ProvideStore[domain.User](gdb),
		genID: genID,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, domain.ErrInvalidUsername
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}
	if len(req.Password) < 8 {
		return nil, domain.ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           s.genID.Generate(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, &user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, err
	}

	return &user, nil
}

func (s *service) GetByID(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}
