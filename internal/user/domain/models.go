// Package domain contains persistence models for user accounts.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is an account record. Session handling lives outside this service;
// only the identity backing memberships and audit entries is kept here.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Username     string       `gorm:"type:text;not null;uniqueIndex:ux_users_username" json:"username"`
	Email        string       `gorm:"type:text;not null" json:"email"`
	PasswordHash string       `gorm:"type:text;not null" json:"-"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	GetByID(ctx context.Context, id snowflake.ID) (*User, error)
}

var (
	ErrInvalidUsername = errors.New("invalid_username")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidPassword = errors.New("invalid_password")
	ErrUsernameTaken   = errors.New("username_taken")
	ErrUserNotFound    = errors.New("user_not_found")
)
