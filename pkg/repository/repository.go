// Package repository provides a generic gorm-backed store shared by the
// domain services.
package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T) ([]*T, error)
	FindOne(ctx context.Context, query *T) (*T, error)
	FindByID(ctx context.Context, id snowflake.ID) (*T, error)
	Create(ctx context.Context, resource *T) error
	Save(ctx context.Context, resource *T) error
	Delete(ctx context.Context, id snowflake.ID) error
	Count(ctx context.Context, query *T) (int64, error)
}
