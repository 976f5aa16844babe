package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type store[T any] struct {
	db *gorm.DB
}

func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

func (r *store[T]) WithTrx(tx *gorm.DB) Repository[T] {
	return &store[T]{db: tx}
}

func (r *store[T]) Find(ctx context.Context, query *T) ([]*T, error) {
	var result []*T
	err := r.db.WithContext(ctx).Where(query).Find(&result).Error
	return result, err
}

func (r *store[T]) FindOne(ctx context.Context, query *T) (*T, error) {
	var result T
	err := r.db.WithContext(ctx).Where(query).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *store[T]) FindByID(ctx context.Context, id snowflake.ID) (*T, error) {
	var result T
	err := r.db.WithContext(ctx).First(&result, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *store[T]) Create(ctx context.Context, resource *T) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *store[T]) Save(ctx context.Context, resource *T) error {
	return r.db.WithContext(ctx).Save(resource).Error
}

func (r *store[T]) Delete(ctx context.Context, id snowflake.ID) error {
	var dummy T
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&dummy).Error
}

func (r *store[T]) Count(ctx context.Context, query *T) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(query).Where(query).Count(&count).Error
	return count, err
}
