// Package audited decorates the generic repository with the snapshot/record
// sequence: every create, update, and delete captures before/after state and
// appends one audit entry. The decoration is explicit at construction, not
// inherited.
package audited

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/teamdesk/internal/audit/domain"
	"github.com/smallbiznis/teamdesk/internal/audit/introspect"
	"github.com/smallbiznis/teamdesk/pkg/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not_found")

// Store wraps a Repository so that mutations carry audit records.
type Store[T any] struct {
	repo repository.Repository[T]
	desc *introspect.Descriptor[T]
	rec  auditdomain.Service
	db   *gorm.DB
	log  *zap.Logger
}

func New[T any](db *gorm.DB, log *zap.Logger, rec auditdomain.Service, desc *introspect.Descriptor[T]) *Store[T] {
	return &Store[T]{
		repo: repository.ProvideStore[T](db),
		desc: desc,
		rec:  rec,
		db:   db,
		log:  log.Named("audited." + desc.EntityType),
	}
}

// Repo exposes the undecorated store for reads.
func (s *Store[T]) Repo() repository.Repository[T] {
	return s.repo
}

// Desc exposes the descriptor for callers composing their own transactional
// mutations.
func (s *Store[T]) Desc() *introspect.Descriptor[T] {
	return s.desc
}

// Create persists the entity, then records action=create with the resulting
// state as the after snapshot.
func (s *Store[T]) Create(ctx context.Context, userID snowflake.ID, entity *T) error {
	if err := s.repo.Create(ctx, entity); err != nil {
		return err
	}

	s.record(ctx, userID, auditdomain.ActionCreate, entity, nil, s.desc.Snapshot(entity))
	return nil
}

// Update loads the entity, snapshots it strictly before applying the change,
// persists, then records action=update with both snapshots.
func (s *Store[T]) Update(ctx context.Context, userID snowflake.ID, id snowflake.ID, apply func(*T)) (*T, error) {
	entity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, ErrNotFound
	}

	before := s.desc.Snapshot(entity)
	apply(entity)
	if err := s.repo.Save(ctx, entity); err != nil {
		return nil, err
	}

	s.record(ctx, userID, auditdomain.ActionUpdate, entity, before, s.desc.Snapshot(entity))
	return entity, nil
}

// Delete snapshots the entity before the delete executes, persists the
// deletion, then records action=delete.
func (s *Store[T]) Delete(ctx context.Context, userID snowflake.ID, id snowflake.ID) error {
	entity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if entity == nil {
		return ErrNotFound
	}

	before := s.desc.Snapshot(entity)
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.record(ctx, userID, auditdomain.ActionDelete, entity, before, nil)
	return nil
}

// record resolves ownership and appends the entry. Audit is secondary: any
// failure here is logged and swallowed so the business mutation stands. It
// is only reached after the persistence call succeeded, so no entry is ever
// written for a mutation that did not happen.
func (s *Store[T]) record(ctx context.Context, userID snowflake.ID, action auditdomain.Action, entity *T, before, after map[string]any) {
	orgID, err := s.desc.ResolveOrg(ctx, s.db, entity)
	if err != nil {
		s.log.Warn("audit ownership resolution failed",
			zap.String("action", string(action)),
			zap.Error(err),
		)
		orgID = nil
	}

	var user *snowflake.ID
	if userID != 0 {
		user = &userID
	}

	if err := s.rec.Record(ctx, auditdomain.Record{
		UserID:     user,
		OrgID:      orgID,
		Action:     action,
		EntityType: s.desc.EntityType,
		EntityID:   s.desc.EntityID(entity),
		Before:     before,
		After:      after,
	}); err != nil {
		s.log.Warn("audit record dropped",
			zap.String("action", string(action)),
			zap.String("entity_id", s.desc.EntityID(entity)),
			zap.Error(err),
		)
	}
}
