// Package introspect derives audit snapshots and tenant ownership for
// domain entities. Each entity type registers one Descriptor up front: an
// ordered field list (relations flattened to identifiers) and an ordered
// chain of org resolvers. No runtime reflection.
package introspect

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/teamdesk/internal/orgcontext"
	"gorm.io/gorm"
)

var ErrUnresolvedParent = errors.New("unresolved_parent")

// Field is one persisted attribute of an entity.
type Field[T any] struct {
	Name  string
	Value func(*T) any
}

// Scalar declares a plain field.
func Scalar[T any](name string, value func(*T) any) Field[T] {
	return Field[T]{Name: name, Value: value}
}

// Relation declares a reference field. Snapshots carry the related row's
// identifier in string form, never the nested object.
func Relation[T any](name string, id func(*T) *snowflake.ID) Field[T] {
	return Field[T]{
		Name: name,
		Value: func(entity *T) any {
			ref := id(entity)
			if ref == nil || *ref == 0 {
				return nil
			}
			return ref.String()
		},
	}
}

// OrgResolver returns the owning org for an entity, or nil when this
// strategy does not apply. Resolvers may read but never write.
type OrgResolver[T any] func(ctx context.Context, db *gorm.DB, entity *T) (*snowflake.ID, error)

// DirectOrg resolves ownership from an org column on the entity itself.
func DirectOrg[T any](orgID func(*T) snowflake.ID) OrgResolver[T] {
	return func(_ context.Context, _ *gorm.DB, entity *T) (*snowflake.ID, error) {
		id := orgID(entity)
		if id == 0 {
			return nil, nil
		}
		return &id, nil
	}
}

// ParentOrg resolves ownership through one declared parent reference,
// reading the parent row's org column.
func ParentOrg[T any](parentTable string, parentID func(*T) snowflake.ID) OrgResolver[T] {
	return func(ctx context.Context, db *gorm.DB, entity *T) (*snowflake.ID, error) {
		id := parentID(entity)
		if id == 0 {
			return nil, nil
		}

		var orgID int64
		err := db.WithContext(ctx).
			Table(parentTable).
			Select("org_id").
			Where("id = ?", id).
			Take(&orgID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if orgID == 0 {
			return nil, nil
		}

		resolved := snowflake.ID(orgID)
		return &resolved, nil
	}
}

// Descriptor describes one entity type for auditing purposes.
type Descriptor[T any] struct {
	EntityType   string
	ID           func(*T) snowflake.ID
	Fields       []Field[T]
	OrgResolvers []OrgResolver[T]
}

// Snapshot produces the flat field-name to value mapping for an entity.
// A nil entity yields nil, used as create's before and delete's after.
func (d *Descriptor[T]) Snapshot(entity *T) map[string]any {
	if entity == nil {
		return nil
	}

	out := make(map[string]any, len(d.Fields))
	for _, field := range d.Fields {
		out[field.Name] = field.Value(entity)
	}
	return out
}

// EntityID returns the entity identifier in string form.
func (d *Descriptor[T]) EntityID(entity *T) string {
	if entity == nil {
		return ""
	}
	return d.ID(entity).String()
}

// ResolveOrg walks the resolver chain in declaration order and returns the
// first owner found, falling back to the ambient request org. The chain is
// fixed per type, so resolution is deterministic.
func (d *Descriptor[T]) ResolveOrg(ctx context.Context, db *gorm.DB, entity *T) (*snowflake.ID, error) {
	if entity != nil {
		for _, resolve := range d.OrgResolvers {
			orgID, err := resolve(ctx, db, entity)
			if err != nil {
				return nil, err
			}
			if orgID != nil && *orgID != 0 {
				return orgID, nil
			}
		}
	}

	if orgID, ok := orgcontext.OrgIDFromContext(ctx); ok {
		return &orgID, nil
	}
	return nil, nil
}
