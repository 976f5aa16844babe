package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/teamdesk/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditEntry) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditEntry, error) {
	var entries []*domain.AuditEntry
	stmt := db.WithContext(ctx).Model(&domain.AuditEntry{}).
		Where("org_id = ?", filter.OrgID)

	if action := strings.TrimSpace(filter.Action); action != "" {
		stmt = stmt.Where("action = ?", action)
	}
	if entityType := strings.TrimSpace(filter.EntityType); entityType != "" {
		stmt = stmt.Where("entity_type = ?", entityType)
	}
	if entityID := strings.TrimSpace(filter.EntityID); entityID != "" {
		stmt = stmt.Where("entity_id = ?", entityID)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
