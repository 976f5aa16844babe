package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/teamdesk/internal/audit/domain"
	"github.com/smallbiznis/teamdesk/internal/observability/metrics"
	"github.com/smallbiznis/teamdesk/internal/orgcontext"
	"github.com/smallbiznis/teamdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    auditdomain.Repository
	Metrics *metrics.Metrics
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    auditdomain.Repository
	metrics *metrics.Metrics
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("audit.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// Record appends one immutable entry. A nil user or org is stored as NULL;
// neither blocks the write. Exactly one durable insert, no retries.
func (s *Service) Record(ctx context.Context, rec auditdomain.Record) error {
	if !rec.Action.Valid() {
		return auditdomain.ErrInvalidAction
	}
	entityType := strings.TrimSpace(rec.EntityType)
	entityID := strings.TrimSpace(rec.EntityID)
	if entityType == "" || entityID == "" {
		return auditdomain.ErrInvalidEntity
	}
	if err := checkSnapshotShape(rec); err != nil {
		return err
	}

	before, err := marshalSnapshot(rec.Before)
	if err != nil {
		return err
	}
	after, err := marshalSnapshot(rec.After)
	if err != nil {
		return err
	}

	entry := auditdomain.AuditEntry{
		ID:         s.genID.Generate(),
		UserID:     normalizeID(rec.UserID),
		OrgID:      normalizeID(rec.OrgID),
		Action:     rec.Action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     before,
		After:      after,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		s.metrics.AuditWriteErrors.Inc()
		s.log.Warn("failed to write audit entry",
			zap.String("action", string(rec.Action)),
			zap.String("entity_type", entityType),
			zap.Error(err),
		)
		return err
	}

	s.metrics.AuditEntries.WithLabelValues(string(rec.Action)).Inc()
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListRequest) (auditdomain.ListResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return auditdomain.ListResponse{}, auditdomain.ErrInvalidOrganization
	}

	var cursor *auditdomain.AuditCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		cursor = &auditdomain.AuditCursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		OrgID:      orgID,
		Action:     req.Action,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Cursor:     cursor,
		Limit:      pageSize,
	})
	if err != nil {
		return auditdomain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *auditdomain.AuditEntry) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	entries := make([]auditdomain.AuditEntry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, *item)
	}

	resp := auditdomain.ListResponse{Entries: entries}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// checkSnapshotShape enforces the nullability table: create has no before,
// delete has no after, update has both.
func checkSnapshotShape(rec auditdomain.Record) error {
	switch rec.Action {
	case auditdomain.ActionCreate:
		if rec.Before != nil || rec.After == nil {
			return auditdomain.ErrInvalidSnapshot
		}
	case auditdomain.ActionUpdate:
		if rec.Before == nil || rec.After == nil {
			return auditdomain.ErrInvalidSnapshot
		}
	case auditdomain.ActionDelete:
		if rec.Before == nil || rec.After != nil {
			return auditdomain.ErrInvalidSnapshot
		}
	}
	return nil
}

func marshalSnapshot(snapshot map[string]any) (datatypes.JSON, error) {
	if snapshot == nil {
		return nil, nil
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, auditdomain.ErrInvalidSnapshot
	}
	return datatypes.JSON(raw), nil
}

func normalizeID(id *snowflake.ID) *snowflake.ID {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}
