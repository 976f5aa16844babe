package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/teamdesk/internal/audit/audited"
	auditdomain "github.com/smallbiznis/teamdesk/internal/audit/domain"
	"github.com/smallbiznis/teamdesk/internal/audit/introspect"
	"github.com/smallbiznis/teamdesk/internal/invoice/domain"
	"github.com/smallbiznis/teamdesk/internal/observability/metrics"
	"github.com/smallbiznis/teamdesk/internal/orgcontext"
	"github.com/smallbiznis/teamdesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	AuditSvc auditdomain.Service
	Metrics  *metrics.Metrics
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	audit    auditdomain.Service
	metrics  *metrics.Metrics
	invoices *audited.Store[domain.Invoice]
	itemDesc *introspect.Descriptor[domain.InvoiceItem]
}

func NewService(p Params) domain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		audit:    p.AuditSvc,
		metrics:  p.Metrics,
		invoices: audited.New(p.DB, p.Log, p.AuditSvc, domain.Describe()),
		itemDesc: domain.DescribeItem(),
	}
}

func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	number := strings.TrimSpace(req.Number)
	if number == "" {
		return nil, domain.ErrInvalidNumber
	}
	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		return nil, domain.ErrInvalidClient
	}

	status := req.Status
	if status == "" {
		status = domain.StatusDraft
	}
	if !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	now := time.Now().UTC()
	invoice := domain.Invoice{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Number:      number,
		ClientName:  clientName,
		ClientEmail: strings.TrimSpace(req.ClientEmail),
		IssueDate:   req.IssueDate,
		DueDate:     req.DueDate,
		Status:      status,
		TotalAmount: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.invoices.Create(ctx, userID, &invoice); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrNumberTaken
		}
		return nil, err
	}
	return &invoice, nil
}

func (s *service) Get(ctx context.Context, id snowflake.ID) (*domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	invoice, err := s.invoices.Repo().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil || invoice.OrgID != orgID {
		return nil, domain.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *service) List(ctx context.Context) ([]*domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	return s.invoices.Repo().Find(ctx, &domain.Invoice{OrgID: orgID})
}

func (s *service) Update(ctx context.Context, userID snowflake.ID, id snowflake.ID, req domain.UpdateInvoiceRequest) (*domain.Invoice, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if req.Status != nil && !domain.ValidStatus(*req.Status) {
		return nil, domain.ErrInvalidStatus
	}
	if req.ClientName != nil && strings.TrimSpace(*req.ClientName) == "" {
		return nil, domain.ErrInvalidClient
	}

	invoice, err := s.invoices.Update(ctx, userID, id, func(inv *domain.Invoice) {
		if req.ClientName != nil {
			inv.ClientName = strings.TrimSpace(*req.ClientName)
		}
		if req.ClientEmail != nil {
			inv.ClientEmail = strings.TrimSpace(*req.ClientEmail)
		}
		if req.IssueDate != nil {
			inv.IssueDate = *req.IssueDate
		}
		if req.DueDate != nil {
			inv.DueDate = *req.DueDate
		}
		if req.Status != nil {
			inv.Status = *req.Status
		}
		inv.UpdatedAt = time.Now().UTC()
	})
	if err == audited.ErrNotFound {
		return nil, domain.ErrInvoiceNotFound
	}
	return invoice, err
}

// Delete removes the invoice and its items in one transaction, then records
// a single delete entry for the invoice.
func (s *service) Delete(ctx context.Context, userID snowflake.ID, id snowflake.ID) error {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&domain.InvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Invoice{}).Error
	})
	if err != nil {
		return err
	}

	s.recordInvoice(ctx, userID, auditdomain.ActionDelete, invoice, s.invoices.Desc().Snapshot(invoice), nil)
	return nil
}

// AddItem appends a line item and recomputes the invoice total in the same
// transaction. A recompute failure rolls the item back.
func (s *service) AddItem(ctx context.Context, userID snowflake.ID, invoiceID snowflake.ID, req domain.ItemRequest) (*domain.InvoiceItem, error) {
	if _, err := s.Get(ctx, invoiceID); err != nil {
		return nil, err
	}
	if err := validateItem(req); err != nil {
		return nil, err
	}

	item := domain.InvoiceItem{
		ID:          s.genID.Generate(),
		InvoiceID:   invoiceID,
		Description: strings.TrimSpace(req.Description),
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		CreatedAt:   time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockInvoice(ctx, tx, invoiceID); err != nil {
			return err
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return s.recompute(ctx, tx, invoiceID)
	})
	if err != nil {
		return nil, err
	}

	s.recordItem(ctx, userID, auditdomain.ActionCreate, &item, nil, s.itemDesc.Snapshot(&item))
	return &item, nil
}

func (s *service) UpdateItem(ctx context.Context, userID snowflake.ID, itemID snowflake.ID, req domain.ItemRequest) (*domain.InvoiceItem, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := validateItem(req); err != nil {
		return nil, err
	}

	before := s.itemDesc.Snapshot(item)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockInvoice(ctx, tx, item.InvoiceID); err != nil {
			return err
		}
		item.Description = strings.TrimSpace(req.Description)
		item.Quantity = req.Quantity
		item.UnitPrice = req.UnitPrice
		if err := tx.Save(item).Error; err != nil {
			return err
		}
		return s.recompute(ctx, tx, item.InvoiceID)
	})
	if err != nil {
		return nil, err
	}

	s.recordItem(ctx, userID, auditdomain.ActionUpdate, item, before, s.itemDesc.Snapshot(item))
	return item, nil
}

func (s *service) RemoveItem(ctx context.Context, userID snowflake.ID, itemID snowflake.ID) error {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return err
	}

	before := s.itemDesc.Snapshot(item)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockInvoice(ctx, tx, item.InvoiceID); err != nil {
			return err
		}
		if err := tx.Where("id = ?", itemID).Delete(&domain.InvoiceItem{}).Error; err != nil {
			return err
		}
		return s.recompute(ctx, tx, item.InvoiceID)
	})
	if err != nil {
		return err
	}

	s.recordItem(ctx, userID, auditdomain.ActionDelete, item, before, nil)
	return nil
}

func (s *service) ListItems(ctx context.Context, invoiceID snowflake.ID) ([]*domain.InvoiceItem, error) {
	if _, err := s.Get(ctx, invoiceID); err != nil {
		return nil, err
	}

	var items []*domain.InvoiceItem
	err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at asc, id asc").
		Find(&items).Error
	return items, err
}

// getItem loads an item and checks, through its invoice, that it belongs to
// the request's tenant.
func (s *service) getItem(ctx context.Context, itemID snowflake.ID) (*domain.InvoiceItem, error) {
	var item domain.InvoiceItem
	err := s.db.WithContext(ctx).First(&item, "id = ?", itemID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, item.InvoiceID); err != nil {
		return nil, domain.ErrItemNotFound
	}
	return &item, nil
}

// lockInvoice pins the invoice row for the duration of the transaction.
// sqlite serializes writers already and rejects FOR UPDATE, so the clause is
// skipped there.
func (s *service) lockInvoice(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) (*domain.Invoice, error) {
	q := tx.WithContext(ctx)
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var invoice domain.Invoice
	if err := q.First(&invoice, "id = ?", invoiceID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// recompute derives the invoice total from its items and writes it back.
// Runs inside the caller's transaction; an error here aborts the mutation.
func (s *service) recompute(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) error {
	var items []*domain.InvoiceItem
	if err := tx.WithContext(ctx).Where("invoice_id = ?", invoiceID).Find(&items).Error; err != nil {
		return err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount())
	}

	err := tx.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", invoiceID).
		Updates(map[string]any{
			"total_amount": total,
			"updated_at":   time.Now().UTC(),
		}).Error
	if err != nil {
		return err
	}

	s.metrics.InvoiceRecomputes.Inc()
	return nil
}

func (s *service) recordItem(ctx context.Context, userID snowflake.ID, action auditdomain.Action, item *domain.InvoiceItem, before, after map[string]any) {
	orgID, err := s.itemDesc.ResolveOrg(ctx, s.db, item)
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

	if err := s.audit.Record(ctx, auditdomain.Record{
		UserID:     user,
		OrgID:      orgID,
		Action:     action,
		EntityType: s.itemDesc.EntityType,
		EntityID:   s.itemDesc.EntityID(item),
		Before:     before,
		After:      after,
	}); err != nil {
		s.log.Warn("audit record dropped",
			zap.String("action", string(action)),
			zap.String("entity_id", s.itemDesc.EntityID(item)),
			zap.Error(err),
		)
	}
}

func (s *service) recordInvoice(ctx context.Context, userID snowflake.ID, action auditdomain.Action, invoice *domain.Invoice, before, after map[string]any) {
	var user *snowflake.ID
	if userID != 0 {
		user = &userID
	}

	orgID := invoice.OrgID
	if err := s.audit.Record(ctx, auditdomain.Record{
		UserID:     user,
		OrgID:      &orgID,
		Action:     action,
		EntityType: "invoice",
		EntityID:   invoice.ID.String(),
		Before:     before,
		After:      after,
	}); err != nil {
		s.log.Warn("audit record dropped",
			zap.String("action", string(action)),
			zap.String("entity_id", invoice.ID.String()),
			zap.Error(err),
		)
	}
}

func validateItem(req domain.ItemRequest) error {
	if strings.TrimSpace(req.Description) == "" {
		return domain.ErrInvalidItem
	}
	if req.Quantity <= 0 {
		return domain.ErrInvalidItem
	}
	if req.UnitPrice.IsNegative() {
		return domain.ErrInvalidItem
	}
	return nil
}
