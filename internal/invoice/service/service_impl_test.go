package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/teamdesk/internal/audit/domain"
	auditrepository "github.com/smallbiznis/teamdesk/internal/audit/repository"
	auditservice "github.com/smallbiznis/teamdesk/internal/audit/service"
	"github.com/smallbiznis/teamdesk/internal/invoice/domain"
	"github.com/smallbiznis/teamdesk/internal/observability/metrics"
	"github.com/smallbiznis/teamdesk/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc    domain.Service
	db     *gorm.DB
	node   *snowflake.Node
	orgID  snowflake.ID
	userID snowflake.ID
	ctx    context.Context
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	// A single connection serializes concurrent transactions on sqlite.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Invoice{},
		&domain.InvoiceItem{},
		&auditdomain.AuditEntry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    auditrepository.Provide(),
		Metrics: metrics.New(prometheus.NewRegistry()),
	})

	svc := NewService(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		AuditSvc: auditSvc,
		Metrics:  metrics.New(prometheus.NewRegistry()),
	})

	orgID := node.Generate()
	return &fixture{
		svc:    svc,
		db:     db,
		node:   node,
		orgID:  orgID,
		userID: node.Generate(),
		ctx:    orgcontext.WithOrgID(context.Background(), orgID),
	}
}

func (f *fixture) newInvoice(t *testing.T, number string) *domain.Invoice {
	t.Helper()
	invoice, err := f.svc.Create(f.ctx, f.userID, domain.CreateInvoiceRequest{
		Number:     number,
		ClientName: "Initech",
		IssueDate:  time.Now().UTC(),
		DueDate:    time.Now().UTC().Add(14 * 24 * time.Hour),
	})
	require.NoError(t, err)
	return invoice
}

func (f *fixture) total(t *testing.T, invoiceID snowflake.ID) decimal.Decimal {
	t.Helper()
	invoice, err := f.svc.Get(f.ctx, invoiceID)
	require.NoError(t, err)
	return invoice.TotalAmount
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestItemMutationsMaintainTotal(t *testing.T) {
	f := setup(t)
	invoice := f.newInvoice(t, "INV-001")

	assert.True(t, f.total(t, invoice.ID).IsZero())

	first, err := f.svc.AddItem(f.ctx, f.userID, invoice.ID, domain.ItemRequest{
		Description: "consulting",
		Quantity:    2,
		UnitPrice:   mustDecimal(t, "10.00"),
	})
	require.NoError(t, err)

	_, err = f.svc.AddItem(f.ctx, f.userID, invoice.ID, domain.ItemRequest{
		Description: "hosting",
		Quantity:    1,
		UnitPrice:   mustDecimal(t, "5.00"),
	})
	require.NoError(t, err)

	assert.True(t, f.total(t, invoice.ID).Equal(mustDecimal(t, "25.00")),
		"total should be 25.00, got %s", f.total(t, invoice.ID))

	_, err = f.svc.UpdateItem(f.ctx, f.userID, first.ID, domain.ItemRequest{
		Description: "consulting",
		Quantity:    3,
		UnitPrice:   mustDecimal(t, "10.00"),
	})
	require.NoError(t, err)
	assert.True(t, f.total(t, invoice.ID).Equal(mustDecimal(t, "35.00")))

	require.NoError(t, f.svc.RemoveItem(f.ctx, f.userID, first.ID))
	assert.True(t, f.total(t, invoice.ID).Equal(mustDecimal(t, "5.00")))
}

func TestItemValidation(t *testing.T) {
	f := setup(t)
	invoice := f.newInvoice(t, "INV-001")

	_, err := f.svc.AddItem(f.ctx, f.userID, invoice.ID, domain.ItemRequest{
		Description: "",
		Quantity:    1,
		UnitPrice:   mustDecimal(t, "1.00"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidItem)

	_, err = f.svc.AddItem(f.ctx, f.userID, invoice.ID, domain.ItemRequest{
		Description: "bad qty",
		Quantity:    0,
		UnitPrice:   mustDecimal(t, "1.00"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidItem)

	_, err = f.svc.AddItem(f.ctx, f.userID, invoice.ID, domain.ItemRequest{
		Description: "negative",
		Quantity:    1,
		UnitPrice:   mustDecimal(t, "-1.00"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidItem)
}

func TestDuplicateNumberPerOrg(t *testing.T) {
	f := setup(t)
	f.newInvoice(t, "INV-001")

	_, err := f.svc.Create(f.ctx, f.userID, domain.CreateInvoiceRequest{
		Number:     "INV-001",
		ClientName: "Initech",
		IssueDate:  time.Now().UTC(),
		DueDate:    time.Now().UTC(),
	})
	assert.ErrorIs(t, err, domain.ErrNumberTaken)
}

func TestItemAuditOwnershipThroughInvoice(t *testing.T) {
	f := setup(t)
	invoice := f.newInvoice(t, "INV-001")

	item, err := f.svc.AddItem(f.ctx, f.userID, invoice.ID, domain.ItemRequest{
		Description: "consulting",
		Quantity:    1,
		UnitPrice:   mustDecimal(t, "10.00"),
	})
	require.NoError(t, err)

	var entries []auditdomain.AuditEntry
	require.NoError(t, f.db.Where("entity_type = ?", "invoice_item").Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, item.ID.String(), entries[0].EntityID)
	require.NotNil(t, entries[0].OrgID)
	assert.Equal(t, f.orgID, *entries[0].OrgID)
}

func TestCrossTenantItemAccess(t *testing.T) {
	f := setup(t)
	invoice := f.newInvoice(t, "INV-001")

	item, err := f.svc.AddItem(f.ctx, f.userID, invoice.ID, domain.ItemRequest{
		Description: "consulting",
		Quantity:    1,
		UnitPrice:   mustDecimal(t, "10.00"),
	})
	require.NoError(t, err)

	foreignCtx := orgcontext.WithOrgID(context.Background(), f.node.Generate())
	_, err = f.svc.UpdateItem(foreignCtx, f.userID, item.ID, domain.ItemRequest{
		Description: "hijack",
		Quantity:    1,
		UnitPrice:   mustDecimal(t, "99.00"),
	})
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestDeleteInvoiceRemovesItems(t *testing.T) {
	f := setup(t)
	invoice := f.newInvoice(t, "INV-001")

	_, err := f.svc.AddItem(f.ctx, f.userID, invoice.ID, domain.ItemRequest{
		Description: "consulting",
		Quantity:    1,
		UnitPrice:   mustDecimal(t, "10.00"),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(f.ctx, f.userID, invoice.ID))

	var itemCount int64
	require.NoError(t, f.db.Model(&domain.InvoiceItem{}).Count(&itemCount).Error)
	assert.Zero(t, itemCount)

	var entries []auditdomain.AuditEntry
	require.NoError(t, f.db.Where("entity_type = ? AND action = ?", "invoice", auditdomain.ActionDelete).Find(&entries).Error)
	assert.Len(t, entries, 1)
}

func TestConcurrentItemInsertsKeepTotalConsistent(t *testing.T) {
	f := setup(t)
	invoice := f.newInvoice(t, "INV-001")

	const workers = 8
	unitPrice := mustDecimal(t, "1.00")

	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.svc.AddItem(f.ctx, f.userID, invoice.ID, domain.ItemRequest{
				Description: fmt.Sprintf("line-%d", n),
				Quantity:    1,
				UnitPrice:   unitPrice,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	want := decimal.NewFromInt(workers)
	got := f.total(t, invoice.ID)
	assert.True(t, got.Equal(want), "total should be %s, got %s", want, got)
}
