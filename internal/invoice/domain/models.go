// Package domain contains persistence models for invoices and their line
// items. Monetary amounts are exact decimals end to end.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const (
	StatusDraft   = "draft"
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusOverdue = "overdue"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusDraft, StatusPending, StatusPaid, StatusOverdue:
		return true
	default:
		return false
	}
}

// Invoice is a tenant-scoped bill. TotalAmount is derived state: it always
// equals the sum of the line item amounts and is maintained inside the same
// transaction as any item mutation.
type Invoice struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID    `gorm:"not null;uniqueIndex:ux_invoices_org_number" json:"org_id"`
	Number      string          `gorm:"type:text;not null;uniqueIndex:ux_invoices_org_number" json:"number"`
	ClientName  string          `gorm:"type:text;not null" json:"client_name"`
	ClientEmail string          `gorm:"type:text" json:"client_email"`
	IssueDate   time.Time       `gorm:"not null" json:"issue_date"`
	DueDate     time.Time       `gorm:"not null" json:"due_date"`
	Status      string          `gorm:"type:text;not null;default:'draft'" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_amount"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is a line on an invoice. Amount() is quantity times unit
// price; the row carries no org column and resolves ownership through the
// invoice.
type InvoiceItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// Amount is the line total.
func (i *InvoiceItem) Amount() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

type CreateInvoiceRequest struct {
	Number      string
	ClientName  string
	ClientEmail string
	IssueDate   time.Time
	DueDate     time.Time
	Status      string
}

type UpdateInvoiceRequest struct {
	ClientName  *string
	ClientEmail *string
	IssueDate   *time.Time
	DueDate     *time.Time
	Status      *string
}

type ItemRequest struct {
	Description string
	Quantity    int64
	UnitPrice   decimal.Decimal
}

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateInvoiceRequest) (*Invoice, error)
	Get(ctx context.Context, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context) ([]*Invoice, error)
	Update(ctx context.Context, userID snowflake.ID, id snowflake.ID, req UpdateInvoiceRequest) (*Invoice, error)
	Delete(ctx context.Context, userID snowflake.ID, id snowflake.ID) error

	AddItem(ctx context.Context, userID snowflake.ID, invoiceID snowflake.ID, req ItemRequest) (*InvoiceItem, error)
	UpdateItem(ctx context.Context, userID snowflake.ID, itemID snowflake.ID, req ItemRequest) (*InvoiceItem, error)
	RemoveItem(ctx context.Context, userID snowflake.ID, itemID snowflake.ID) error
	ListItems(ctx context.Context, invoiceID snowflake.ID) ([]*InvoiceItem, error)
}

var (
	ErrInvalidNumber       = errors.New("invalid_number")
	ErrInvalidClient       = errors.New("invalid_client")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidItem         = errors.New("invalid_item")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrNumberTaken         = errors.New("number_taken")
	ErrInvoiceNotFound     = errors.New("invoice_not_found")
	ErrItemNotFound        = errors.New("item_not_found")
)
