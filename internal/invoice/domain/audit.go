package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/teamdesk/internal/audit/introspect"
)

// Describe registers the invoice's audit descriptor. Decimal amounts are
// snapshotted in string form so the stored JSON stays exact.
func Describe() *introspect.Descriptor[Invoice] {
	return &introspect.Descriptor[Invoice]{
		EntityType: "invoice",
		ID:         func(i *Invoice) snowflake.ID { return i.ID },
		Fields: []introspect.Field[Invoice]{
			introspect.Scalar("id", func(i *Invoice) any { return i.ID.String() }),
			introspect.Relation("org_id", func(i *Invoice) *snowflake.ID { return &i.OrgID }),
			introspect.Scalar("number", func(i *Invoice) any { return i.Number }),
			introspect.Scalar("client_name", func(i *Invoice) any { return i.ClientName }),
			introspect.Scalar("client_email", func(i *Invoice) any { return i.ClientEmail }),
			introspect.Scalar("issue_date", func(i *Invoice) any { return i.IssueDate }),
			introspect.Scalar("due_date", func(i *Invoice) any { return i.DueDate }),
			introspect.Scalar("status", func(i *Invoice) any { return i.Status }),
			introspect.Scalar("total_amount", func(i *Invoice) any { return i.TotalAmount.StringFixed(2) }),
			introspect.Scalar("created_at", func(i *Invoice) any { return i.CreatedAt }),
			introspect.Scalar("updated_at", func(i *Invoice) any { return i.UpdatedAt }),
		},
		OrgResolvers: []introspect.OrgResolver[Invoice]{
			introspect.DirectOrg(func(i *Invoice) snowflake.ID { return i.OrgID }),
		},
	}
}

// DescribeItem registers the line item descriptor. Items carry no org
// column; ownership resolves through the parent invoice.
func DescribeItem() *introspect.Descriptor[InvoiceItem] {
	return &introspect.Descriptor[InvoiceItem]{
		EntityType: "invoice_item",
		ID:         func(i *InvoiceItem) snowflake.ID { return i.ID },
		Fields: []introspect.Field[InvoiceItem]{
			introspect.Scalar("id", func(i *InvoiceItem) any { return i.ID.String() }),
			introspect.Relation("invoice_id", func(i *InvoiceItem) *snowflake.ID { return &i.InvoiceID }),
			introspect.Scalar("description", func(i *InvoiceItem) any { return i.Description }),
			introspect.Scalar("quantity", func(i *InvoiceItem) any { return i.Quantity }),
			introspect.Scalar("unit_price", func(i *InvoiceItem) any { return i.UnitPrice.StringFixed(2) }),
			introspect.Scalar("amount", func(i *InvoiceItem) any { return i.Amount().StringFixed(2) }),
			introspect.Scalar("created_at", func(i *InvoiceItem) any { return i.CreatedAt }),
		},
		OrgResolvers: []introspect.OrgResolver[InvoiceItem]{
			introspect.ParentOrg("invoices", func(i *InvoiceItem) snowflake.ID { return i.InvoiceID }),
		},
	}
}
