package invoices

import (
	"time"

	"github.com/ariefcatur/go-backoffice/internal/orders"
	"github.com/ariefcatur/go-backoffice/internal/totals"
	"github.com/shopspring/decimal"
)

type Invoice struct {
	ID            string `json:"id"`
	InvoiceNumber string `json:"invoice_number"`

	// OrderID records the order the invoice was drafted from. It is a snapshot
	// reference; later edits to the order are not propagated.
	OrderID *string `json:"order_id"`

	orders.Customer
	Status         Status          `json:"status"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	IssueDate      time.Time       `json:"issue_date"`
	DueDate        *time.Time      `json:"due_date"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Items          []LineItem      `json:"items"`
}

type LineItem struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoice_id"`
	ProductID   *string         `json:"product_id"`
	ProductCode string          `json:"product_code"`
	Size        string          `json:"size"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// Recalculate derives each line total as quantity × unit price, then the
// invoice figures.
func (inv *Invoice) Recalculate() totals.Totals {
	for i := range inv.Items {
		it := &inv.Items[i]
		it.TotalPrice = totals.InvoiceLineTotal(it.Quantity, it.UnitPrice)
	}
	return inv.Summarize()
}

// Summarize derives the invoice figures from the line totals as they stand.
func (inv *Invoice) Summarize() totals.Totals {
	lines := make([]decimal.Decimal, len(inv.Items))
	for i, it := range inv.Items {
		lines[i] = it.TotalPrice
	}
	t := totals.Compute(lines, inv.DiscountAmount, inv.TaxRate)
	inv.Subtotal = t.Subtotal
	inv.TaxAmount = t.TaxAmount
	inv.TotalAmount = t.GrandTotal
	return t
}

func (inv *Invoice) RecordID() string      { return inv.ID }
func (inv *Invoice) CurrentStatus() Status { return inv.Status }

func (inv *Invoice) SetStatus(s Status, at time.Time) {
	inv.Status = s
	inv.UpdatedAt = at
}
