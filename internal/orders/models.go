package orders

import (
	"time"

	"github.com/ariefcatur/go-backoffice/internal/totals"
	"github.com/shopspring/decimal"
)

type Customer struct {
	Name    string `json:"customer_name"`
	Email   string `json:"customer_email"`
	Phone   string `json:"customer_phone"`
	Address string `json:"customer_address"`
}

type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
	Customer
	Status         Status          `json:"status"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"` // subtotal
	FinalAmount    decimal.Decimal `json:"final_amount"` // grand total
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Items          []LineItem      `json:"items,omitempty"`
}

type LineItem struct {
	ID               string          `json:"id"`
	OrderID          string          `json:"order_id"`
	ProductID        *string         `json:"product_id"`
	ProductCode      string          `json:"product_code,omitempty"` // joined from products, not stored
	Size             string          `json:"size"`
	Quantity         int             `json:"quantity"`
	TotalArea        decimal.Decimal `json:"total_area"`
	UnitPricePerArea decimal.Decimal `json:"unit_price_per_area"`
	TotalPrice       decimal.Decimal `json:"total_price"`
}

// Recalculate derives every line total and the order figures from the items,
// discount and tax rate. Line prices are area based; Quantity does not enter them.
func (o *Order) Recalculate() totals.Totals {
	lines := make([]decimal.Decimal, len(o.Items))
	for i := range o.Items {
		it := &o.Items[i]
		it.TotalPrice = totals.OrderLineTotal(it.TotalArea, it.UnitPricePerArea)
		lines[i] = it.TotalPrice
	}
	t := totals.Compute(lines, o.DiscountAmount, o.TaxRate)
	o.TotalAmount = t.Subtotal
	o.TaxAmount = t.TaxAmount
	o.FinalAmount = t.GrandTotal
	return t
}

func (o *Order) RecordID() string      { return o.ID }
func (o *Order) CurrentStatus() Status { return o.Status }

func (o *Order) SetStatus(s Status, at time.Time) {
	o.Status = s
	o.UpdatedAt = at
}
