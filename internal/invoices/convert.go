package invoices

import (
	"context"

	"github.com/ariefcatur/go-backoffice/internal/orders"
)

// OrderSource loads an order together with its items and joined product codes.
type OrderSource interface {
	Get(ctx context.Context, id string) (*orders.Order, error)
}

type Converter struct {
	Orders OrderSource
}

// Select fills draft from order orderID. It is a destructive replace: every
// item already on the draft is discarded, manual ones included. An empty
// orderID clears the source reference and the items; customer fields stay.
// When the order cannot be loaded the draft is left untouched.
func (c *Converter) Select(ctx context.Context, draft *Invoice, orderID string) error {
	if orderID == "" {
		draft.OrderID = nil
		draft.Items = nil
		draft.Summarize()
		return nil
	}
	o, err := c.Orders.Get(ctx, orderID)
	if err != nil {
		return err
	}

	id := o.ID
	draft.OrderID = &id
	draft.Customer = o.Customer
	draft.DiscountAmount = o.DiscountAmount
	draft.TaxRate = o.TaxRate
	draft.Notes = o.Notes

	items := make([]LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, LineItem{
			ProductID:   it.ProductID,
			ProductCode: it.ProductCode,
			Size:        it.Size,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPricePerArea,
			TotalPrice:  it.TotalPrice,
		})
	}
	draft.Items = items
	draft.Summarize()
	return nil
}
