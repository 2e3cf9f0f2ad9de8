// Package totals derives line and document figures for orders and invoices.
//
// Grand totals are tax inclusive: the tax component is backed out of the total
// rather than added on top. Nothing here validates its inputs; a discount larger
// than the subtotal produces a negative grand total and that is passed through.
package totals

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
	BeforeTax  decimal.Decimal `json:"before_tax"`
}

// InvoiceLineTotal is quantity × unit price.
func InvoiceLineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// OrderLineTotal is total area × price per area unit. Quantity is tracked on
// order lines but does not enter the price.
func OrderLineTotal(totalArea, unitPricePerArea decimal.Decimal) decimal.Decimal {
	return totalArea.Mul(unitPricePerArea)
}

// TaxFromInclusive backs the tax out of a tax-inclusive amount at rate percent.
func TaxFromInclusive(amount, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return decimal.Zero
	}
	denom := hundred.Add(rate)
	if denom.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(rate).Div(denom)
}

// Compute sums the line totals and derives the document figures.
func Compute(lineTotals []decimal.Decimal, discount, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Sum(decimal.Zero, lineTotals...)
	grand := subtotal.Sub(discount)
	tax := TaxFromInclusive(grand, taxRate)
	return Totals{
		Subtotal:   subtotal,
		Discount:   discount,
		GrandTotal: grand,
		TaxRate:    taxRate,
		TaxAmount:  tax,
		BeforeTax:  grand.Sub(tax),
	}
}
