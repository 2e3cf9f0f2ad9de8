package invoices

import (
	"strconv"
	"time"
)

// NewInvoiceNumber returns INV-<unix millis>. Invoice numbers carry no unique
// constraint and are never retried.
func NewInvoiceNumber(now time.Time) string {
	return "INV-" + strconv.FormatInt(now.UnixMilli(), 10)
}
