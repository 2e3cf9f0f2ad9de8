package redisx

import "time"

const (
	// Status cache: {doc}_status:{id} -> {"status": "...", "updated_at": "..."}
	KeyOrderStatus   = "order_status:%s"
	KeyInvoiceStatus = "invoice_status:%s"

	// Set of acknowledged notification ids.
	KeyNotificationAcks = "notifications:acked"
)

var TTLStatusCache = 5 * time.Minute
