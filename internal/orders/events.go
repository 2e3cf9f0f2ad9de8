package orders

import "github.com/shopspring/decimal"

const (
	EventOrderCreated  = "OrderCreated"
	EventOrderUpdated  = "OrderUpdated"
	EventStatusChanged = "OrderStatusChanged"
)

type OrderSavedPayload struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Status      Status          `json:"status"`
	FinalAmount decimal.Decimal `json:"final_amount"`
	Items       int             `json:"items"`
}

type StatusChangedPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	From        Status `json:"from"`
	To          Status `json:"to"`
}
