package orders

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-backoffice/internal/apperr"
)

// NumberConstraint is the unique constraint on orders.order_number.
const NumberConstraint = "orders_order_number_key"

const DefaultNumberAttempts = 3

const suffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderNumber returns ORD-<base36 unix millis>-<4 random chars>, upper case.
func NewOrderNumber(now time.Time) string {
	var b strings.Builder
	b.WriteString("ORD-")
	b.WriteString(strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)))
	b.WriteByte('-')
	for range 4 {
		b.WriteByte(suffixAlphabet[rand.IntN(len(suffixAlphabet))])
	}
	return b.String()
}

// Allocator assigns order numbers on insert and regenerates the number when
// the insert collides on NumberConstraint. A number the operator typed is
// never replaced.
type Allocator struct {
	Insert      func(ctx context.Context, o *Order) error
	Generate    func() string
	MaxAttempts int
	OnRetry     func(attempt int, next string)
}

// Create inserts o. When numberEdited is false a collision on the order
// number is retried with a fresh number, up to MaxAttempts inserts in total.
// Any other error, or any error for an edited number, is returned as is.
func (a *Allocator) Create(ctx context.Context, o *Order, numberEdited bool) error {
	gen := a.Generate
	if gen == nil {
		gen = func() string { return NewOrderNumber(time.Now()) }
	}
	limit := a.MaxAttempts
	if limit <= 0 {
		limit = DefaultNumberAttempts
	}
	if o.OrderNumber == "" {
		o.OrderNumber = gen()
	}

	for attempt := 1; ; attempt++ {
		err := a.Insert(ctx, o)
		if err == nil {
			return nil
		}
		if numberEdited || attempt >= limit || !apperr.IsDuplicate(err, NumberConstraint) {
			return err
		}
		o.OrderNumber = gen()
		if a.OnRetry != nil {
			a.OnRetry(attempt, o.OrderNumber)
		}
	}
}
