package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	kafkax "github.com/ariefcatur/go-backoffice/internal/kafka"
	"github.com/ariefcatur/go-backoffice/internal/metrics"
	"github.com/ariefcatur/go-backoffice/internal/notify"
	"github.com/ariefcatur/go-backoffice/internal/redisx"
	"github.com/ariefcatur/go-backoffice/internal/workflow"
	"github.com/shopspring/decimal"
)

type Store interface {
	Insert(ctx context.Context, o *Order, cols Columns) error
	Update(ctx context.Context, o *Order, cols Columns) error
	UpdateStatus(ctx context.Context, id string, to Status, at time.Time) error
	Get(ctx context.Context, id string, cols Columns) (*Order, error)
	List(ctx context.Context, cols Columns) ([]*Order, error)
	Items(ctx context.Context, orderID string) ([]LineItem, error)
}

// TaxGuard reports whether orders.tax_rate can be written. Observe inspects a
// failed write and returns true when it was caused by the column missing.
type TaxGuard interface {
	Available(ctx context.Context) bool
	Observe(ctx context.Context, err error) bool
}

type Service struct {
	Store          Store
	Guard          TaxGuard // nil: tax_rate is always written
	Notifier       notify.Notifier
	Events         kafkax.Publisher
	Cache          *redisx.StatusCache
	ServiceName    string
	NumberAttempts int
	GenerateNumber func() string
}

func (s *Service) columns(ctx context.Context) Columns {
	if s.Guard == nil {
		return AllColumns
	}
	return Columns{TaxRate: s.Guard.Available(ctx)}
}

// Create recalculates o and inserts it, allocating an order number.
func (s *Service) Create(ctx context.Context, o *Order, numberEdited bool) error {
	err := s.save(ctx, o, func(ctx context.Context, cols Columns) error {
		a := &Allocator{
			Insert:      func(ctx context.Context, o *Order) error { return s.Store.Insert(ctx, o, cols) },
			Generate:    s.GenerateNumber,
			MaxAttempts: s.NumberAttempts,
			OnRetry: func(attempt int, next string) {
				metrics.OrderNumberRetries.Inc()
				slog.WarnContext(ctx, "order number taken, retrying", "attempt", attempt, "next", next)
			},
		}
		return a.Create(ctx, o, numberEdited)
	})
	if err == nil {
		s.publish(o.ID, EventOrderCreated, savedPayload(o))
		s.cacheStatus(ctx, o)
	}
	return err
}

// Update recalculates o and replaces the stored order and its items.
func (s *Service) Update(ctx context.Context, o *Order) error {
	err := s.save(ctx, o, func(ctx context.Context, cols Columns) error {
		return s.Store.Update(ctx, o, cols)
	})
	if err == nil {
		s.publish(o.ID, EventOrderUpdated, savedPayload(o))
		s.cacheStatus(ctx, o)
	}
	return err
}

// withColumns runs fn once, and once more without tax_rate when the first run
// failed because the column is missing. Reads and writes both go through it.
func (s *Service) withColumns(ctx context.Context, fn func(Columns) error) error {
	cols := s.columns(ctx)
	err := fn(cols)
	if err != nil && cols.TaxRate && s.Guard != nil && s.Guard.Observe(ctx, err) {
		err = fn(Columns{})
	}
	return err
}

func (s *Service) save(ctx context.Context, o *Order, write func(context.Context, Columns) error) error {
	err := s.withColumns(ctx, func(cols Columns) error {
		prepare(o, cols)
		return write(ctx, cols)
	})
	if err != nil {
		s.notify(ctx, notify.Error, fmt.Sprintf("Failed to save order: %v", err))
		return err
	}
	s.notify(ctx, notify.Success, fmt.Sprintf("Order %s saved", o.OrderNumber))
	return nil
}

func prepare(o *Order, cols Columns) {
	if !cols.TaxRate {
		o.TaxRate = decimal.Zero
	}
	o.Recalculate()
}

// Get loads an order with its items.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Items, err = s.Store.Items(ctx, id); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) List(ctx context.Context) ([]*Order, error) {
	var out []*Order
	err := s.withColumns(ctx, func(cols Columns) (err error) {
		out, err = s.Store.List(ctx, cols)
		return err
	})
	return out, err
}

func (s *Service) load(ctx context.Context, id string) (*Order, error) {
	var o *Order
	err := s.withColumns(ctx, func(cols Columns) (err error) {
		o, err = s.Store.Get(ctx, id, cols)
		return err
	})
	return o, err
}

// Status reads through the redis status cache.
func (s *Service) Status(ctx context.Context, id string) (redisx.CachedStatus, error) {
	if cs, ok := s.Cache.Get(ctx, id); ok {
		return cs, nil
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return redisx.CachedStatus{}, err
	}
	s.cacheStatus(ctx, o)
	return redisx.CachedStatus{Status: string(o.Status), UpdatedAt: o.UpdatedAt}, nil
}

// StatusWorkflow builds the status transition flow for orders on machine m.
func (s *Service) StatusWorkflow(m *workflow.Machine[Status]) *workflow.Workflow[Status, *Order] {
	return &workflow.Workflow[Status, *Order]{
		Noun:     "order",
		Machine:  m,
		Store:    s.Store,
		Notifier: s.Notifier,
		OnChange: func(ctx context.Context, o *Order, from Status) {
			s.cacheStatus(ctx, o)
			s.publish(o.ID, EventStatusChanged, StatusChangedPayload{
				OrderID: o.ID, OrderNumber: o.OrderNumber, From: from, To: o.Status,
			})
		},
	}
}

func (s *Service) cacheStatus(ctx context.Context, o *Order) {
	if err := s.Cache.Set(ctx, o.ID, string(o.Status), o.UpdatedAt); err != nil {
		slog.WarnContext(ctx, "status cache write failed", "order_id", o.ID, "err", err)
	}
}

func (s *Service) publish(id, eventType string, payload any) {
	if s.Events == nil {
		return
	}
	kafkax.PublishEnvelope(s.Events, id, kafkax.NewEnvelope(eventType, s.ServiceName, id, payload))
}

func (s *Service) notify(ctx context.Context, sev notify.Severity, msg string) {
	if s.Notifier != nil {
		s.Notifier.Notify(ctx, sev, msg)
	}
}

func savedPayload(o *Order) OrderSavedPayload {
	return OrderSavedPayload{
		OrderID: o.ID, OrderNumber: o.OrderNumber, Status: o.Status, FinalAmount: o.FinalAmount, Items: len(o.Items),
	}
}
