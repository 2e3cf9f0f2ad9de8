package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	kafkax "github.com/ariefcatur/go-backoffice/internal/kafka"
	"github.com/ariefcatur/go-backoffice/internal/notify"
	"github.com/ariefcatur/go-backoffice/internal/redisx"
	"github.com/ariefcatur/go-backoffice/internal/workflow"
)

const (
	EventInvoiceCreated = "InvoiceCreated"
	EventInvoiceUpdated = "InvoiceUpdated"
	EventStatusChanged  = "InvoiceStatusChanged"
)

type StatusChangedPayload struct {
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	From          Status `json:"from"`
	To            Status `json:"to"`
}

type Store interface {
	Insert(ctx context.Context, inv *Invoice) error
	Update(ctx context.Context, inv *Invoice) error
	UpdateStatus(ctx context.Context, id string, to Status, at time.Time) error
	Get(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context) ([]*Invoice, error)
}

type Service struct {
	Store       Store
	Notifier    notify.Notifier
	Events      kafkax.Publisher
	Cache       *redisx.StatusCache
	ServiceName string
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Create fills defaults, derives the totals and inserts inv.
func (s *Service) Create(ctx context.Context, inv *Invoice) error {
	now := s.now()
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = NewInvoiceNumber(now)
	}
	if inv.Status == "" {
		inv.Status = StatusDraft
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = now.Truncate(24 * time.Hour)
	}
	inv.Recalculate()
	return s.finish(ctx, inv, EventInvoiceCreated, s.Store.Insert(ctx, inv))
}

func (s *Service) Update(ctx context.Context, inv *Invoice) error {
	inv.Recalculate()
	return s.finish(ctx, inv, EventInvoiceUpdated, s.Store.Update(ctx, inv))
}

func (s *Service) finish(ctx context.Context, inv *Invoice, event string, err error) error {
	if err != nil {
		s.notify(ctx, notify.Error, fmt.Sprintf("Failed to save invoice: %v", err))
		return err
	}
	s.notify(ctx, notify.Success, fmt.Sprintf("Invoice %s saved", inv.InvoiceNumber))
	s.publish(inv.ID, event, map[string]any{
		"invoice_id":     inv.ID,
		"invoice_number": inv.InvoiceNumber,
		"order_id":       inv.OrderID,
		"total_amount":   inv.TotalAmount,
	})
	s.cacheStatus(ctx, inv)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Invoice, error) { return s.Store.Get(ctx, id) }
func (s *Service) List(ctx context.Context) ([]*Invoice, error)         { return s.Store.List(ctx) }

func (s *Service) StatusWorkflow(m *workflow.Machine[Status]) *workflow.Workflow[Status, *Invoice] {
	return &workflow.Workflow[Status, *Invoice]{
		Noun:     "invoice",
		Machine:  m,
		Store:    s.Store,
		Notifier: s.Notifier,
		Now:      s.Now,
		OnChange: func(ctx context.Context, inv *Invoice, from Status) {
			s.cacheStatus(ctx, inv)
			s.publish(inv.ID, EventStatusChanged, StatusChangedPayload{
				InvoiceID: inv.ID, InvoiceNumber: inv.InvoiceNumber, From: from, To: inv.Status,
			})
		},
	}
}

func (s *Service) cacheStatus(ctx context.Context, inv *Invoice) {
	if err := s.Cache.Set(ctx, inv.ID, string(inv.Status), inv.UpdatedAt); err != nil {
		slog.WarnContext(ctx, "status cache write failed", "invoice_id", inv.ID, "err", err)
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
