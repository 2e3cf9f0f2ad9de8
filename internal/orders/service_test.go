package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ariefcatur/go-backoffice/internal/apperr"
	"github.com/ariefcatur/go-backoffice/internal/notify"
	"github.com/ariefcatur/go-backoffice/internal/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore is an in-memory Store. Column sets passed to writes are recorded.
type mockStore struct {
	orders    map[string]*Order
	items     map[string][]LineItem
	writes    []Columns
	writeErrs []error
	statusErr error
	reads     []Columns
	readErrs  []error
}

func newMockStore() *mockStore {
	return &mockStore{orders: map[string]*Order{}, items: map[string][]LineItem{}}
}

func (m *mockStore) nextErr(cols Columns) error {
	m.writes = append(m.writes, cols)
	if len(m.writeErrs) == 0 {
		return nil
	}
	err := m.writeErrs[0]
	m.writeErrs = m.writeErrs[1:]
	return err
}

func (m *mockStore) Insert(_ context.Context, o *Order, cols Columns) error {
	if err := m.nextErr(cols); err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = fmt.Sprintf("o-%d", len(m.orders)+1)
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	cp := *o
	m.orders[o.ID] = &cp
	m.items[o.ID] = append([]LineItem(nil), o.Items...)
	return nil
}

func (m *mockStore) Update(_ context.Context, o *Order, cols Columns) error {
	if err := m.nextErr(cols); err != nil {
		return err
	}
	if _, ok := m.orders[o.ID]; !ok {
		return apperr.ErrNotFound
	}
	cp := *o
	m.orders[o.ID] = &cp
	m.items[o.ID] = append([]LineItem(nil), o.Items...)
	return nil
}

func (m *mockStore) UpdateStatus(_ context.Context, id string, to Status, at time.Time) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	o, ok := m.orders[id]
	if !ok {
		return apperr.ErrNotFound
	}
	o.Status, o.UpdatedAt = to, at
	return nil
}

func (m *mockStore) readErr(cols Columns) error {
	m.reads = append(m.reads, cols)
	if len(m.readErrs) == 0 {
		return nil
	}
	err := m.readErrs[0]
	m.readErrs = m.readErrs[1:]
	return err
}

func (m *mockStore) Get(_ context.Context, id string, cols Columns) (*Order, error) {
	if err := m.readErr(cols); err != nil {
		return nil, err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *o
	cp.Items = nil
	return &cp, nil
}

func (m *mockStore) List(_ context.Context, cols Columns) ([]*Order, error) {
	if err := m.readErr(cols); err != nil {
		return nil, err
	}
	var out []*Order
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *mockStore) Items(_ context.Context, id string) ([]LineItem, error) {
	return m.items[id], nil
}

type mockGuard struct {
	available bool
	observed  []error
}

func (g *mockGuard) Available(context.Context) bool { return g.available }

func (g *mockGuard) Observe(_ context.Context, err error) bool {
	g.observed = append(g.observed, err)
	var drift *apperr.SchemaDriftError
	if errors.As(err, &drift) && drift.Column == "tax_rate" {
		g.available = false
		return true
	}
	return false
}

type notes struct{ got []notify.Severity }

func (n *notes) Notify(_ context.Context, sev notify.Severity, _ string) { n.got = append(n.got, sev) }

func sampleOrder() *Order {
	return &Order{
		Customer:       Customer{Name: "Budi"},
		DiscountAmount: decimal.NewFromInt(10),
		TaxRate:        decimal.NewFromInt(21),
		Items: []LineItem{
			{Size: "3m", Quantity: 2, TotalArea: decimal.NewFromInt(5), UnitPricePerArea: decimal.NewFromInt(20)},
		},
	}
}

func TestServiceCreateComputesTotals(t *testing.T) {
	store := newMockStore()
	n := &notes{}
	s := &Service{Store: store, Notifier: n, GenerateNumber: func() string { return "ORD-X-0001" }}

	o := sampleOrder()
	require.NoError(t, s.Create(context.Background(), o, false))

	assert.Equal(t, "ORD-X-0001", o.OrderNumber)
	assert.True(t, o.Items[0].TotalPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, o.FinalAmount.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, []Columns{AllColumns}, store.writes)
	assert.Equal(t, []notify.Severity{notify.Success}, n.got)
}

func TestServiceStripsTaxRateWhenColumnMissing(t *testing.T) {
	store := newMockStore()
	s := &Service{Store: store, Guard: &mockGuard{available: false}}

	o := sampleOrder()
	require.NoError(t, s.Create(context.Background(), o, false))
	assert.Equal(t, []Columns{{TaxRate: false}}, store.writes)
	assert.True(t, o.TaxRate.IsZero())
	assert.True(t, o.TaxAmount.IsZero())
}

func TestServiceRetriesOnceWithoutTaxRateOnDrift(t *testing.T) {
	store := newMockStore()
	store.writeErrs = []error{&apperr.SchemaDriftError{Table: "orders", Column: "tax_rate"}}
	guard := &mockGuard{available: true}
	s := &Service{Store: store, Guard: guard}

	o := sampleOrder()
	require.NoError(t, s.Create(context.Background(), o, false))
	assert.Equal(t, []Columns{AllColumns, {TaxRate: false}}, store.writes)
	assert.Len(t, guard.observed, 1)
	assert.True(t, o.TaxAmount.IsZero())
}

func TestServiceDoesNotRetryOtherErrors(t *testing.T) {
	store := newMockStore()
	boom := &apperr.PersistenceError{Op: "insert order", Err: errors.New("timeout")}
	store.writeErrs = []error{boom}
	n := &notes{}
	s := &Service{Store: store, Guard: &mockGuard{available: true}, Notifier: n}

	err := s.Create(context.Background(), sampleOrder(), false)
	assert.Same(t, boom, err)
	assert.Len(t, store.writes, 1)
	assert.Equal(t, []notify.Severity{notify.Error}, n.got)
}

func TestServiceUpdateReplacesItems(t *testing.T) {
	store := newMockStore()
	s := &Service{Store: store}
	ctx := context.Background()

	o := sampleOrder()
	require.NoError(t, s.Create(ctx, o, false))
	o.Items = []LineItem{
		{Size: "6m", TotalArea: decimal.NewFromInt(2), UnitPricePerArea: decimal.NewFromInt(50)},
		{Size: "8m", TotalArea: decimal.NewFromInt(1), UnitPricePerArea: decimal.NewFromInt(30)},
	}
	require.NoError(t, s.Update(ctx, o))

	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(130)))
}

func TestStatusWorkflowIsOptimistic(t *testing.T) {
	store := newMockStore()
	n := &notes{}
	s := &Service{Store: store, Notifier: n}
	ctx := context.Background()

	o := sampleOrder()
	require.NoError(t, s.Create(ctx, o, false))
	view := []*Order{o}

	wf := s.StatusWorkflow(NewMachine(workflow.Permissive))
	_, err := wf.Transition(ctx, view, o.ID, StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, view[0].Status)
	assert.Equal(t, StatusDelivered, store.orders[o.ID].Status)

	// Failure is reported and the in-memory change is kept.
	store.statusErr = errors.New("network down")
	n.got = nil
	_, err = wf.Transition(ctx, view, o.ID, StatusPending)
	require.Error(t, err)
	assert.Equal(t, StatusPending, view[0].Status)
	assert.Equal(t, StatusDelivered, store.orders[o.ID].Status)
	assert.Equal(t, []notify.Severity{notify.Error}, n.got)
}

func TestStatusWorkflowGuarded(t *testing.T) {
	store := newMockStore()
	s := &Service{Store: store}
	ctx := context.Background()
	o := sampleOrder()
	require.NoError(t, s.Create(ctx, o, false))

	wf := s.StatusWorkflow(NewMachine(workflow.Guarded))
	_, err := wf.Transition(ctx, []*Order{o}, o.ID, StatusDelivered)
	assert.ErrorIs(t, err, workflow.ErrTransitionNotAllowed)
	assert.Equal(t, StatusPending, o.Status)

	_, err = wf.Transition(ctx, []*Order{o}, o.ID, StatusConfirmed)
	assert.NoError(t, err)
}

func TestServiceReadsDegradeWhenColumnDisappears(t *testing.T) {
	store := newMockStore()
	guard := &mockGuard{available: true}
	s := &Service{Store: store, Guard: guard}
	ctx := context.Background()

	o := sampleOrder()
	require.NoError(t, s.Create(ctx, o, false))

	drift := &apperr.SchemaDriftError{Table: "orders", Column: "tax_rate"}
	store.readErrs = []error{drift}
	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, []Columns{AllColumns, {}}, store.reads)
	assert.False(t, guard.available)

	// Later reads go straight to the reduced column set.
	store.reads = nil
	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, []Columns{{}}, store.reads)
}

func TestServiceReadDoesNotRetryOtherErrors(t *testing.T) {
	store := newMockStore()
	guard := &mockGuard{available: true}
	s := &Service{Store: store, Guard: guard}

	store.readErrs = []error{errors.New("connection reset")}
	_, err := s.List(context.Background())
	assert.EqualError(t, err, "connection reset")
	assert.Len(t, store.reads, 1)
	assert.True(t, guard.available)
}
