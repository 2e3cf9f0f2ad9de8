package schemadrift

import (
	"context"
	"errors"
	"testing"

	"github.com/ariefcatur/go-backoffice/internal/apperr"
	"github.com/ariefcatur/go-backoffice/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type prober struct {
	exists bool
	err    error
	calls  int
}

func (p *prober) ColumnExists(context.Context, string, string) (bool, error) {
	p.calls++
	return p.exists, p.err
}

type recorder struct{ msgs []string }

func (r *recorder) Notify(_ context.Context, sev notify.Severity, msg string) {
	if sev == notify.Warning {
		r.msgs = append(r.msgs, msg)
	}
}

func TestAvailableProbesOnce(t *testing.T) {
	p := &prober{exists: true}
	g := New("orders", "tax_rate", p, nil, nil)
	for range 3 {
		assert.True(t, g.Available(context.Background()))
	}
	assert.Equal(t, 1, p.calls)
}

func TestMissingColumnWarnsOnce(t *testing.T) {
	p := &prober{exists: false}
	rec := &recorder{}
	g := New("orders", "tax_rate", p, rec, nil)

	assert.False(t, g.Available(context.Background()))
	assert.False(t, g.Available(context.Background()))
	require.Len(t, rec.msgs, 1)
	assert.Contains(t, rec.msgs[0], "ALTER TABLE orders ADD COLUMN tax_rate")

	st := g.Status(context.Background())
	assert.False(t, st.Available)
	assert.Equal(t, "schema:orders.tax_rate", st.WarningID)
}

func TestObserveDegradesReactively(t *testing.T) {
	p := &prober{exists: true}
	rec := &recorder{}
	g := New("orders", "tax_rate", p, rec, nil)
	ctx := context.Background()
	require.True(t, g.Available(ctx))

	drift := &apperr.SchemaDriftError{Table: "orders", Column: "tax_rate"}
	assert.True(t, g.Observe(ctx, drift))
	assert.False(t, g.Available(ctx))
	assert.True(t, g.Observe(ctx, drift))
	assert.Len(t, rec.msgs, 1)

	assert.False(t, g.Observe(ctx, &apperr.SchemaDriftError{Table: "invoices", Column: "tax_rate"}))
	assert.False(t, g.Observe(ctx, &apperr.SchemaDriftError{Column: "notes"}))
	assert.False(t, g.Observe(ctx, errors.New("timeout")))
}

func TestAcknowledgedWarningIsNotRepeated(t *testing.T) {
	ctx := context.Background()
	acks, err := notify.LoadAckState(ctx, &notify.MemoryAckStore{})
	require.NoError(t, err)
	require.NoError(t, acks.Ack(ctx, "schema:orders.tax_rate"))

	rec := &recorder{}
	g := New("orders", "tax_rate", &prober{exists: false}, rec, acks)
	assert.False(t, g.Available(ctx))
	assert.Empty(t, rec.msgs)
}

func TestProbeErrorIsRetried(t *testing.T) {
	p := &prober{err: errors.New("conn refused")}
	g := New("orders", "tax_rate", p, nil, nil)
	assert.True(t, g.Available(context.Background()))
	p.err, p.exists = nil, false
	assert.False(t, g.Available(context.Background()))
	assert.Equal(t, 2, p.calls)
}
