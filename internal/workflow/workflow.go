// Package workflow applies single-field status changes to documents.
//
// Each document type declares its status set and a guarded transition table.
// The default Permissive mode ignores the table and lets any known status follow
// any other; Guarded mode enforces the table edges.
//
// Transitions are optimistic: the caller's in-memory record changes before the
// store is written, and a failed write is reported but not rolled back.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-backoffice/internal/apperr"
	"github.com/ariefcatur/go-backoffice/internal/metrics"
	"github.com/ariefcatur/go-backoffice/internal/notify"
)

type Mode int

const (
	Permissive Mode = iota
	Guarded
)

var (
	ErrUnknownStatus        = errors.New("unknown status")
	ErrTransitionNotAllowed = errors.New("transition not allowed")
)

type Machine[S ~string] struct {
	mode  Mode
	known map[S]bool
	next  map[S]map[S]bool
}

func NewMachine[S ~string](states []S, guarded map[S][]S, mode Mode) *Machine[S] {
	m := &Machine[S]{
		mode:  mode,
		known: make(map[S]bool, len(states)),
		next:  make(map[S]map[S]bool, len(guarded)),
	}
	for _, s := range states {
		m.known[s] = true
	}
	for from, tos := range guarded {
		m.next[from] = make(map[S]bool, len(tos))
		for _, to := range tos {
			m.next[from][to] = true
		}
	}
	return m
}

// Check returns nil when from → to is allowed in the machine's mode.
func (m *Machine[S]) Check(from, to S) error {
	if !m.known[to] {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if m.mode == Permissive || m.next[from][to] {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
}

func (m *Machine[S]) CanTransition(from, to S) bool { return m.Check(from, to) == nil }

// Record is the view of a document a transition touches.
type Record[S ~string] interface {
	RecordID() string
	CurrentStatus() S
	SetStatus(to S, at time.Time)
}

// Store persists only the status and modification timestamp of a record.
type Store[S ~string] interface {
	UpdateStatus(ctx context.Context, id string, to S, at time.Time) error
}

type Workflow[S ~string, R Record[S]] struct {
	Noun     string
	Machine  *Machine[S]
	Store    Store[S]
	Notifier notify.Notifier
	Now      func() time.Time

	// OnChange runs after a successful write, e.g. to publish an event.
	OnChange func(ctx context.Context, rec R, from S)
}

// Transition sets record id inside view to status to. The record is updated in
// place before the write; on write failure the error is notified and returned
// and the in-memory change stays.
func (w *Workflow[S, R]) Transition(ctx context.Context, view []R, id string, to S) (R, error) {
	var rec R
	found := false
	for _, r := range view {
		if r.RecordID() == id {
			rec, found = r, true
			break
		}
	}
	if !found {
		return rec, fmt.Errorf("%s %s: %w", w.Noun, id, apperr.ErrNotFound)
	}

	from := rec.CurrentStatus()
	if err := w.Machine.Check(from, to); err != nil {
		metrics.StatusTransitions.WithLabelValues(w.Noun, "rejected").Inc()
		w.notify(ctx, notify.Warning, fmt.Sprintf("Cannot change %s status: %v", w.Noun, err))
		return rec, err
	}

	at := time.Now().UTC()
	if w.Now != nil {
		at = w.Now()
	}
	rec.SetStatus(to, at)

	if err := w.Store.UpdateStatus(ctx, id, to, at); err != nil {
		metrics.StatusTransitions.WithLabelValues(w.Noun, "failed").Inc()
		w.notify(ctx, notify.Error, fmt.Sprintf("Failed to update %s status: %v", w.Noun, err))
		return rec, err
	}
	metrics.StatusTransitions.WithLabelValues(w.Noun, "ok").Inc()
	w.notify(ctx, notify.Success, fmt.Sprintf("%s status changed to %s", w.Noun, to))
	if w.OnChange != nil {
		w.OnChange(ctx, rec, from)
	}
	return rec, nil
}

func (w *Workflow[S, R]) notify(ctx context.Context, sev notify.Severity, msg string) {
	if w.Notifier != nil {
		w.Notifier.Notify(ctx, sev, msg)
	}
}
