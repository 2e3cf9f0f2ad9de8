// Package schemadrift degrades a single optional column when the live
// database does not have it.
package schemadrift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ariefcatur/go-backoffice/internal/apperr"
	"github.com/ariefcatur/go-backoffice/internal/notify"
)

type Prober interface {
	ColumnExists(ctx context.Context, table, column string) (bool, error)
}

// Guard tracks whether Table.Column may be written. The column is probed once;
// a later write error for the same column turns the guard off as well. The
// warning is sent once per process and not at all once acknowledged.
type Guard struct {
	Table       string
	Column      string
	Remediation string
	Prober      Prober
	Notifier    notify.Notifier
	Acks        *notify.AckState

	mu        sync.Mutex
	probed    bool
	available bool
	warned    bool
}

func New(table, column string, p Prober, n notify.Notifier, acks *notify.AckState) *Guard {
	return &Guard{
		Table:       table,
		Column:      column,
		Remediation: fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s numeric NOT NULL DEFAULT 0;", table, column),
		Prober:      p,
		Notifier:    n,
		Acks:        acks,
	}
}

// WarningID is the notification id of the missing-column warning.
func (g *Guard) WarningID() string { return "schema:" + g.Table + "." + g.Column }

// Available reports whether the column can be written. A failed probe is not
// cached and counts as available; Observe catches the write if it is not.
func (g *Guard) Available(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.probed {
		return g.available
	}
	ok, err := g.Prober.ColumnExists(ctx, g.Table, g.Column)
	if err != nil {
		slog.WarnContext(ctx, "column probe failed", "table", g.Table, "column", g.Column, "err", err)
		return true
	}
	g.probed, g.available = true, ok
	if !ok {
		g.warnLocked(ctx)
	}
	return ok
}

// Observe inspects a failed write. It returns true, and disables the column,
// when err says the column is missing; the caller should retry once without it.
func (g *Guard) Observe(ctx context.Context, err error) bool {
	var drift *apperr.SchemaDriftError
	if !errors.As(err, &drift) || drift.Column != g.Column {
		return false
	}
	if drift.Table != "" && drift.Table != g.Table {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.probed, g.available = true, false
	g.warnLocked(ctx)
	return true
}

type Status struct {
	Table       string `json:"table"`
	Column      string `json:"column"`
	Available   bool   `json:"available"`
	WarningID   string `json:"warning_id,omitempty"`
	Remediation string `json:"remediation,omitempty"`
}

func (g *Guard) Status(ctx context.Context) Status {
	s := Status{Table: g.Table, Column: g.Column, Available: g.Available(ctx)}
	if !s.Available {
		s.WarningID, s.Remediation = g.WarningID(), g.Remediation
	}
	return s
}

func (g *Guard) warnLocked(ctx context.Context) {
	if g.warned {
		return
	}
	g.warned = true
	slog.WarnContext(ctx, "optional column missing, field disabled", "table", g.Table, "column", g.Column)
	if g.Notifier == nil || (g.Acks != nil && g.Acks.Acked(g.WarningID())) {
		return
	}
	g.Notifier.Notify(ctx, notify.Warning, fmt.Sprintf(
		"The %s column is missing from the %s table, so it is disabled and will not be saved. To enable it run: %s",
		g.Column, g.Table, g.Remediation))
}
