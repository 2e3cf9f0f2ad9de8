// Package inventory exports the product catalog to JSON or CSV and merges
// such files back into it by product code.
//
// Import is validated as a whole first; one bad record aborts it before any
// write. The merge that follows is best effort: records are applied one at a
// time, each in its own transaction, and failures are counted rather than
// stopping the batch.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ariefcatur/go-backoffice/internal/apperr"
	"github.com/ariefcatur/go-backoffice/internal/catalog"
	kafkax "github.com/ariefcatur/go-backoffice/internal/kafka"
	"github.com/ariefcatur/go-backoffice/internal/metrics"
	"github.com/ariefcatur/go-backoffice/internal/notify"
)

const EventInventoryImported = "InventoryImported"

type Catalog interface {
	List(ctx context.Context) ([]catalog.Product, error)
	FindByCode(ctx context.Context, code string) (*catalog.Product, error)
	Create(ctx context.Context, p *catalog.Product) error
	Replace(ctx context.Context, p *catalog.Product) error
}

type Reconciler struct {
	Catalog     Catalog
	Notifier    notify.Notifier
	Events      kafkax.Publisher
	ServiceName string
	Now         func() time.Time
}

type Summary struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`

	failures []apperr.RecordError
}

func (s Summary) Succeeded() int { return s.Created + s.Updated }

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Export writes the whole catalog to w.
func (r *Reconciler) Export(ctx context.Context, f Format, w io.Writer) error {
	products, err := r.Catalog.List(ctx)
	if err != nil {
		return err
	}
	switch f {
	case FormatJSON:
		return WriteJSON(w, products, r.now())
	case FormatCSV:
		return WriteCSV(w, products)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// Import parses, validates and merges one file. A parse or validation failure
// returns before any write. When some records fail to merge the summary is
// returned together with a *apperr.PartialBatchError.
func (r *Reconciler) Import(ctx context.Context, filename string, data []byte) (Summary, error) {
	recs, err := Parse(filename, data)
	if err != nil {
		r.notify(ctx, notify.Error, fmt.Sprintf("Import failed: %v", err))
		return Summary{}, err
	}
	if err := Validate(recs); err != nil {
		r.notify(ctx, notify.Error, fmt.Sprintf("Import aborted: %v", err))
		return Summary{}, err
	}

	sum := r.Merge(ctx, recs)
	metrics.ObserveImport(sum.Created, sum.Updated, sum.Failed)
	slog.InfoContext(ctx, "inventory import finished",
		"file", filename, "created", sum.Created, "updated", sum.Updated, "failed", sum.Failed)
	r.publish(filename, sum)

	if sum.Failed > 0 {
		r.notify(ctx, notify.Warning, fmt.Sprintf("Imported %d products, %d failed", sum.Succeeded(), sum.Failed))
		return sum, &apperr.PartialBatchError{Succeeded: sum.Succeeded(), Failed: sum.Failed, Errors: sum.failures}
	}
	r.notify(ctx, notify.Success, fmt.Sprintf("Imported %d products (%d new, %d updated)", sum.Succeeded(), sum.Created, sum.Updated))
	return sum, nil
}

// Merge applies validated records in order. An existing product has its photo
// updated and its sizes replaced wholesale; a missing one is created. All-zero
// sizes are dropped.
func (r *Reconciler) Merge(ctx context.Context, recs []Record) Summary {
	var sum Summary
	for _, rec := range recs {
		created, err := r.mergeOne(ctx, rec)
		switch {
		case err != nil:
			sum.Failed++
			sum.failures = append(sum.failures, apperr.RecordError{Key: rec.Code, Err: err})
			sum.Errors = append(sum.Errors, rec.Code+": "+err.Error())
			slog.WarnContext(ctx, "inventory record failed", "code", rec.Code, "err", err)
		case created:
			sum.Created++
		default:
			sum.Updated++
		}
	}
	return sum
}

func (r *Reconciler) mergeOne(ctx context.Context, rec Record) (created bool, err error) {
	sizes := catalog.FilterBlank(toTiers(rec.Sizes))

	p, err := r.Catalog.FindByCode(ctx, rec.Code)
	if errors.Is(err, apperr.ErrNotFound) {
		return true, r.Catalog.Create(ctx, &catalog.Product{Code: rec.Code, PhotoURL: rec.PhotoURL, Sizes: sizes})
	}
	if err != nil {
		return false, err
	}
	p.PhotoURL = rec.PhotoURL
	p.Sizes = sizes
	return false, r.Catalog.Replace(ctx, p)
}

func toTiers(entries []SizeEntry) []catalog.SizeTier {
	out := make([]catalog.SizeTier, 0, len(entries))
	for _, e := range entries {
		out = append(out, catalog.SizeTier{
			Size:          e.Size,
			Count:         e.Count,
			PurchasePrice: e.PurchasePrice,
			SellingPrice:  e.SellingPrice,
		})
	}
	return out
}

func (r *Reconciler) publish(filename string, sum Summary) {
	if r.Events == nil {
		return
	}
	env := kafkax.NewEnvelope(EventInventoryImported, r.ServiceName, filename, map[string]any{
		"file": filename, "created": sum.Created, "updated": sum.Updated, "failed": sum.Failed,
	})
	kafkax.PublishEnvelope(r.Events, "inventory", env)
}

func (r *Reconciler) notify(ctx context.Context, sev notify.Severity, msg string) {
	if r.Notifier != nil {
		r.Notifier.Notify(ctx, sev, msg)
	}
}
