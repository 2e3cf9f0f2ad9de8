package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/ariefcatur/go-backoffice/internal/apperr"
	"github.com/ariefcatur/go-backoffice/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCatalog is an in-memory Catalog. Codes in fail make Create/Replace error.
type memCatalog struct {
	products map[string]*catalog.Product
	fail     map[string]bool
	writes   int
	seq      int
}

func newMemCatalog() *memCatalog {
	return &memCatalog{products: map[string]*catalog.Product{}, fail: map[string]bool{}}
}

func (m *memCatalog) List(context.Context) ([]catalog.Product, error) {
	codes := make([]string, 0, len(m.products))
	for c := range m.products {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	out := make([]catalog.Product, 0, len(codes))
	for _, c := range codes {
		p := *m.products[c]
		p.Sizes = append([]catalog.SizeTier(nil), p.Sizes...)
		catalog.SortSizes(p.Sizes)
		out = append(out, p)
	}
	return out, nil
}

func (m *memCatalog) FindByCode(_ context.Context, code string) (*catalog.Product, error) {
	p, ok := m.products[code]
	if !ok {
		return nil, fmt.Errorf("find product: %w", apperr.ErrNotFound)
	}
	cp := *p
	cp.Sizes = nil
	return &cp, nil
}

func (m *memCatalog) Create(_ context.Context, p *catalog.Product) error {
	m.writes++
	if m.fail[p.Code] {
		return &apperr.PersistenceError{Op: "create product " + p.Code, Err: errors.New("boom")}
	}
	m.seq++
	p.ID = fmt.Sprintf("p-%d", m.seq)
	cp := *p
	cp.Sizes = append([]catalog.SizeTier(nil), p.Sizes...)
	m.products[p.Code] = &cp
	return nil
}

func (m *memCatalog) Replace(_ context.Context, p *catalog.Product) error {
	m.writes++
	if m.fail[p.Code] {
		return &apperr.PersistenceError{Op: "replace product " + p.Code, Err: errors.New("boom")}
	}
	cp := *p
	cp.Sizes = append([]catalog.SizeTier(nil), p.Sizes...)
	m.products[p.Code] = &cp
	return nil
}

func tier(size string, count int, buy, sell string) catalog.SizeTier {
	return catalog.SizeTier{
		Size: size, Count: count,
		PurchasePrice: decimal.RequireFromString(buy), SellingPrice: decimal.RequireFromString(sell),
	}
}

func seed(t *testing.T, m *memCatalog) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, m.Create(ctx, &catalog.Product{Code: "A1", PhotoURL: "a1.jpg", Sizes: []catalog.SizeTier{
		tier("3m", 10, "100", "150.5"), tier("1m", 4, "30", "45"),
	}}))
	require.NoError(t, m.Create(ctx, &catalog.Product{Code: "B,2", PhotoURL: `photo "b".png`, Sizes: []catalog.SizeTier{
		tier("6m", 1, "12.25", "20"),
	}}))
	require.NoError(t, m.Create(ctx, &catalog.Product{Code: "C3"}))
	m.writes = 0
}

type sizeView struct {
	Count     int
	Buy, Sell string
}

// snapshot reduces a catalog to code -> photo + sizes, ignoring ids.
func snapshot(m *memCatalog) map[string]map[string]sizeView {
	out := map[string]map[string]sizeView{}
	for code, p := range m.products {
		sizes := map[string]sizeView{"_photo": {Buy: p.PhotoURL}}
		for _, s := range p.Sizes {
			sizes[s.Size] = sizeView{Count: s.Count, Buy: s.PurchasePrice.String(), Sell: s.SellingPrice.String()}
		}
		out[code] = sizes
	}
	return out
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		format Format
		file   string
	}{
		{FormatJSON, "export.json"},
		{FormatCSV, "export.csv"},
	} {
		t.Run(string(tc.format), func(t *testing.T) {
			src := newMemCatalog()
			seed(t, src)
			r := &Reconciler{Catalog: src}

			var buf bytes.Buffer
			require.NoError(t, r.Export(context.Background(), tc.format, &buf))

			dst := newMemCatalog()
			sum, err := (&Reconciler{Catalog: dst}).Import(context.Background(), tc.file, buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, 3, sum.Created)
			assert.Equal(t, snapshot(src), snapshot(dst))
		})
	}
}

func TestImportTwiceIsIdempotent(t *testing.T) {
	src := newMemCatalog()
	seed(t, src)
	var buf bytes.Buffer
	require.NoError(t, (&Reconciler{Catalog: src}).Export(context.Background(), FormatCSV, &buf))

	dst := newMemCatalog()
	r := &Reconciler{Catalog: dst}
	_, err := r.Import(context.Background(), "x.csv", buf.Bytes())
	require.NoError(t, err)
	once := snapshot(dst)

	sum, err := r.Import(context.Background(), "x.csv", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Created)
	assert.Equal(t, 3, sum.Updated)
	assert.Len(t, dst.products, 3)
	assert.Equal(t, once, snapshot(dst))
}

func TestImportReplacesSizesInsteadOfSumming(t *testing.T) {
	m := newMemCatalog()
	require.NoError(t, m.Create(context.Background(), &catalog.Product{Code: "A1", Sizes: []catalog.SizeTier{tier("3m", 10, "1", "2")}}))

	file := []byte(`[{"code":"A1","photo_url":"","sizes":[
		{"size":"3m","count":15,"purchase_price":1,"selling_price":2},
		{"size":"6m","count":2,"purchase_price":1,"selling_price":2}]}]`)
	sum, err := (&Reconciler{Catalog: m}).Import(context.Background(), "in.json", file)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Updated)

	sizes := m.products["A1"].Sizes
	require.Len(t, sizes, 2)
	got := map[string]int{}
	for _, s := range sizes {
		got[s.Size] = s.Count
	}
	assert.Equal(t, map[string]int{"3m": 15, "6m": 2}, got)
}

func TestImportAbortsOnNegativeCount(t *testing.T) {
	m := newMemCatalog()
	seed(t, m)
	before := snapshot(m)

	file := []byte("Product Code,Photo URL,Size,Count,Purchase Price,Selling Price\n" +
		"A1,a.jpg,3m,5,1,2\n" +
		"Z9,,6m,-1,1,2\n" +
		"Q1,,8m,1,-3,2\n")
	_, err := (&Reconciler{Catalog: m}).Import(context.Background(), "bad.csv", file)

	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Messages, 2)
	assert.Contains(t, ve.Messages[0], "Z9")
	assert.Equal(t, 0, m.writes)
	assert.Equal(t, before, snapshot(m))
}

func TestImportCountsPerRecordFailures(t *testing.T) {
	m := newMemCatalog()
	m.fail["B2"] = true
	file := []byte(`{"products":[
		{"code":"A1","sizes":[{"size":"3m","count":1}]},
		{"code":"B2","sizes":[{"size":"3m","count":1}]},
		{"code":"C3","sizes":[{"size":"3m","count":1}]}]}`)

	sum, err := (&Reconciler{Catalog: m}).Import(context.Background(), "f.json", file)
	var pbe *apperr.PartialBatchError
	require.ErrorAs(t, err, &pbe)
	assert.Equal(t, 2, pbe.Succeeded)
	assert.Equal(t, 1, pbe.Failed)
	assert.Equal(t, "B2", pbe.Errors[0].Key)
	assert.Equal(t, 2, sum.Created)
	assert.Len(t, sum.Errors, 1)
	assert.Contains(t, m.products, "C3", "records after a failure are still merged")
}

func TestImportDropsAllZeroSizes(t *testing.T) {
	m := newMemCatalog()
	file := []byte(`{"items":[{"code":"A1","sizes":[{"size":"3m"},{"size":"6m","count":3}]}]}`)
	_, err := (&Reconciler{Catalog: m}).Import(context.Background(), "f.JSON", file)
	require.NoError(t, err)
	require.Len(t, m.products["A1"].Sizes, 1)
	assert.Equal(t, "6m", m.products["A1"].Sizes[0].Size)
}

func TestImportUnsupportedExtension(t *testing.T) {
	_, err := (&Reconciler{Catalog: newMemCatalog()}).Import(context.Background(), "stock.xlsx", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExportJSONMetadata(t *testing.T) {
	m := newMemCatalog()
	seed(t, m)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, (&Reconciler{Catalog: m, Now: func() time.Time { return now }}).Export(context.Background(), FormatJSON, &buf))

	out := buf.String()
	assert.Contains(t, out, `"version": "1.0"`)
	assert.Contains(t, out, `"exported_at": "2026-01-02T03:04:05Z"`)
	assert.Contains(t, out, `"total_products": 3`)
	assert.Contains(t, out, `"total_sizes": 3`)
	assert.Contains(t, out, `"selling_price": 150.5`)
}
