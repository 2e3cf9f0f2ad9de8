package inventory

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-backoffice/internal/catalog"
	"github.com/shopspring/decimal"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

const ExportVersion = "1.0"

var ErrUnsupportedFormat = errors.New("unsupported file format")

// FormatOf picks the format from the file extension.
func FormatOf(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
}

// ParseError is a malformed input file. Line is 0 when unknown.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// Record is one product as it appears in an import file.
type Record struct {
	Code     string
	PhotoURL string
	Sizes    []SizeEntry
}

type SizeEntry struct {
	Size          string
	Count         int
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal

	// badCount holds the count as written when it was not a whole number.
	badCount string
}

func (s SizeEntry) allZero() bool {
	return s.Count == 0 && s.badCount == "" && s.PurchasePrice.IsZero() && s.SellingPrice.IsZero()
}

// wire shapes of the JSON export

type exportDoc struct {
	Version       string        `json:"version"`
	ExportedAt    time.Time     `json:"exported_at"`
	TotalProducts int           `json:"total_products"`
	TotalSizes    int           `json:"total_sizes"`
	Products      []fileProduct `json:"products"`
}

type fileProduct struct {
	Code     string     `json:"code"`
	PhotoURL string     `json:"photo_url"`
	Sizes    []fileSize `json:"sizes"`
}

type fileSize struct {
	Size          string `json:"size"`
	Count         number `json:"count"`
	PurchasePrice number `json:"purchase_price"`
	SellingPrice  number `json:"selling_price"`
}

// number is a decimal written as a bare JSON number. It reads numbers and
// numeric strings alike.
type number decimal.Decimal

func (n number) MarshalJSON() ([]byte, error) { return []byte(decimal.Decimal(n).String()), nil }
func (n *number) UnmarshalJSON(b []byte) error {
	return (*decimal.Decimal)(n).UnmarshalJSON(b)
}

var csvHeader = []string{"Product Code", "Photo URL", "Size", "Count", "Purchase Price", "Selling Price"}

func WriteJSON(w io.Writer, products []catalog.Product, now time.Time) error {
	doc := exportDoc{
		Version:       ExportVersion,
		ExportedAt:    now.UTC().Truncate(time.Second),
		TotalProducts: len(products),
		Products:      make([]fileProduct, 0, len(products)),
	}
	for _, p := range products {
		fp := fileProduct{Code: p.Code, PhotoURL: p.PhotoURL, Sizes: make([]fileSize, 0, len(p.Sizes))}
		for _, s := range p.Sizes {
			fp.Sizes = append(fp.Sizes, fileSize{
				Size:          s.Size,
				Count:         number(decimal.NewFromInt(int64(s.Count))),
				PurchasePrice: number(s.PurchasePrice),
				SellingPrice:  number(s.SellingPrice),
			})
		}
		doc.TotalSizes += len(fp.Sizes)
		doc.Products = append(doc.Products, fp)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteCSV writes one row per (product, size). A product without sizes gets
// a single row with an empty size so its code and photo survive a round trip.
func WriteCSV(w io.Writer, products []catalog.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range products {
		if len(p.Sizes) == 0 {
			if err := cw.Write([]string{p.Code, p.PhotoURL, "", "", "", ""}); err != nil {
				return err
			}
			continue
		}
		for _, s := range p.Sizes {
			row := []string{p.Code, p.PhotoURL, s.Size, strconv.Itoa(s.Count), s.PurchasePrice.String(), s.SellingPrice.String()}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Parse decodes an import file, choosing the format from its name.
func Parse(filename string, data []byte) ([]Record, error) {
	f, err := FormatOf(filename)
	if err != nil {
		return nil, err
	}
	if f == FormatCSV {
		return ParseCSV(data)
	}
	return ParseJSON(data)
}

// ParseJSON accepts a bare array of products or an object that wraps one
// under "products", "data" or "items".
func ParseJSON(data []byte) ([]Record, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(data) == 0 {
		return nil, &ParseError{Msg: "empty file"}
	}

	var list []fileProduct
	if data[0] == '[' {
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, &ParseError{Msg: "invalid JSON: " + err.Error()}
		}
	} else {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, &ParseError{Msg: "invalid JSON: " + err.Error()}
		}
		raw, ok := firstKey(obj, "products", "data", "items")
		if !ok {
			return nil, &ParseError{Msg: `no product array found (expected "products", "data" or "items")`}
		}
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, &ParseError{Msg: "invalid product array: " + err.Error()}
		}
	}

	out := make([]Record, 0, len(list))
	for _, fp := range list {
		r := Record{Code: strings.TrimSpace(fp.Code), PhotoURL: strings.TrimSpace(fp.PhotoURL)}
		for _, s := range fp.Sizes {
			entry := SizeEntry{
				Size:          strings.TrimSpace(s.Size),
				PurchasePrice: decimal.Decimal(s.PurchasePrice),
				SellingPrice:  decimal.Decimal(s.SellingPrice),
			}
			entry.Count, entry.badCount = wholeCount(decimal.Decimal(s.Count))
			r.Sizes = append(r.Sizes, entry)
		}
		out = append(out, r)
	}
	return out, nil
}

func firstKey(obj map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if raw, ok := obj[k]; ok && len(raw) > 0 && raw[0] == '[' {
			return raw, true
		}
	}
	return nil, false
}

// ParseCSV reads the tabular export. Header names are matched case
// insensitively in any order. Rows are grouped by product code; a row whose
// size is empty, or whose count and prices are all zero, adds no size.
func ParseCSV(data []byte) ([]Record, error) {
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ParseError{Msg: "empty file"}
	}
	if err != nil {
		return nil, csvError(err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idx := make([]int, len(csvHeader))
	var missing []string
	for i, h := range csvHeader {
		j, ok := col[strings.ToLower(h)]
		if !ok {
			missing = append(missing, h)
		}
		idx[i] = j
	}
	if len(missing) > 0 {
		return nil, &ParseError{Line: 1, Msg: "missing columns: " + strings.Join(missing, ", ")}
	}

	var out []Record
	byCode := map[string]int{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := cr.FieldPos(0)
		get := func(i int) string {
			if idx[i] < len(row) {
				return strings.TrimSpace(row[idx[i]])
			}
			return ""
		}
		if blankRow(row) {
			continue
		}

		code, photo, size := get(0), get(1), get(2)
		entry := SizeEntry{Size: size}
		if entry.Count, entry.badCount, err = parseCount(get(3)); err != nil {
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("invalid count %q", get(3))}
		}
		if entry.PurchasePrice, err = parseMoney(get(4)); err != nil {
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("invalid purchase price %q", get(4))}
		}
		if entry.SellingPrice, err = parseMoney(get(5)); err != nil {
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("invalid selling price %q", get(5))}
		}

		i, ok := byCode[code]
		if !ok {
			i = len(out)
			byCode[code] = i
			out = append(out, Record{Code: code})
		}
		if out[i].PhotoURL == "" {
			out[i].PhotoURL = photo
		}
		if size == "" || entry.allZero() {
			continue
		}
		out[i].Sizes = append(out[i].Sizes, entry)
	}
	return out, nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseCount accepts whole numbers written with a fraction part, as
// spreadsheets do ("2.0"). Other fractions come back in bad for Validate.
func parseCount(s string) (n int, bad string, err error) {
	if s == "" {
		return 0, "", nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, "", err
	}
	n, bad = wholeCount(d)
	return n, bad, nil
}

func wholeCount(d decimal.Decimal) (int, string) {
	if !d.IsInteger() {
		return int(d.IntPart()), d.String()
	}
	return int(d.IntPart()), ""
}

func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Msg: pe.Err.Error()}
	}
	return &ParseError{Msg: err.Error()}
}
