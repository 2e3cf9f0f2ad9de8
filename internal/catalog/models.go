package catalog

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CodeConstraint is the unique constraint on products.code.
const CodeConstraint = "products_code_key"

// StandardSizes is the size enumeration offered for carpets, in display order.
var StandardSizes = []string{"1m", "1.5m", "2m", "2.5m", "3m", "4m", "5m", "6m", "8m", "10m", "12m"}

var sizeRank = func() map[string]int {
	m := make(map[string]int, len(StandardSizes))
	for i, s := range StandardSizes {
		m[s] = i
	}
	return m
}()

// IsStandardSize reports whether s is one of StandardSizes.
func IsStandardSize(s string) bool {
	_, ok := sizeRank[s]
	return ok
}

type Product struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	PhotoURL  string     `json:"photo_url"`
	Sizes     []SizeTier `json:"sizes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type SizeTier struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	Size          string          `json:"size"`
	Count         int             `json:"count"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
}

// IsBlank reports whether every numeric field is zero. Blank tiers are not stored.
func (s SizeTier) IsBlank() bool {
	return s.Count == 0 && s.PurchasePrice.IsZero() && s.SellingPrice.IsZero()
}

// SortSizes orders tiers by StandardSizes, unknown labels last and alphabetical.
func SortSizes(tiers []SizeTier) {
	sort.SliceStable(tiers, func(i, j int) bool {
		ri, iok := sizeRank[tiers[i].Size]
		rj, jok := sizeRank[tiers[j].Size]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return tiers[i].Size < tiers[j].Size
		}
	})
}

// FilterBlank drops tiers whose numeric fields are all zero.
func FilterBlank(tiers []SizeTier) []SizeTier {
	out := make([]SizeTier, 0, len(tiers))
	for _, t := range tiers {
		if !t.IsBlank() {
			out = append(out, t)
		}
	}
	return out
}
