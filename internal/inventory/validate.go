package inventory

import (
	"fmt"
	"strings"

	"github.com/ariefcatur/go-backoffice/internal/apperr"
)

// Validate checks every record before anything is written. All problems are
// collected into one *apperr.ValidationError.
func Validate(recs []Record) error {
	var msgs []string
	for i, r := range recs {
		label := fmt.Sprintf("record %d", i+1)
		if r.Code != "" {
			label = fmt.Sprintf("record %d (%s)", i+1, r.Code)
		}
		if strings.TrimSpace(r.Code) == "" {
			msgs = append(msgs, label+": product code is required")
		}
		for j, s := range r.Sizes {
			at := fmt.Sprintf("%s size %d", label, j+1)
			if s.Size != "" {
				at = fmt.Sprintf("%s size %s", label, s.Size)
			}
			if strings.TrimSpace(s.Size) == "" {
				msgs = append(msgs, at+": size is required")
			}
			if s.badCount != "" {
				msgs = append(msgs, fmt.Sprintf("%s: count must be a whole number (got %s)", at, s.badCount))
			}
			if s.Count < 0 {
				msgs = append(msgs, fmt.Sprintf("%s: count must not be negative (got %d)", at, s.Count))
			}
			if s.PurchasePrice.IsNegative() {
				msgs = append(msgs, fmt.Sprintf("%s: purchase price must not be negative (got %s)", at, s.PurchasePrice))
			}
			if s.SellingPrice.IsNegative() {
				msgs = append(msgs, fmt.Sprintf("%s: selling price must not be negative (got %s)", at, s.SellingPrice))
			}
		}
	}
	if len(msgs) > 0 {
		return &apperr.ValidationError{Messages: msgs}
	}
	return nil
}
