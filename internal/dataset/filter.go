package dataset

import (
	"time"

	apperrors "supermarket-dashboard/internal/errors"
	"supermarket-dashboard/internal/models"
)

// Selection restricts which rows participate in aggregation. For each
// categorical dimension a nil slice leaves the dimension unconstrained,
// while an empty non-nil slice matches nothing. Date bounds are inclusive.
type Selection struct {
	Cities       []string
	ProductLines []string
	Genders      []string
	Start        *time.Time
	End          *time.Time
}

// Validate rejects inverted date ranges.
func (s Selection) Validate() error {
	if s.Start != nil && s.End != nil && s.Start.After(*s.End) {
		return apperrors.Validation("start date must not be after end date")
	}
	return nil
}

// valueSet distinguishes "unconstrained" (nil) from "match nothing" (empty).
type valueSet map[string]struct{}

func newValueSet(values []string) valueSet {
	if values == nil {
		return nil
	}
	set := make(valueSet, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func (s valueSet) matches(value string) bool {
	if s == nil {
		return true
	}
	_, ok := s[value]
	return ok
}

// Filter returns a new Dataset holding the rows that satisfy the selection.
// The receiver is unchanged and relative row order is preserved, so
// filtering twice by the same selection is a no-op the second time.
func (d *Dataset) Filter(sel Selection) *Dataset {
	cities := newValueSet(sel.Cities)
	products := newValueSet(sel.ProductLines)
	genders := newValueSet(sel.Genders)

	rows := make([]models.Transaction, 0, len(d.Rows))
	raw := make([][]string, 0, len(d.Raw))

	for i, tx := range d.Rows {
		if !cities.matches(tx.City) || !products.matches(tx.ProductLine) || !genders.matches(tx.Gender) {
			continue
		}
		if d.HasDate() && !matchesDateRange(tx, sel.Start, sel.End) {
			continue
		}
		rows = append(rows, tx)
		raw = append(raw, d.Raw[i])
	}

	return &Dataset{
		Path:         d.Path,
		Header:       d.Header,
		Rows:         rows,
		Raw:          raw,
		CoercedCells: d.CoercedCells,
		LoadedAt:     d.LoadedAt,
		cols:         d.cols,
	}
}

func matchesDateRange(tx models.Transaction, start, end *time.Time) bool {
	if start == nil && end == nil {
		return true
	}
	if !tx.HasDate() {
		// A bounded range cannot admit a row whose date failed to parse.
		return false
	}
	if start != nil && tx.Date.Before(*start) {
		return false
	}
	if end != nil && tx.Date.After(*end) {
		return false
	}
	return true
}
