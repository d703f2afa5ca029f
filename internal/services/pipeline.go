package services

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"supermarket-dashboard/internal/dataset"
	apperrors "supermarket-dashboard/internal/errors"
	"supermarket-dashboard/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Dimension is a categorical grouping column.
type Dimension string

const (
	DimensionCity         Dimension = "city"
	DimensionProductLine  Dimension = "product_line"
	DimensionGender       Dimension = "gender"
	DimensionCustomerType Dimension = "customer_type"
	DimensionBranch       Dimension = "branch"
	DimensionPayment      Dimension = "payment"
)

func ParseDimension(s string) (Dimension, error) {
	switch Dimension(dataset.NormalizeColumn(s)) {
	case DimensionCity:
		return DimensionCity, nil
	case DimensionProductLine:
		return DimensionProductLine, nil
	case DimensionGender:
		return DimensionGender, nil
	case DimensionCustomerType:
		return DimensionCustomerType, nil
	case DimensionBranch:
		return DimensionBranch, nil
	case DimensionPayment:
		return DimensionPayment, nil
	default:
		return "", apperrors.BadRequest(fmt.Sprintf("unknown dimension %q", s))
	}
}

func (d Dimension) value(tx models.Transaction) string {
	switch d {
	case DimensionCity:
		return tx.City
	case DimensionProductLine:
		return tx.ProductLine
	case DimensionGender:
		return tx.Gender
	case DimensionCustomerType:
		return tx.CustomerType
	case DimensionBranch:
		return tx.Branch
	case DimensionPayment:
		return tx.Payment
	default:
		return ""
	}
}

// Reduce selects the reduction applied to each group.
type Reduce int

const (
	ReduceSum Reduce = iota
	ReduceMean
	ReduceCount
)

func ParseReduce(s string) (Reduce, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sum":
		return ReduceSum, nil
	case "mean", "avg":
		return ReduceMean, nil
	case "count":
		return ReduceCount, nil
	default:
		return 0, apperrors.BadRequest(fmt.Sprintf("unknown reduce %q", s))
	}
}

// SortOrder controls how grouped results are ordered. SortNone keeps
// first-seen row order, which is what the pie charts expect; the bar charts
// ask for ascending sums.
type SortOrder int

const (
	SortNone SortOrder = iota
	SortAscending
	SortDescending
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, nil
	case "asc", "ascending":
		return SortAscending, nil
	case "desc", "descending":
		return SortDescending, nil
	default:
		return 0, apperrors.BadRequest(fmt.Sprintf("unknown sort order %q", s))
	}
}

// Pipeline computes aggregation results over filtered datasets. It holds no
// state of its own; every method is a pure pass over the rows it is given.
type Pipeline struct {
	logger *slog.Logger
}

func NewPipeline(logger *slog.Logger) *Pipeline {
	return &Pipeline{logger: logger}
}

type bucket struct {
	label      string
	sum        decimal.Decimal
	count      int
	validCount int
}

// GroupBy is the single parameterized group-reduce behind every chart:
// group rows by a categorical column and reduce total by sum, mean, or row
// count. Missing totals contribute nothing to sums and are excluded from
// means; the rows still count.
func (p *Pipeline) GroupBy(ds *dataset.Dataset, dim Dimension, red Reduce, order SortOrder) []models.CategoryValue {
	buckets := make(map[string]*bucket)
	labels := make([]string, 0)

	for _, tx := range ds.Rows {
		label := dim.value(tx)
		b, ok := buckets[label]
		if !ok {
			b = &bucket{label: label}
			buckets[label] = b
			labels = append(labels, label)
		}
		b.count++
		if !math.IsNaN(tx.Total) {
			b.sum = b.sum.Add(decimal.NewFromFloat(tx.Total))
			b.validCount++
		}
	}

	result := make([]models.CategoryValue, 0, len(labels))
	for _, label := range labels {
		b := buckets[label]
		value := b.sum
		switch red {
		case ReduceMean:
			if b.validCount > 0 {
				value = b.sum.Div(decimal.NewFromInt(int64(b.validCount)))
			} else {
				value = decimal.Zero
			}
		case ReduceCount:
			value = decimal.NewFromInt(int64(b.count))
		}
		result = append(result, models.CategoryValue{Label: label, Value: value, Count: b.count})
	}

	switch order {
	case SortAscending:
		slices.SortStableFunc(result, func(a, b models.CategoryValue) int {
			return a.Value.Cmp(b.Value)
		})
	case SortDescending:
		slices.SortStableFunc(result, func(a, b models.CategoryValue) int {
			return b.Value.Cmp(a.Value)
		})
	}

	return result
}

// Summary computes the KPI tiles. Over zero rows the mean rating is
// reported as undefined rather than a crash or a fake zero.
func (p *Pipeline) Summary(ds *dataset.Dataset) models.Summary {
	total := decimal.Zero
	ratingSum := 0.0
	ratingCount := 0

	for _, tx := range ds.Rows {
		if !math.IsNaN(tx.Total) {
			total = total.Add(decimal.NewFromFloat(tx.Total))
		}
		if !math.IsNaN(tx.Rating) {
			ratingSum += tx.Rating
			ratingCount++
		}
	}

	avg := math.NaN()
	if ratingCount > 0 {
		avg = ratingSum / float64(ratingCount)
	}

	return models.Summary{
		TotalSales:   total,
		AvgRating:    models.NullFloat(avg),
		Transactions: ds.Len(),
		CoercedCells: ds.CoercedCells,
		HasData:      ds.Len() > 0,
	}
}

// PaymentBreakdown is the payment-method frequency table, most used first.
func (p *Pipeline) PaymentBreakdown(ds *dataset.Dataset) []models.PaymentCount {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, tx := range ds.Rows {
		if _, ok := counts[tx.Payment]; !ok {
			order = append(order, tx.Payment)
		}
		counts[tx.Payment]++
	}

	result := make([]models.PaymentCount, 0, len(order))
	for _, method := range order {
		result = append(result, models.PaymentCount{Method: method, Count: counts[method]})
	}
	slices.SortStableFunc(result, func(a, b models.PaymentCount) int {
		return b.Count - a.Count
	})
	return result
}

// MonthlyTrend buckets total by calendar month-end, chronologically. The
// index is contiguous: calendar months between the first and last dated row
// appear with a zero sum even when no row falls in them. Datasets without a
// date column have no trend; rows whose date failed to parse are skipped.
func (p *Pipeline) MonthlyTrend(ds *dataset.Dataset) []models.MonthlyPoint {
	if !ds.HasDate() {
		return nil
	}

	sums := make(map[time.Time]decimal.Decimal)
	var first, last time.Time
	for _, tx := range ds.Rows {
		if !tx.HasDate() {
			continue
		}
		// Day 0 of the next month normalizes to the last day of this one.
		monthEnd := time.Date(tx.Date.Year(), tx.Date.Month()+1, 0, 0, 0, 0, 0, time.UTC)
		if first.IsZero() || monthEnd.Before(first) {
			first = monthEnd
		}
		if monthEnd.After(last) {
			last = monthEnd
		}
		if !math.IsNaN(tx.Total) {
			sums[monthEnd] = sums[monthEnd].Add(decimal.NewFromFloat(tx.Total))
		}
	}
	if first.IsZero() {
		return []models.MonthlyPoint{}
	}

	result := make([]models.MonthlyPoint, 0, len(sums))
	for m := first; !m.After(last); m = time.Date(m.Year(), m.Month()+2, 0, 0, 0, 0, 0, time.UTC) {
		result = append(result, models.MonthlyPoint{
			Month: m.Format("2006-01-02"),
			Total: sums[m],
		})
	}
	return result
}

// Insights derives the headline facts: highest-revenue city, best-selling
// product line with its sum, payment-method mode, and the total over the 30
// most recent rows (all rows when fewer remain after filtering).
func (p *Pipeline) Insights(ds *dataset.Dataset) models.Insights {
	if ds.Len() == 0 {
		return models.Insights{HasData: false}
	}

	topCity := argmax(p.GroupBy(ds, DimensionCity, ReduceSum, SortNone))
	topProduct := argmax(p.GroupBy(ds, DimensionProductLine, ReduceSum, SortNone))

	topPayment := ""
	if payments := p.PaymentBreakdown(ds); len(payments) > 0 {
		topPayment = payments[0].Method
	}

	tailTotal, tailRows := p.tailWindowTotal(ds, 30)

	return models.Insights{
		TopCity:         topCity.Label,
		TopCitySales:    topCity.Value,
		TopProduct:      topProduct.Label,
		TopProductSales: topProduct.Value,
		TopPayment:      topPayment,
		TailWindowTotal: tailTotal,
		TailWindowRows:  tailRows,
		HasData:         true,
	}
}

// argmax picks the bucket with the largest value; ties go to the earlier
// bucket in dataset row order.
func argmax(values []models.CategoryValue) models.CategoryValue {
	var best models.CategoryValue
	for i, v := range values {
		if i == 0 || v.Value.GreaterThan(best.Value) {
			best = v
		}
	}
	return best
}

// tailWindowTotal sums total over the n most recent rows by date, breaking
// ties by original row order. Rows without a date sort last.
func (p *Pipeline) tailWindowTotal(ds *dataset.Dataset, n int) (decimal.Decimal, int) {
	idx := make([]int, ds.Len())
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		da, db := ds.Rows[a].Date, ds.Rows[b].Date
		if da.After(db) {
			return -1
		}
		if db.After(da) {
			return 1
		}
		return 0
	})

	if n > len(idx) {
		n = len(idx)
	}

	total := decimal.Zero
	for _, i := range idx[:n] {
		if v := ds.Rows[i].Total; !math.IsNaN(v) {
			total = total.Add(decimal.NewFromFloat(v))
		}
	}
	return total, n
}

// Lookup resolves a user-entered city or product-line name against the
// dataset's distinct values after title-case normalization on both sides.
// A miss is a NOT_FOUND error, never a panic.
func (p *Pipeline) Lookup(ds *dataset.Dataset, dim Dimension, term string) (models.LookupResult, error) {
	if dim != DimensionCity && dim != DimensionProductLine {
		return models.LookupResult{}, apperrors.BadRequest(fmt.Sprintf("lookup not supported for dimension %q", dim))
	}

	caser := cases.Title(language.Und)
	want := caser.String(strings.TrimSpace(term))

	total := decimal.Zero
	matches := 0
	for _, tx := range ds.Rows {
		if caser.String(dim.value(tx)) != want {
			continue
		}
		matches++
		if !math.IsNaN(tx.Total) {
			total = total.Add(decimal.NewFromFloat(tx.Total))
		}
	}

	if matches == 0 {
		p.logger.Debug("lookup miss", "dimension", string(dim), "term", want)
		return models.LookupResult{}, apperrors.NotFound(fmt.Sprintf("%s %q not found", dim, want))
	}

	return models.LookupResult{
		Dimension: string(dim),
		Term:      want,
		Matches:   matches,
		Total:     total,
	}, nil
}

// FilterOptions lists the distinct values per dimension (first-seen order)
// and the dataset's date span, for populating the dashboard controls.
func (p *Pipeline) FilterOptions(ds *dataset.Dataset) models.FilterOptions {
	opts := models.FilterOptions{
		Cities:        distinct(ds, DimensionCity),
		ProductLines:  distinct(ds, DimensionProductLine),
		Genders:       distinct(ds, DimensionGender),
		CustomerTypes: distinct(ds, DimensionCustomerType),
	}
	if minDate, maxDate, ok := ds.DateSpan(); ok {
		opts.DateMin = minDate.Format("2006-01-02")
		opts.DateMax = maxDate.Format("2006-01-02")
	}
	return opts
}

func distinct(ds *dataset.Dataset, dim Dimension) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, tx := range ds.Rows {
		v := dim.value(tx)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

// Stats reports dataset-level facts for the admin endpoint.
func (p *Pipeline) Stats(ds *dataset.Dataset) map[string]any {
	return map[string]any{
		"path":          ds.Path,
		"rows":          ds.Len(),
		"columns":       len(ds.Header),
		"coerced_cells": ds.CoercedCells,
		"loaded_at":     ds.LoadedAt,
		"cities":        len(distinct(ds, DimensionCity)),
		"product_lines": len(distinct(ds, DimensionProductLine)),
	}
}
