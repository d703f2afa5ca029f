package models

import (
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one supermarket sale. Float-valued fields use NaN as the
// missing-value marker when the source cell could not be parsed.
type Transaction struct {
	InvoiceID    string
	Branch       string
	City         string
	CustomerType string
	Gender       string
	ProductLine  string
	UnitPrice    float64
	Quantity     float64
	Tax          float64
	Total        float64
	Date         time.Time
	Time         string
	Payment      string
	COGS         float64
	GrossMargin  float64
	GrossIncome  float64
	Rating       float64
}

// HasDate reports whether the row carries a parsed calendar date.
func (t Transaction) HasDate() bool {
	return !t.Date.IsZero()
}

// NullFloat is a float64 that marshals NaN as JSON null. encoding/json
// rejects NaN outright, so results that can be undefined (correlation
// cells, mean over zero rows) use this type.
type NullFloat float64

func (f NullFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
}

func (f *NullFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = NullFloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = NullFloat(v)
	return nil
}

// Valid reports whether the value is a defined number.
func (f NullFloat) Valid() bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// CategoryValue is one bucket of a group-reduce: a category label and the
// reduced value (sum or mean of total, or row count) for that bucket.
type CategoryValue struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
	Count int             `json:"count"`
}

// Summary holds the dashboard KPIs over the filtered dataset.
type Summary struct {
	TotalSales   decimal.Decimal `json:"total_sales"`
	AvgRating    NullFloat       `json:"avg_rating"`
	Transactions int             `json:"transactions"`
	CoercedCells int             `json:"coerced_cells"`
	HasData      bool            `json:"has_data"`
}

// PaymentCount is a payment method with its frequency.
type PaymentCount struct {
	Method string `json:"method"`
	Count  int    `json:"count"`
}

// MonthlyPoint is one month-end bucket of the sales trend.
type MonthlyPoint struct {
	Month string          `json:"month"` // month-end date, 2006-01-31
	Total decimal.Decimal `json:"total"`
}

// CorrelationMatrix is the pairwise Pearson matrix over the numeric
// columns. Cells[i][j] is the coefficient between Columns[i] and
// Columns[j]; undefined cells (zero variance, no overlapping rows) are null.
type CorrelationMatrix struct {
	Columns []string      `json:"columns"`
	Cells   [][]NullFloat `json:"cells"`
}

// Insights are the derived text facts shown under the charts.
type Insights struct {
	TopCity         string          `json:"top_city"`
	TopCitySales    decimal.Decimal `json:"top_city_sales"`
	TopProduct      string          `json:"top_product"`
	TopProductSales decimal.Decimal `json:"top_product_sales"`
	TopPayment      string          `json:"top_payment"`
	TailWindowTotal decimal.Decimal `json:"tail_window_total"`
	TailWindowRows  int             `json:"tail_window_rows"`
	HasData         bool            `json:"has_data"`
}

// LookupResult reports an exact-match search over a categorical dimension.
type LookupResult struct {
	Dimension string          `json:"dimension"`
	Term      string          `json:"term"`
	Matches   int             `json:"matches"`
	Total     decimal.Decimal `json:"total"`
}

// FilterOptions feeds the dashboard controls: the distinct values per
// dimension and the date span of the dataset.
type FilterOptions struct {
	Cities        []string `json:"cities"`
	ProductLines  []string `json:"product_lines"`
	Genders       []string `json:"genders"`
	CustomerTypes []string `json:"customer_types"`
	DateMin       string   `json:"date_min,omitempty"`
	DateMax       string   `json:"date_max,omitempty"`
}
