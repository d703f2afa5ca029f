package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	apperrors "supermarket-dashboard/internal/errors"
	"supermarket-dashboard/internal/models"

	"golang.org/x/sync/errgroup"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

var dateLayouts = []string{"2006-01-02", "1/2/2006", "2006/01/02"}

// Dataset is an in-memory table of transactions parsed from one CSV file.
// Raw keeps the original cell values aligned with Rows so the export can
// reproduce the input columns byte for byte. Datasets are immutable after
// load; Filter derives new ones.
type Dataset struct {
	Path         string
	Header       []string // normalized column names, input order
	Rows         []models.Transaction
	Raw          [][]string
	CoercedCells int // cells downgraded to the missing marker at load
	LoadedAt     time.Time

	cols columns
}

// columns maps recognized normalized column names to header positions.
// A value of -1 means the column is absent from the input.
type columns struct {
	invoiceID    int
	branch       int
	city         int
	customerType int
	gender       int
	productLine  int
	unitPrice    int
	quantity     int
	tax          int
	total        int
	date         int
	timeOfDay    int
	payment      int
	cogs         int
	grossMargin  int
	grossIncome  int
	rating       int
}

func resolveColumns(header []string) columns {
	c := columns{
		invoiceID: -1, branch: -1, city: -1, customerType: -1, gender: -1,
		productLine: -1, unitPrice: -1, quantity: -1, tax: -1, total: -1,
		date: -1, timeOfDay: -1, payment: -1, cogs: -1, grossMargin: -1,
		grossIncome: -1, rating: -1,
	}
	for i, name := range header {
		switch name {
		case "invoice_id", "invoice":
			c.invoiceID = i
		case "branch":
			c.branch = i
		case "city":
			c.city = i
		case "customer_type":
			c.customerType = i
		case "gender":
			c.gender = i
		case "product_line":
			c.productLine = i
		case "unit_price":
			c.unitPrice = i
		case "quantity":
			c.quantity = i
		case "tax", "tax_5%":
			c.tax = i
		case "total":
			c.total = i
		case "date":
			c.date = i
		case "time":
			c.timeOfDay = i
		case "payment":
			c.payment = i
		case "cogs":
			c.cogs = i
		case "gross_margin_percentage":
			c.grossMargin = i
		case "gross_income":
			c.grossIncome = i
		case "rating":
			c.rating = i
		}
	}
	return c
}

// NormalizeColumn lower-cases, trims, and replaces spaces with underscores,
// the same normalization applied to every header cell on load.
func NormalizeColumn(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Load reads and parses a sales CSV. Unreadable files, malformed CSV, and
// inputs without a total column fail with LOAD_FAILED; individual cells
// that fail numeric or date parsing become missing values and the row is
// kept.
func Load(ctx context.Context, path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.LoadFailed(err, fmt.Sprintf("open dataset file %q", path))
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReaderSize(file, 1<<20))

	rawHeader, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, apperrors.LoadFailed(err, "dataset file is empty")
		}
		return nil, apperrors.LoadFailed(err, "read header row")
	}

	header := make([]string, len(rawHeader))
	for i, name := range rawHeader {
		header[i] = NormalizeColumn(name)
	}

	cols := resolveColumns(header)
	if cols.total < 0 {
		return nil, apperrors.LoadFailed(nil, "dataset has no total column")
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.LoadFailed(err, "parse dataset rows")
	}

	rows := make([]models.Transaction, len(records))
	var coerced atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		g.Go(func() error {
			for i := start; i < end; i++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				tx, n := parseRow(cols, records[i])
				rows[i] = tx
				if n > 0 {
					coerced.Add(int64(n))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, apperrors.LoadFailed(err, "parse dataset rows")
	}

	return &Dataset{
		Path:         path,
		Header:       header,
		Rows:         rows,
		Raw:          records,
		CoercedCells: int(coerced.Load()),
		LoadedAt:     time.Now(),
		cols:         cols,
	}, nil
}

// parseRow converts one record into a Transaction, counting every cell it
// had to downgrade to the missing marker.
func parseRow(cols columns, record []string) (models.Transaction, int) {
	coerced := 0

	str := func(idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	num := func(idx int) float64 {
		cell := str(idx)
		if cell == "" {
			return math.NaN()
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			coerced++
			return math.NaN()
		}
		return v
	}

	var date time.Time
	if cell := str(cols.date); cell != "" {
		parsed, err := parseDate(cell)
		if err != nil {
			coerced++
		} else {
			date = parsed
		}
	}

	return models.Transaction{
		InvoiceID:    str(cols.invoiceID),
		Branch:       str(cols.branch),
		City:         str(cols.city),
		CustomerType: str(cols.customerType),
		Gender:       str(cols.gender),
		ProductLine:  str(cols.productLine),
		UnitPrice:    num(cols.unitPrice),
		Quantity:     num(cols.quantity),
		Tax:          num(cols.tax),
		Total:        num(cols.total),
		Date:         date,
		Time:         str(cols.timeOfDay),
		Payment:      str(cols.payment),
		COGS:         num(cols.cogs),
		GrossMargin:  num(cols.grossMargin),
		GrossIncome:  num(cols.grossIncome),
		Rating:       num(cols.rating),
	}, coerced
}

func parseDate(cell string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, cell)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// HasDate reports whether the input carried a date column.
func (d *Dataset) HasDate() bool {
	return d.cols.date >= 0
}

// Len is the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// canonical numeric column names, in the order they get reported when all
// are present.
var numericColumnOrder = []string{
	"unit_price", "quantity", "tax", "total",
	"cogs", "gross_margin_percentage", "gross_income", "rating",
}

// NumericColumns lists the recognized numeric columns present in the input.
func (d *Dataset) NumericColumns() []string {
	present := make([]string, 0, len(numericColumnOrder))
	for _, name := range numericColumnOrder {
		if d.numericIndex(name) >= 0 {
			present = append(present, name)
		}
	}
	return present
}

func (d *Dataset) numericIndex(name string) int {
	switch name {
	case "unit_price":
		return d.cols.unitPrice
	case "quantity":
		return d.cols.quantity
	case "tax":
		return d.cols.tax
	case "total":
		return d.cols.total
	case "cogs":
		return d.cols.cogs
	case "gross_margin_percentage":
		return d.cols.grossMargin
	case "gross_income":
		return d.cols.grossIncome
	case "rating":
		return d.cols.rating
	default:
		return -1
	}
}

// NumericValue returns the value of a canonical numeric column for one row,
// NaN when missing.
func (d *Dataset) NumericValue(row int, name string) float64 {
	tx := d.Rows[row]
	switch name {
	case "unit_price":
		return tx.UnitPrice
	case "quantity":
		return tx.Quantity
	case "tax":
		return tx.Tax
	case "total":
		return tx.Total
	case "cogs":
		return tx.COGS
	case "gross_margin_percentage":
		return tx.GrossMargin
	case "gross_income":
		return tx.GrossIncome
	case "rating":
		return tx.Rating
	default:
		return math.NaN()
	}
}

// DateSpan returns the earliest and latest parsed dates, ok=false when no
// row has one.
func (d *Dataset) DateSpan() (minDate, maxDate time.Time, ok bool) {
	for _, tx := range d.Rows {
		if !tx.HasDate() {
			continue
		}
		if !ok {
			minDate, maxDate, ok = tx.Date, tx.Date, true
			continue
		}
		if tx.Date.Before(minDate) {
			minDate = tx.Date
		}
		if tx.Date.After(maxDate) {
			maxDate = tx.Date
		}
	}
	return minDate, maxDate, ok
}
