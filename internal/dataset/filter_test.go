package dataset

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	apperrors "supermarket-dashboard/internal/errors"
)

const filterCSV = `City,Product line,Gender,Total,Date
Yangon,Health and beauty,Female,100,2019-01-05
Mandalay,Food and beverages,Male,50,2019-02-10
Yangon,Food and beverages,Female,25,2019-03-15
`

func date(t *testing.T, value string) *time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatal(err)
	}
	return &d
}

func TestFilter_NilIsUnconstrained(t *testing.T) {
	ds := mustLoad(t, filterCSV)

	filtered := ds.Filter(Selection{})
	if filtered.Len() != 3 {
		t.Errorf("empty selection should keep all rows, got %d", filtered.Len())
	}
}

func TestFilter_EmptySetMatchesNothing(t *testing.T) {
	ds := mustLoad(t, filterCSV)

	filtered := ds.Filter(Selection{Cities: []string{}})
	if filtered.Len() != 0 {
		t.Errorf("empty city set should yield an empty dataset, got %d rows", filtered.Len())
	}
}

func TestFilter_ByCity(t *testing.T) {
	ds := mustLoad(t, filterCSV)

	filtered := ds.Filter(Selection{Cities: []string{"Mandalay"}})
	if filtered.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", filtered.Len())
	}
	if filtered.Rows[0].Total != 50 {
		t.Errorf("expected total 50, got %f", filtered.Rows[0].Total)
	}
}

func TestFilter_CombinesDimensions(t *testing.T) {
	ds := mustLoad(t, filterCSV)

	filtered := ds.Filter(Selection{
		Cities:       []string{"Yangon"},
		ProductLines: []string{"Food and beverages"},
	})
	if filtered.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", filtered.Len())
	}
	if filtered.Rows[0].Total != 25 {
		t.Errorf("expected total 25, got %f", filtered.Rows[0].Total)
	}
}

func TestFilter_DateRangeInclusive(t *testing.T) {
	ds := mustLoad(t, filterCSV)

	tests := []struct {
		name       string
		start, end string
		wantRows   int
	}{
		{"full span", "2019-01-05", "2019-03-15", 3},
		{"boundary start only", "2019-03-15", "2019-03-15", 1},
		{"middle", "2019-02-01", "2019-02-28", 1},
		{"excludes everything", "2020-01-01", "2020-12-31", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Selection{Start: date(t, tt.start), End: date(t, tt.end)}
			if got := ds.Filter(sel).Len(); got != tt.wantRows {
				t.Errorf("expected %d rows, got %d", tt.wantRows, got)
			}
		})
	}
}

func TestFilter_BoundedRangeExcludesDatelessRows(t *testing.T) {
	ds := mustLoad(t, "City,Total,Date\nYangon,100,bad-date\nMandalay,50,2019-01-06\n")

	filtered := ds.Filter(Selection{Start: date(t, "2019-01-01"), End: date(t, "2019-12-31")})
	if filtered.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", filtered.Len())
	}
	if filtered.Rows[0].City != "Mandalay" {
		t.Errorf("expected the dated row to survive, got %q", filtered.Rows[0].City)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	ds := mustLoad(t, filterCSV)
	sel := Selection{Cities: []string{"Yangon"}, Genders: []string{"Female"}}

	once := ds.Filter(sel)
	twice := once.Filter(sel)

	if once.Len() != twice.Len() {
		t.Fatalf("re-filtering changed row count: %d vs %d", once.Len(), twice.Len())
	}
	for i := range once.Rows {
		// Columns absent from the CSV load as NaN, and NaN is never == NaN,
		// so compare with NaN treated as equal to itself.
		if !cmp.Equal(once.Rows[i], twice.Rows[i], cmpopts.EquateNaNs()) {
			t.Errorf("row %d differs after re-filtering", i)
		}
	}
}

func TestFilter_PreservesOrderAndOriginal(t *testing.T) {
	ds := mustLoad(t, filterCSV)

	filtered := ds.Filter(Selection{Cities: []string{"Yangon"}})

	if ds.Len() != 3 {
		t.Errorf("filtering must not mutate the original, got %d rows", ds.Len())
	}
	if filtered.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", filtered.Len())
	}
	// Relative order of the source rows is preserved.
	if filtered.Rows[0].Total != 100 || filtered.Rows[1].Total != 25 {
		t.Errorf("row order not preserved: %f, %f", filtered.Rows[0].Total, filtered.Rows[1].Total)
	}
	if len(filtered.Raw) != 2 {
		t.Errorf("raw records must track filtered rows, got %d", len(filtered.Raw))
	}
}

func TestSelection_Validate(t *testing.T) {
	ok := Selection{Start: date(t, "2019-01-01"), End: date(t, "2019-12-31")}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid range rejected: %v", err)
	}

	inverted := Selection{Start: date(t, "2019-12-31"), End: date(t, "2019-01-01")}
	err := inverted.Validate()
	if err == nil {
		t.Fatal("inverted range should be rejected")
	}
	if appErr, okCast := err.(*apperrors.AppError); !okCast || appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}
