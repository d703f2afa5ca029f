package services

import (
	"math"

	"supermarket-dashboard/internal/dataset"
	"supermarket-dashboard/internal/models"
)

// Correlation computes the pairwise Pearson matrix over the recognized
// numeric columns. Each pair uses only rows where both values are defined.
// The matrix is symmetric; a column with nonzero variance correlates 1.0
// with itself, and undefined cells (zero variance, no overlapping rows)
// come back as NaN, which renders as null.
func (p *Pipeline) Correlation(ds *dataset.Dataset) models.CorrelationMatrix {
	cols := ds.NumericColumns()
	n := len(cols)

	cells := make([][]models.NullFloat, n)
	for i := range cells {
		cells[i] = make([]models.NullFloat, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r := pearson(ds, cols[i], cols[j])
			cells[i][j] = models.NullFloat(r)
			cells[j][i] = models.NullFloat(r)
		}
	}

	return models.CorrelationMatrix{Columns: cols, Cells: cells}
}

// pearson is the sample correlation coefficient over pairwise-complete
// observations of two columns.
func pearson(ds *dataset.Dataset, colX, colY string) float64 {
	var n float64
	var sx, sy, sxx, syy, sxy float64

	for i := 0; i < ds.Len(); i++ {
		x := ds.NumericValue(i, colX)
		y := ds.NumericValue(i, colY)
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		n++
		sx += x
		sy += y
		sxx += x * x
		syy += y * y
		sxy += x * y
	}

	if n < 2 {
		return math.NaN()
	}

	cov := n*sxy - sx*sy
	varX := n*sxx - sx*sx
	varY := n*syy - sy*sy
	denom := math.Sqrt(varX * varY)
	if denom == 0 {
		return math.NaN()
	}
	return cov / denom
}
