package services

import (
	"encoding/csv"
	"io"

	"supermarket-dashboard/internal/dataset"
	apperrors "supermarket-dashboard/internal/errors"
)

// ExportCSV writes the dataset as RFC-4180 CSV: header row first, then the
// original cell values of every (possibly filtered) row, in row order.
func (p *Pipeline) ExportCSV(ds *dataset.Dataset, w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(ds.Header); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "write export header")
	}

	for _, record := range ds.Raw {
		if err := cw.Write(record); err != nil {
			return apperrors.Wrap(err, apperrors.CodeInternal, "write export row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "flush export")
	}
	return nil
}
