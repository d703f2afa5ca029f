package handlers

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"supermarket-dashboard/internal/dataset"
	apperrors "supermarket-dashboard/internal/errors"
)

const dateLayout = "2006-01-02"

// ParseSelection builds a filter selection from query parameters. An absent
// dimension parameter leaves the dimension unconstrained; a present but
// empty one matches nothing, mirroring a multi-select with everything
// deselected.
func ParseSelection(q url.Values) (dataset.Selection, error) {
	sel := dataset.Selection{
		Cities:       parseValueList(q, "cities"),
		ProductLines: parseValueList(q, "product_lines"),
		Genders:      parseValueList(q, "genders"),
	}

	var err error
	if sel.Start, err = parseDateParam(q, "start"); err != nil {
		return dataset.Selection{}, err
	}
	if sel.End, err = parseDateParam(q, "end"); err != nil {
		return dataset.Selection{}, err
	}

	if err := sel.Validate(); err != nil {
		return dataset.Selection{}, err
	}
	return sel, nil
}

func parseValueList(q url.Values, key string) []string {
	if !q.Has(key) {
		return nil
	}
	raw := q.Get(key)
	values := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

func parseDateParam(q url.Values, key string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid %s date %q, expected %s", key, raw, dateLayout))
	}
	return &t, nil
}
