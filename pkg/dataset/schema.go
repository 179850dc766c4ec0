package dataset

import (
	"maps"
	"slices"

	"github.com/matzehuels/healthviz/pkg/errors"
)

// Schema renames raw source columns to the field names a transform expects,
// e.g. "OBS_VALUE (Country-Level) Average" to "rate". Columns not named in
// the schema pass through unchanged.
type Schema map[string]string

// Apply returns t's rows keyed by schema names. Every raw column the schema
// references must exist in t's header.
func (s Schema) Apply(t *Table) ([]Row, error) {
	if len(s) == 0 {
		return t.Rows, nil
	}
	for _, field := range slices.Sorted(maps.Keys(s)) {
		if raw := s[field]; !t.HasColumn(raw) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "column %q (for %q) not in header of %s", raw, field, t.Source).In(errors.StageLoad)
		}
	}

	rename := make(map[string]string, len(s))
	for field, raw := range s {
		rename[raw] = field
	}

	out := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		row := make(Row, len(r))
		for k, v := range r {
			if name, ok := rename[k]; ok {
				k = name
			}
			row[k] = v
		}
		out[i] = row
	}
	return out, nil
}
