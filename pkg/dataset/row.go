package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Row is a single input record keyed by header name.
// Rows are treated as immutable once read.
type Row map[string]string

// Get returns the raw value of field and whether it was present.
func (r Row) Get(field string) (string, bool) {
	v, ok := r[field]
	return v, ok
}

// Value returns the raw value of field, or "" when absent.
func (r Row) Value(field string) string {
	return r[field]
}

// Number coerces field to a float64. The second result is false when the
// field is absent, blank, or not a finite number.
func (r Row) Number(field string) (float64, bool) {
	v, ok := r[field]
	if !ok {
		return 0, false
	}
	return ParseNumber(v)
}

// Table is a loaded dataset: its header in column order and its data rows.
type Table struct {
	Source string
	Header []string
	Rows   []Row
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// ParseNumber parses s as a finite decimal number after trimming
// surrounding whitespace. Blank strings, NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// LeadingNumber parses the first whitespace-separated token of s, for cells
// such as "12.4 (11.9-13.0)" that carry a confidence interval after the value.
func LeadingNumber(s string) (float64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	return ParseNumber(fields[0])
}

// ParseScaled parses numbers with an optional magnitude suffix
// (K, M, B for thousand, million, billion), e.g. "331.4M".
func ParseScaled(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	mult := 1.0
	switch s[len(s)-1] {
	case 'K', 'k':
		mult = 1e3
	case 'M', 'm':
		mult = 1e6
	case 'B', 'b':
		mult = 1e9
	}
	if mult != 1 {
		s = s[:len(s)-1]
	}
	f, ok := ParseNumber(s)
	if !ok {
		return 0, false
	}
	return f * mult, true
}
