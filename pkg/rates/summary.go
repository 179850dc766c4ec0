package rates

import (
	"slices"

	"github.com/montanaflynn/stats"

	"github.com/matzehuels/healthviz/pkg/errors"
)

// Summary describes the spread of rates in one year, typically used as the
// color domain of a choropleth.
type Summary struct {
	Year   int     `json:"year" bson:"year"`
	Count  int     `json:"count" bson:"count"`
	Min    float64 `json:"min" bson:"min"`
	Max    float64 `json:"max" bson:"max"`
	Mean   float64 `json:"mean" bson:"mean"`
	Median float64 `json:"median" bson:"median"`
	StdDev float64 `json:"std_dev" bson:"std_dev"`
	// Q1 and Q3 are the lower and upper quartiles. Zero with fewer than
	// two values.
	Q1 float64 `json:"q1" bson:"q1"`
	Q3 float64 `json:"q3" bson:"q3"`

	// Total is the sum of derived counts across entities.
	Total int64 `json:"total" bson:"total"`
}

// Summarize computes the rate distribution of year across all entities.
// It fails with EMPTY_DATASET when the year has no records.
func Summarize(t *Table, year int) (Summary, error) {
	var data stats.Float64Data
	var total int64
	for _, e := range t.Entities() {
		if r, ok := t.Get(e, year); ok {
			data = append(data, r.Rate)
			total += r.DerivedCount
		}
	}
	if len(data) == 0 {
		return Summary{}, errors.New(errors.ErrCodeEmptyDataset, "no rates recorded for %d", year).In(errors.StageJoin)
	}

	s := Summary{Year: year, Count: len(data), Total: total}
	var err error
	if s.Min, err = data.Min(); err != nil {
		return Summary{}, err
	}
	if s.Max, err = data.Max(); err != nil {
		return Summary{}, err
	}
	if s.Mean, err = data.Mean(); err != nil {
		return Summary{}, err
	}
	if s.Median, err = data.Median(); err != nil {
		return Summary{}, err
	}
	if s.StdDev, err = data.StandardDeviation(); err != nil {
		return Summary{}, err
	}
	if len(data) > 1 {
		q, err := stats.Quartile(data)
		if err != nil {
			return Summary{}, err
		}
		s.Q1, s.Q3 = q.Q1, q.Q3
	}
	return s, nil
}

// SummarizeAll summarizes every year of t in ascending order.
func SummarizeAll(t *Table) ([]Summary, error) {
	years := t.Years()
	out := make([]Summary, 0, len(years))
	for _, y := range years {
		s, err := Summarize(t, y)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// NotAvailable is shown for entities without a record in a snapshot.
const NotAvailable = "Data Not Available"

// SnapshotRow is one entity in a per-year table.
type SnapshotRow struct {
	Entity     string `json:"entity" bson:"entity"`
	Population int64  `json:"population" bson:"population"`
	// Record is nil when the entity has no data for the year.
	Record *Record `json:"record,omitempty" bson:"record,omitempty"`
}

// Available reports whether the row has a record.
func (r SnapshotRow) Available() bool { return r.Record != nil }

// Snapshot lists every entity of lookup, in lookup order, with its record for
// year when one exists.
func Snapshot(lookup *Lookup, t *Table, year int) []SnapshotRow {
	entities := lookup.Entities()
	out := make([]SnapshotRow, 0, len(entities))
	for _, e := range entities {
		pop, _ := lookup.Get(e)
		row := SnapshotRow{Entity: e, Population: pop}
		if r, ok := t.Get(e, year); ok {
			row.Record = &r
		}
		out = append(out, row)
	}
	return out
}

// Point is one year of a [SeriesLine].
type Point struct {
	Year         int     `json:"year" bson:"year"`
	Rate         float64 `json:"rate" bson:"rate"`
	DerivedCount int64   `json:"derived_count" bson:"derived_count"`
}

// SeriesLine is one entity's rates over time.
type SeriesLine struct {
	Entity string  `json:"entity" bson:"entity"`
	Points []Point `json:"points" bson:"points"`
}

// Series returns one line per entity (sorted) with points in year order.
func Series(t *Table) []SeriesLine {
	entities := t.Entities()
	out := make([]SeriesLine, 0, len(entities))
	for _, e := range entities {
		recs := t.Records[e]
		years := make([]int, 0, len(recs))
		for y := range recs {
			years = append(years, y)
		}
		slices.Sort(years)

		line := SeriesLine{Entity: e, Points: make([]Point, len(years))}
		for i, y := range years {
			r := recs[y]
			line.Points[i] = Point{Year: y, Rate: r.Rate, DerivedCount: r.DerivedCount}
		}
		out = append(out, line)
	}
	return out
}
