package rates

import (
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/healthviz/pkg/dataset"
	"github.com/matzehuels/healthviz/pkg/errors"
)

// YearRange is an inclusive range of years.
type YearRange struct {
	Start int `json:"start" bson:"start"`
	End   int `json:"end" bson:"end"`
}

// Contains reports whether y lies within r.
func (r YearRange) Contains(y int) bool { return y >= r.Start && y <= r.End }

// Record is the joined value of one entity in one year.
type Record struct {
	Entity       string  `json:"entity" bson:"entity"`
	Year         int     `json:"year" bson:"year"`
	Rate         float64 `json:"rate" bson:"rate"`
	DerivedCount int64   `json:"derived_count" bson:"derived_count"`
}

// MissReason explains an absent entity/year pair.
type MissReason string

const (
	MissRate       MissReason = "rate not numeric"
	MissPopulation MissReason = "no population"
)

// Miss is an entity/year pair left out of a [Table].
type Miss struct {
	Entity string     `json:"entity" bson:"entity"`
	Year   int        `json:"year" bson:"year"`
	Reason MissReason `json:"reason" bson:"reason"`
}

// Table is the result of [Join].
type Table struct {
	Range   YearRange                `json:"range" bson:"range"`
	Records map[string]map[int]Record `json:"records" bson:"records"`
	Misses  []Miss                    `json:"misses,omitempty" bson:"misses,omitempty"`
}

// Get returns the record of entity in year.
func (t *Table) Get(entity string, year int) (Record, bool) {
	r, ok := t.Records[entity][year]
	return r, ok
}

// Len returns the number of records.
func (t *Table) Len() int {
	n := 0
	for _, ys := range t.Records {
		n += len(ys)
	}
	return n
}

// Entities returns the entities with at least one record, sorted.
func (t *Table) Entities() []string {
	return slices.Sorted(maps.Keys(t.Records))
}

// Years returns every year with at least one record, ascending.
func (t *Table) Years() []int {
	seen := make(map[int]struct{})
	for _, ys := range t.Records {
		for y := range ys {
			seen[y] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Join combines rate rows with lookup over years. Every column whose name is
// an integer inside years is a year column. Entity keys are trimmed and
// empty ones skipped; when an entity appears twice the later row wins, both
// its records and its misses.
func Join(rows []dataset.Row, entityField string, lookup *Lookup, years YearRange) (*Table, error) {
	if err := errors.ValidateFieldName(entityField); err != nil {
		return nil, errors.Staged(err, errors.StageJoin)
	}
	if err := errors.ValidateYearRange(years.Start, years.End); err != nil {
		return nil, errors.Staged(err, errors.StageJoin)
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDataset, "rate table has no rows").In(errors.StageJoin)
	}

	t := &Table{Range: years, Records: make(map[string]map[int]Record)}
	for _, row := range rows {
		entity := strings.TrimSpace(row.Value(entityField))
		if entity == "" {
			continue
		}
		delete(t.Records, entity)
		t.Misses = slices.DeleteFunc(t.Misses, func(m Miss) bool { return m.Entity == entity })

		for _, col := range slices.Sorted(maps.Keys(row)) {
			year, ok := yearColumn(col, years)
			if !ok {
				continue
			}
			raw, ok := dataset.ParseNumber(row[col])
			if !ok {
				t.Misses = append(t.Misses, Miss{Entity: entity, Year: year, Reason: MissRate})
				continue
			}
			pop, ok := lookup.Get(entity)
			if !ok || pop <= 0 {
				t.Misses = append(t.Misses, Miss{Entity: entity, Year: year, Reason: MissPopulation})
				continue
			}

			if t.Records[entity] == nil {
				t.Records[entity] = make(map[int]Record)
			}
			t.Records[entity][year] = Record{
				Entity:       entity,
				Year:         year,
				Rate:         round2(raw),
				DerivedCount: int64(math.Round(float64(pop) * raw / 100)),
			}
		}
	}
	return t, nil
}

func yearColumn(col string, r YearRange) (int, bool) {
	y, err := strconv.Atoi(strings.TrimSpace(col))
	if err != nil || !r.Contains(y) {
		return 0, false
	}
	return y, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
