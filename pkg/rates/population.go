package rates

import (
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/healthviz/pkg/dataset"
	"github.com/matzehuels/healthviz/pkg/errors"
)

// Lookup maps entities to populations, remembering first-seen entity order.
type Lookup struct {
	pop   map[string]int64
	order []string
}

// NewLookup returns an empty lookup.
func NewLookup() *Lookup {
	return &Lookup{pop: make(map[string]int64)}
}

// Set stores the population of entity (trimmed). Later calls overwrite.
func (l *Lookup) Set(entity string, population int64) {
	entity = strings.TrimSpace(entity)
	if _, ok := l.pop[entity]; !ok {
		l.order = append(l.order, entity)
	}
	l.pop[entity] = population
}

// Get returns the population of entity (trimmed).
func (l *Lookup) Get(entity string) (int64, bool) {
	if l == nil {
		return 0, false
	}
	p, ok := l.pop[strings.TrimSpace(entity)]
	return p, ok
}

// Len returns the number of entities.
func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

// Entities returns entities in first-seen order.
func (l *Lookup) Entities() []string {
	if l == nil {
		return nil
	}
	return append([]string(nil), l.order...)
}

// BuildPopulationLookup reads entity populations from rows. Entity keys are
// trimmed; rows with an empty key are skipped. Rows whose population is not a
// number are skipped with a warning. Fractional populations are rounded.
func BuildPopulationLookup(rows []dataset.Row, entityField, populationField string, logger *log.Logger) (*Lookup, error) {
	for _, f := range []string{entityField, populationField} {
		if err := errors.ValidateFieldName(f); err != nil {
			return nil, errors.Staged(err, errors.StageJoin)
		}
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDataset, "population table has no rows").In(errors.StageJoin)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	l := NewLookup()
	invalid := 0
	for i, row := range rows {
		entity := strings.TrimSpace(row.Value(entityField))
		if entity == "" {
			continue
		}
		p, ok := row.Number(populationField)
		if !ok {
			invalid++
			logger.Warn("invalid population row", "row", i+1, "entity", entity, "value", row.Value(populationField))
			continue
		}
		l.Set(entity, int64(math.Round(p)))
	}

	logger.Debug("population lookup built", "entities", l.Len(), "invalid", invalid)
	return l, nil
}
