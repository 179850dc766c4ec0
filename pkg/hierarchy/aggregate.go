package hierarchy

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/healthviz/pkg/dataset"
	"github.com/matzehuels/healthviz/pkg/errors"
)

// Options tunes [Aggregate].
type Options struct {
	// Strict fails on the first missing or unparsable measure instead of
	// counting it as 0.
	Strict bool

	// Logger receives coercion warnings. Nil discards them.
	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard)
}

// Aggregate groups rows by keyPath and sums measure at the leaves.
//
// Rows missing a key field are grouped under the empty key. Children keep
// the first-seen order of their keys.
func Aggregate(rows []dataset.Row, keyPath []string, measure string, opts Options) (*Node, error) {
	if len(keyPath) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "key path is empty").In(errors.StageAggregate)
	}
	for _, f := range append([]string{measure}, keyPath...) {
		if err := errors.ValidateFieldName(f); err != nil {
			return nil, errors.Staged(err, errors.StageAggregate)
		}
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDataset, "no rows to aggregate").In(errors.StageAggregate)
	}

	logger := opts.logger()
	root := &Node{}
	for i, row := range rows {
		v, ok := row.Number(measure)
		if !ok {
			if opts.Strict {
				return nil, errors.New(errors.ErrCodeMalformedMeasure,
					"row %d: %s=%q is not a number", i+1, measure, row.Value(measure)).In(errors.StageAggregate)
			}
			root.Coerced++
			logger.Debug("measure coerced to 0", "row", i+1, "field", measure, "value", row.Value(measure))
		}

		leaf := root
		for _, field := range keyPath {
			leaf = leaf.child(row.Value(field))
		}
		leaf.Value += v
		leaf.Rows++
	}
	root.finish()

	if root.Coerced > 0 {
		logger.Warn("non-numeric measure values counted as 0",
			"field", measure, "count", root.Coerced, "rows", len(rows))
	}
	return root, nil
}
