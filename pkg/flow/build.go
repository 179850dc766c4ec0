package flow

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/healthviz/pkg/dataset"
	"github.com/matzehuels/healthviz/pkg/errors"
)

// MissingPolicy decides what happens to a row with a missing stage value.
type MissingPolicy int

const (
	// SkipRow drops the row, records it in Graph.Skipped and logs a warning.
	SkipRow MissingPolicy = iota
	// Abort fails the build with MISSING_STAGE_VALUE.
	Abort
)

func (p MissingPolicy) String() string {
	switch p {
	case SkipRow:
		return "skip"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// ParseMissingPolicy maps "skip" and "abort" to their policies.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return SkipRow, nil
	case "abort":
		return Abort, nil
	default:
		return SkipRow, errors.New(errors.ErrCodeInvalidInput, "unknown missing-value policy %q (want skip or abort)", s)
	}
}

// Options tunes [BuildGraph].
type Options struct {
	OnMissing MissingPolicy

	// PrefixStages labels nodes "field: value" so equal values in different
	// stages stay distinct.
	PrefixStages bool

	// Logger receives skip and coercion warnings. Nil discards them.
	Logger *log.Logger
}

// BuildGraph builds the stage graph of rows. Every row contributes one node
// per stage (deduplicated by label) and len(stageFields)-1 edges.
func BuildGraph(rows []dataset.Row, stageFields []string, weightField string, opts Options) (*Graph, error) {
	if len(stageFields) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"a flow needs at least 2 stage fields, got %d", len(stageFields)).In(errors.StageGraph)
	}
	for _, f := range append([]string{weightField}, stageFields...) {
		if err := errors.ValidateFieldName(f); err != nil {
			return nil, errors.Staged(err, errors.StageGraph)
		}
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDataset, "no rows to build a flow from").In(errors.StageGraph)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	g := &Graph{
		Stages:  append([]string(nil), stageFields...),
		Edges:   make([]Edge, 0, len(rows)*(len(stageFields)-1)),
		byLabel: make(map[string]int),
	}
	labels := make([]string, len(stageFields))

	for i, row := range rows {
		if field, ok := readStages(row, stageFields, opts.PrefixStages, labels); !ok {
			if opts.OnMissing == Abort {
				return nil, errors.New(errors.ErrCodeMissingStageValue,
					"row %d has no value for stage %q", i+1, field).In(errors.StageGraph)
			}
			g.Skipped = append(g.Skipped, SkippedRow{Row: i, Field: field})
			logger.Warn("skipping row with missing stage value", "row", i+1, "field", field)
			continue
		}

		w, ok := row.Number(weightField)
		if !ok {
			g.Coerced++
			logger.Debug("weight coerced to 0", "row", i+1, "field", weightField, "value", row.Value(weightField))
		}

		prev := g.node(labels[0], 0)
		for s := 1; s < len(labels); s++ {
			next := g.node(labels[s], s)
			g.Edges = append(g.Edges, Edge{Source: prev, Target: next, Weight: w, Row: i, Count: 1})
			prev = next
		}
	}

	if len(g.Skipped) > 0 {
		logger.Warn("rows skipped for missing stage values", "skipped", len(g.Skipped), "rows", len(rows))
	}
	if g.Coerced > 0 {
		logger.Warn("non-numeric weights counted as 0", "field", weightField, "count", g.Coerced)
	}
	return g, nil
}

// readStages fills labels from row. It returns the first missing field and
// false when a stage value is absent or blank.
func readStages(row dataset.Row, fields []string, prefix bool, labels []string) (string, bool) {
	for s, f := range fields {
		v, ok := row.Get(f)
		if !ok || strings.TrimSpace(v) == "" {
			return f, false
		}
		if prefix {
			v = f + ": " + v
		}
		labels[s] = v
	}
	return "", true
}

func (g *Graph) node(label string, stage int) int {
	if id, ok := g.byLabel[label]; ok {
		return id
	}
	id := len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{ID: id, Label: label, Stage: stage})
	g.byLabel[label] = id
	return id
}
