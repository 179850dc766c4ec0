// Package flow turns multi-stage categorical rows into a weighted directed
// multigraph for sankey-style layouts.
//
// Each row walks a fixed sequence of stage fields, for example
// risk → age → sex → year. Every stage value becomes a node and every
// consecutive pair of stages becomes an edge weighted by the row's weight
// field:
//
//	g, err := flow.BuildGraph(rows, []string{"rei", "age", "sex", "year"}, "val", flow.Options{})
//
// # Node identity
//
// Nodes are deduplicated by label across all stages, case-sensitively. If two
// stages share a value (say "2020" appears both as an age and a year) they
// collapse into one node. Set [Options.PrefixStages] to qualify labels with
// their stage field when that is not wanted.
//
// IDs follow first-seen order in a row-major, stage-minor scan, so the same
// input always yields the same IDs.
//
// # Missing stage values
//
// A row with an absent or blank stage value contributes no nodes and no
// edges. By default ([SkipRow]) the row is recorded in Graph.Skipped and
// logged; [Abort] fails the whole build with MISSING_STAGE_VALUE.
//
// # Parallel edges
//
// Rows with the same stage path produce separate edges. [Merge] folds them
// into one edge per (source, target) pair when a renderer wants that.
package flow
