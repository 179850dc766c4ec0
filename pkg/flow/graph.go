package flow

import (
	"cmp"
	"slices"
)

// Node is a deduplicated stage value.
type Node struct {
	ID    int    `json:"id" bson:"id"`
	Label string `json:"label" bson:"label"`
	// Stage is the index of the stage field where the label first appeared.
	Stage int `json:"stage" bson:"stage"`
}

// Edge is one weighted transition between consecutive stages of a row.
type Edge struct {
	Source int     `json:"source" bson:"source"`
	Target int     `json:"target" bson:"target"`
	Weight float64 `json:"weight" bson:"weight"`
	// Row is the zero-based input row the edge came from. For merged edges
	// it is the first contributing row.
	Row int `json:"row" bson:"row"`
	// Count is the number of rows folded into a merged edge, otherwise 1.
	Count int `json:"count" bson:"count"`
}

// SkippedRow records a row dropped for a missing stage value.
type SkippedRow struct {
	Row   int    `json:"row" bson:"row"`
	Field string `json:"field" bson:"field"`
}

// Graph is the builder's output.
type Graph struct {
	Stages  []string     `json:"stages" bson:"stages"`
	Nodes   []Node       `json:"nodes" bson:"nodes"`
	Edges   []Edge       `json:"edges" bson:"edges"`
	Skipped []SkippedRow `json:"skipped,omitempty" bson:"skipped,omitempty"`
	// Coerced counts weight cells treated as 0.
	Coerced int `json:"coerced,omitempty" bson:"coerced,omitempty"`

	byLabel map[string]int
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// NodeByLabel looks a node up by its (possibly prefixed) label.
func (g *Graph) NodeByLabel(label string) (Node, bool) {
	if g.byLabel == nil {
		g.reindex()
	}
	id, ok := g.byLabel[label]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[id], true
}

func (g *Graph) reindex() {
	g.byLabel = make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		g.byLabel[n.Label] = n.ID
	}
}

// NodeValues returns each node's throughput indexed by ID: the larger of its
// total incoming and total outgoing weight.
func (g *Graph) NodeValues() []float64 {
	in := make([]float64, len(g.Nodes))
	out := make([]float64, len(g.Nodes))
	for _, e := range g.Edges {
		out[e.Source] += e.Weight
		in[e.Target] += e.Weight
	}
	vals := make([]float64, len(g.Nodes))
	for i := range vals {
		vals[i] = max(in[i], out[i])
	}
	return vals
}

// StageGroup lists the nodes first seen at one stage, for legends.
type StageGroup struct {
	Field string `json:"field" bson:"field"`
	Nodes []Node `json:"nodes" bson:"nodes"`
}

// ByStage groups nodes by the stage they were first seen in, in stage order.
// Nodes within a group keep ID order.
func (g *Graph) ByStage() []StageGroup {
	groups := make([]StageGroup, len(g.Stages))
	for i, f := range g.Stages {
		groups[i].Field = f
	}
	for _, n := range g.Nodes {
		groups[n.Stage].Nodes = append(groups[n.Stage].Nodes, n)
	}
	return groups
}

// Merge returns a copy of g with parallel edges folded into one edge per
// (source, target) pair. Weights are summed; merged edges keep the position
// of the pair's first occurrence.
func Merge(g *Graph) *Graph {
	type pair struct{ s, t int }
	pos := make(map[pair]int)
	merged := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		k := pair{e.Source, e.Target}
		if i, ok := pos[k]; ok {
			merged[i].Weight += e.Weight
			merged[i].Count += e.Count
			continue
		}
		pos[k] = len(merged)
		merged = append(merged, e)
	}

	out := &Graph{
		Stages:  slices.Clone(g.Stages),
		Nodes:   slices.Clone(g.Nodes),
		Edges:   merged,
		Skipped: slices.Clone(g.Skipped),
		Coerced: g.Coerced,
	}
	out.reindex()
	return out
}

// SortedEdges returns g's edges ordered by descending weight, ties in input
// order. The graph itself is not modified.
func (g *Graph) SortedEdges() []Edge {
	out := slices.Clone(g.Edges)
	slices.SortStableFunc(out, func(a, b Edge) int { return cmp.Compare(b.Weight, a.Weight) })
	return out
}
