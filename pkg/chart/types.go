package chart

import (
	"github.com/matzehuels/healthviz/pkg/flow"
	"github.com/matzehuels/healthviz/pkg/hierarchy"
	"github.com/matzehuels/healthviz/pkg/rates"
)

// Chart kinds.
const (
	KindSunburst = "sunburst"
	KindFlow     = "flow"
	KindRates    = "rates"
)

// ValidKinds is the set of supported chart kinds.
var ValidKinds = map[string]bool{
	KindSunburst: true,
	KindFlow:     true,
	KindRates:    true,
}

// Chart is a discriminated union; exactly the field matching Kind is set.
type Chart struct {
	Kind   string `json:"kind" bson:"kind"`
	Title  string `json:"title,omitempty" bson:"title,omitempty"`
	Source string `json:"source,omitempty" bson:"source,omitempty"`

	Sunburst *Sunburst `json:"sunburst,omitempty" bson:"sunburst,omitempty"`
	Flow     *Flow     `json:"flow,omitempty" bson:"flow,omitempty"`
	Rates    *Rates    `json:"rates,omitempty" bson:"rates,omitempty"`
}

// Arc is one sunburst segment. Parent is -1 for the root.
type Arc struct {
	ID     int             `json:"id" bson:"id"`
	Parent int             `json:"parent" bson:"parent"`
	Key    string          `json:"key" bson:"key"`
	Path   string          `json:"path" bson:"path"`
	Value  float64         `json:"value" bson:"value"`
	Rows   int             `json:"rows" bson:"rows"`
	Depth  int             `json:"depth" bson:"depth"`
	Frame  hierarchy.Frame `json:"frame" bson:"frame"`
	// Visible and LabelVisible are evaluated against Sunburst.Rings.
	Visible      bool `json:"visible" bson:"visible"`
	LabelVisible bool `json:"label_visible" bson:"label_visible"`
}

// Sunburst is a partitioned hierarchy in breadth-first order.
type Sunburst struct {
	Levels  []string `json:"levels" bson:"levels"`
	Measure string   `json:"measure" bson:"measure"`
	// Focus is the path of the arc the frames are zoomed to; empty for the root.
	Focus   string  `json:"focus,omitempty" bson:"focus,omitempty"`
	Rings   int     `json:"rings" bson:"rings"`
	Total   float64 `json:"total" bson:"total"`
	Coerced int     `json:"coerced,omitempty" bson:"coerced,omitempty"`
	Arcs    []Arc   `json:"arcs" bson:"arcs"`
}

// Link is a sankey link.
type Link struct {
	Source int     `json:"source" bson:"source"`
	Target int     `json:"target" bson:"target"`
	Value  float64 `json:"value" bson:"value"`
}

// FlowNode is a sankey node with its throughput.
type FlowNode struct {
	flow.Node `bson:",inline"`
	Value     float64 `json:"value" bson:"value"`
}

// Flow is a sankey document.
type Flow struct {
	Stages  []string          `json:"stages" bson:"stages"`
	Weight  string            `json:"weight" bson:"weight"`
	Merged  bool              `json:"merged,omitempty" bson:"merged,omitempty"`
	Nodes   []FlowNode        `json:"nodes" bson:"nodes"`
	Links   []Link            `json:"links" bson:"links"`
	Legend  []flow.StageGroup `json:"legend" bson:"legend"`
	Skipped int               `json:"skipped,omitempty" bson:"skipped,omitempty"`
	Coerced int               `json:"coerced,omitempty" bson:"coerced,omitempty"`
}

// Rates is a joined rate table.
type Rates struct {
	Range     rates.YearRange    `json:"range" bson:"range"`
	Records   []rates.Record     `json:"records" bson:"records"`
	Summaries []rates.Summary    `json:"summaries,omitempty" bson:"summaries,omitempty"`
	Series    []rates.SeriesLine `json:"series,omitempty" bson:"series,omitempty"`
	Misses    int                `json:"misses" bson:"misses"`
}
