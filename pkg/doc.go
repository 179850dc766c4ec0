// Package pkg provides the core libraries for healthviz chart derivation.
//
// # Overview
//
// Healthviz turns tabular public-health data into chart-ready documents. The
// pkg directory is organized into four main areas:
//
//  1. Core: [dataset] (rows), [hierarchy] (sunburst), [flow] (sankey) and
//     [rates] (population-adjusted rates), all pure and synchronous
//  2. Documents: [chart] serializes core results; [render] draws them
//  3. Infrastructure: [cache], [storage], [config], [httputil],
//     [observability]
//  4. Orchestration: [pipeline] (load → transform → render) and [api]
//
// # Architecture
//
// The typical data flow through healthviz:
//
//	CSV / XLSX file or URL
//	         ↓
//	    [dataset] package (rows, schema renames)
//	         ↓
//	    [hierarchy] | [flow] | [rates]
//	         ↓
//	    [chart] package (JSON documents)
//	         ↓
//	    [render/nodelink] package (DOT, SVG, PNG, PDF for flows)
//
// # Quick Start
//
// Aggregate a dataset into a sunburst and zoom onto one arc:
//
//	t, _ := dataset.ReadCSVFile("diabetes.csv")
//	root, _ := hierarchy.Aggregate(t.Rows, []string{"State", "Year"}, "Diabetes %", hierarchy.Options{})
//	arcs := hierarchy.Partition(root)
//	_ = hierarchy.Reframe(arcs, arcs.Find("Texas"))
//	doc := chart.FromSunburst(arcs, arcs.Find("Texas"), chart.SunburstOptions{
//	    Levels:  []string{"State", "Year"},
//	    Measure: "Diabetes %",
//	})
//
// Or run the whole chain with caching:
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	res, _ := runner.Execute(ctx, pipeline.Options{
//	    Kind:    chart.KindFlow,
//	    Source:  "burden.csv",
//	    Stages:  []string{"rei", "age", "sex", "year"},
//	    Weight:  "val",
//	    Formats: []string{"json", "svg"},
//	})
//
// # Errors
//
// Every package reports failures through [errors], whose errors carry a code
// and the pipeline stage that failed.
//
// [dataset]: github.com/matzehuels/healthviz/pkg/dataset
// [hierarchy]: github.com/matzehuels/healthviz/pkg/hierarchy
// [flow]: github.com/matzehuels/healthviz/pkg/flow
// [rates]: github.com/matzehuels/healthviz/pkg/rates
// [chart]: github.com/matzehuels/healthviz/pkg/chart
// [render]: github.com/matzehuels/healthviz/pkg/render
// [render/nodelink]: github.com/matzehuels/healthviz/pkg/render/nodelink
// [cache]: github.com/matzehuels/healthviz/pkg/cache
// [storage]: github.com/matzehuels/healthviz/pkg/storage
// [config]: github.com/matzehuels/healthviz/pkg/config
// [httputil]: github.com/matzehuels/healthviz/pkg/httputil
// [observability]: github.com/matzehuels/healthviz/pkg/observability
// [pipeline]: github.com/matzehuels/healthviz/pkg/pipeline
// [api]: github.com/matzehuels/healthviz/pkg/api
// [errors]: github.com/matzehuels/healthviz/pkg/errors
package pkg
