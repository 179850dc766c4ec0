// Package nodelink renders flow graphs as left-to-right node-link diagrams.
//
// [ToDOT] emits Graphviz DOT source with one rank per stage and edge widths
// scaled by weight. [RenderSVG] lays the DOT out in-process with
// [github.com/goccy/go-graphviz]; [RenderPDF] and [RenderPNG] go through
// rsvg-convert.
//
//	dot := nodelink.ToDOT(flow.Merge(g), nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT output is deterministic for a given graph, so it is safe to cache
// and to compare in golden tests.
package nodelink
