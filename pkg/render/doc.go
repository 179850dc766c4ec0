// Package render turns chart artifacts into image formats.
//
// The [nodelink] subpackage draws flow graphs with Graphviz. This package
// holds the format conversion shared by every renderer: [ToPDF] and [ToPNG]
// shell out to rsvg-convert (from librsvg).
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := render.ToPNG(svg, 2.0)
//
// [nodelink]: github.com/matzehuels/healthviz/pkg/render/nodelink
package render
