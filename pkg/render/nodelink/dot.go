package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/healthviz/pkg/errors"
	"github.com/matzehuels/healthviz/pkg/flow"
	"github.com/matzehuels/healthviz/pkg/render"
)

const (
	defaultMinPen = 1.0
	defaultMaxPen = 12.0
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds node throughput and edge weights to labels.
	Detailed bool
	// Title is drawn above the diagram when non-empty.
	Title string
	// MinPen and MaxPen bound edge stroke widths. Zero means 1 and 12.
	MinPen, MaxPen float64
}

// ToDOT converts a flow graph to Graphviz DOT source. Nodes first seen in
// the same stage share a rank; edge pen widths scale linearly with weight
// between [Options.MinPen] and [Options.MaxPen].
func ToDOT(g *flow.Graph, opts Options) string {
	minPen, maxPen := opts.MinPen, opts.MaxPen
	if minPen <= 0 {
		minPen = defaultMinPen
	}
	if maxPen < minPen {
		maxPen = max(defaultMaxPen, minPen)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", opts.Title)
		buf.WriteString("  labelloc=t;\n")
	}
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowhead=none, color=\"#4a90d966\"];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.3;\n")

	values := g.NodeValues()
	for _, grp := range g.ByStage() {
		if len(grp.Nodes) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n  // %s\n", grp.Field)
		ids := make([]string, len(grp.Nodes))
		for i, n := range grp.Nodes {
			ids[i] = strconv.Quote(nodeID(n.ID))
			fmt.Fprintf(&buf, "  %s [label=%q];\n", ids[i], fmtLabel(n, values[n.ID], opts.Detailed))
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(ids, "; "))
	}

	var maxW float64
	for _, e := range g.Edges {
		maxW = max(maxW, e.Weight)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		attrs := []string{fmt.Sprintf("penwidth=%.2f", penWidth(e.Weight, maxW, minPen, maxPen))}
		if opts.Detailed {
			attrs = append(attrs, fmt.Sprintf("label=%q", fmtValue(e.Weight)))
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", nodeID(e.Source), nodeID(e.Target), strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(id int) string { return "n" + strconv.Itoa(id) }

func fmtLabel(n flow.Node, value float64, detailed bool) string {
	if !detailed {
		return n.Label
	}
	return n.Label + "\n" + fmtValue(value)
}

func fmtValue(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func penWidth(w, maxW, minPen, maxPen float64) float64 {
	if maxW <= 0 || w <= 0 {
		return minPen
	}
	return minPen + (w/maxW)*(maxPen-minPen)
}

// RenderSVG lays out DOT source with Graphviz and returns SVG bytes with a
// normalized viewBox.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz").In(errors.StageRender)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT").In(errors.StageRender)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render").In(errors.StageRender)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders DOT source as PDF via [RenderSVG] and [render.ToPDF].
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders DOT source as PNG via [RenderSVG] and [render.ToPNG].
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
