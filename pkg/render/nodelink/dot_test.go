package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/matzehuels/healthviz/pkg/dataset"
	"github.com/matzehuels/healthviz/pkg/flow"
)

func dietGraph(t *testing.T) *flow.Graph {
	t.Helper()
	rows := []dataset.Row{
		{"rei": "Diet", "age": "25-34", "sex": "Male", "year": "2020", "val": "10"},
		{"rei": "Diet", "age": "35-44", "sex": "Female", "year": "2021", "val": "5"},
	}
	g, err := flow.BuildGraph(rows, []string{"rei", "age", "sex", "year"}, "val", flow.Options{})
	if err != nil {
		t.Fatalf("BuildGraph() error: %v", err)
	}
	return g
}

func TestToDOT_Golden(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "diet_flow", []byte(ToDOT(dietGraph(t), Options{})))
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(dietGraph(t), Options{Detailed: true, Title: "Risk flow"})

	for _, want := range []string{
		`label="Risk flow";`,
		`"n0" [label="Diet\n15"];`,
		`"n1" [label="25-34\n10"];`,
		`"n0" -> "n1" [penwidth=12.00, label="10"];`,
		`"n0" -> "n4" [penwidth=6.50, label="5"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q in:\n%s", want, dot)
		}
	}
}

func TestToDOT_RanksByStage(t *testing.T) {
	dot := ToDOT(dietGraph(t), Options{})
	if !strings.Contains(dot, `{ rank=same; "n1"; "n4"; }`) {
		t.Errorf("age nodes should share a rank:\n%s", dot)
	}
	if got := strings.Count(dot, "rank=same"); got != 4 {
		t.Errorf("rank groups = %d, want 4", got)
	}
}

func TestToDOT_PenBounds(t *testing.T) {
	dot := ToDOT(dietGraph(t), Options{MinPen: 2, MaxPen: 4})
	if !strings.Contains(dot, "penwidth=4.00") || !strings.Contains(dot, "penwidth=3.00") {
		t.Errorf("pen widths not scaled into [2,4]:\n%s", dot)
	}
}

func TestToDOT_Merged(t *testing.T) {
	rows := []dataset.Row{
		{"a": "x", "b": "y", "w": "1"},
		{"a": "x", "b": "y", "w": "2"},
	}
	g, err := flow.BuildGraph(rows, []string{"a", "b"}, "w", flow.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(ToDOT(g, Options{}), "->"); got != 2 {
		t.Errorf("unmerged edges = %d, want 2", got)
	}
	if got := strings.Count(ToDOT(flow.Merge(g), Options{}), "->"); got != 1 {
		t.Errorf("merged edges = %d, want 1", got)
	}
}

func TestPenWidth(t *testing.T) {
	tests := []struct {
		w, maxW, want float64
	}{
		{10, 10, 12},
		{5, 10, 6.5},
		{0, 10, 1},
		{3, 0, 1},
	}
	for _, tt := range tests {
		if got := penWidth(tt.w, tt.maxW, 1, 12); got != tt.want {
			t.Errorf("penWidth(%v, %v) = %v, want %v", tt.w, tt.maxW, got, tt.want)
		}
	}
}

func TestFmtValue(t *testing.T) {
	tests := map[float64]string{
		15:     "15",
		2.5:    "2.50",
		0.3333: "0.33",
	}
	for in, want := range tests {
		if got := fmtValue(in); got != want {
			t.Errorf("fmtValue(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("normalizeViewBox() changed svg without viewBox: %s", got)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(dietGraph(t), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "digraph G { -> }"); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}
