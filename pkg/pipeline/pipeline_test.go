package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/healthviz/pkg/cache"
	"github.com/matzehuels/healthviz/pkg/chart"
	"github.com/matzehuels/healthviz/pkg/errors"
	"github.com/matzehuels/healthviz/pkg/hierarchy"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const diabetesCSV = `State,Year,Diabetes
Texas,2019,10
Texas,2020,15
Ohio,2019,5
`

const riskCSV = `rei,age,sex,val
Diet,25-34,Male,10
Diet,35-44,Female,5
`

func sunburstOpts(src string) Options {
	return Options{
		Kind:    chart.KindSunburst,
		Source:  src,
		Levels:  []string{"State", "Year"},
		Measure: "Diabetes",
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"JSON", true},
		{"csv", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateKind(t *testing.T) {
	for _, k := range []string{"sunburst", "flow", "rates"} {
		if err := ValidateKind(k); err != nil {
			t.Errorf("ValidateKind(%q) = %v", k, err)
		}
	}
	if err := ValidateKind("pie"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ValidateKind(pie) = %v, want INVALID_INPUT", err)
	}
}

func TestOptionsValidateForTransform(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"sunburst", Options{Kind: "sunburst", Source: "a.csv", Levels: []string{"State"}, Measure: "v"}, false},
		{"sunburst no levels", Options{Kind: "sunburst", Source: "a.csv", Measure: "v"}, true},
		{"sunburst no measure", Options{Kind: "sunburst", Source: "a.csv", Levels: []string{"State"}}, true},
		{"flow", Options{Kind: "flow", Source: "a.csv", Stages: []string{"a", "b"}, Weight: "w"}, false},
		{"flow one stage", Options{Kind: "flow", Source: "a.csv", Stages: []string{"a"}, Weight: "w"}, true},
		{"flow bad policy", Options{Kind: "flow", Source: "a.csv", Stages: []string{"a", "b"}, Weight: "w", OnMissing: "guess"}, true},
		{"rates", Options{Kind: "rates", Source: "a.csv", Entity: "States", PopulationSource: "p.csv", PopulationField: "Pop", StartYear: 2019, EndYear: 2022}, false},
		{"rates no population", Options{Kind: "rates", Source: "a.csv", Entity: "States", PopulationField: "Pop", StartYear: 2019, EndYear: 2022}, true},
		{"rates bad years", Options{Kind: "rates", Source: "a.csv", Entity: "States", PopulationSource: "p.csv", PopulationField: "Pop", StartYear: 2022, EndYear: 2019}, true},
		{"no source", Options{Kind: "flow", Stages: []string{"a", "b"}, Weight: "w"}, true},
		{"bad input format", Options{Kind: "flow", Source: "a.csv", Format: "parquet", Stages: []string{"a", "b"}, Weight: "w"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForTransform()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateForTransform() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Kind: "rates", Source: "a.csv", Entity: "States", PopulationSource: "p.csv",
		PopulationField: "Pop", StartYear: 2019, EndYear: 2022}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.PopulationEntity != "States" {
		t.Errorf("PopulationEntity = %q, want States", opts.PopulationEntity)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats = %v, want [json]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	sb := sunburstOpts("a.csv")
	if err := sb.ValidateForTransform(); err != nil {
		t.Fatal(err)
	}
	if sb.Rings != chart.DefaultRings {
		t.Errorf("Rings = %d, want %d", sb.Rings, chart.DefaultRings)
	}
}

func TestGraphFormatsOnlyForFlow(t *testing.T) {
	opts := sunburstOpts("a.csv")
	opts.Formats = []string{FormatSVG}
	if err := opts.ValidateForRender(); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("ValidateForRender() = %v, want UNSUPPORTED", err)
	}
}

func TestChartKeyOptsDistinguishFocus(t *testing.T) {
	a := sunburstOpts("a.csv")
	b := sunburstOpts("a.csv")
	b.Focus = "Texas"
	k := cache.NewDefaultKeyer()
	if k.ChartKey("h", a.ChartKeyOpts()) == k.ChartKey("h", b.ChartKeyOpts()) {
		t.Error("focus should change the chart key")
	}
}

func TestExecuteSunburst(t *testing.T) {
	src := writeFile(t, "diabetes.csv", diabetesCSV)
	runner := NewRunner(nil, nil, nil)

	res, err := runner.Execute(context.Background(), sunburstOpts(src))
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.RunID == "" {
		t.Error("RunID should be set")
	}
	if res.Stats.Rows != 3 {
		t.Errorf("Rows = %d, want 3", res.Stats.Rows)
	}
	sb := res.Chart.Sunburst
	if sb == nil || sb.Total != 30 {
		t.Fatalf("sunburst total = %+v, want 30", sb)
	}
	if res.Chart.Source != src {
		t.Errorf("Source = %q, want %q", res.Chart.Source, src)
	}
	if !strings.Contains(string(res.Artifacts[FormatJSON]), `"kind": "sunburst"`) {
		t.Errorf("json artifact missing kind:\n%s", res.Artifacts[FormatJSON])
	}
	if res.ChartHash == "" {
		t.Error("ChartHash should be set")
	}
}

func TestExecuteUsesCache(t *testing.T) {
	src := writeFile(t, "diabetes.csv", diabetesCSV)
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	first, err := runner.Execute(context.Background(), sunburstOpts(src))
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.ChartHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss: %+v", first.CacheInfo)
	}

	second, err := runner.Execute(context.Background(), sunburstOpts(src))
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.ChartHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit: %+v", second.CacheInfo)
	}
	if first.RunID == second.RunID {
		t.Error("each run should get its own ID")
	}
	if string(first.Artifacts[FormatJSON]) != string(second.Artifacts[FormatJSON]) {
		t.Error("cached artifact differs from rendered one")
	}

	refresh := sunburstOpts(src)
	refresh.Refresh = true
	third, err := runner.Execute(context.Background(), refresh)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.ChartHit {
		t.Error("refresh should bypass the chart cache")
	}
}

func TestExecuteSunburstFocus(t *testing.T) {
	src := writeFile(t, "diabetes.csv", diabetesCSV)
	opts := sunburstOpts(src)
	opts.Focus = "Texas"

	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	sb := res.Chart.Sunburst
	if sb.Focus != "Texas" {
		t.Errorf("Focus = %q, want Texas", sb.Focus)
	}
	for _, a := range sb.Arcs {
		if a.Path == "Texas" {
			if math.Abs(a.Frame.Span()-hierarchy.FullCircle) > 1e-9 || a.Frame.Y0 != 0 {
				t.Errorf("focus arc frame = %+v, want full circle at ring 0", a.Frame)
			}
		}
		if a.Path == "Ohio" && a.Frame.Span() != 0 {
			t.Errorf("sibling arc should collapse, got span %v", a.Frame.Span())
		}
	}
}

func TestExecuteUnknownFocus(t *testing.T) {
	src := writeFile(t, "diabetes.csv", diabetesCSV)
	opts := sunburstOpts(src)
	opts.Focus = "Utah"

	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Execute() = %v, want NOT_FOUND", err)
	}
}

func TestExecuteFlowDOT(t *testing.T) {
	src := writeFile(t, "risk.csv", riskCSV)
	opts := Options{
		Kind:    chart.KindFlow,
		Title:   "Risk flow",
		Source:  src,
		Stages:  []string{"rei", "age", "sex"},
		Weight:  "val",
		Formats: []string{FormatJSON, FormatDOT},
	}

	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	f := res.Chart.Flow
	if len(f.Nodes) != 5 || len(f.Links) != 4 {
		t.Errorf("flow = %d nodes, %d links; want 5, 4", len(f.Nodes), len(f.Links))
	}
	dot := string(res.Artifacts[FormatDOT])
	for _, want := range []string{"rankdir=LR", `label="Risk flow"`, `"n0" [label="Diet\n15"]`} {
		if !strings.Contains(dot, want) {
			t.Errorf("dot missing %q:\n%s", want, dot)
		}
	}
}

func TestExecuteRates(t *testing.T) {
	src := writeFile(t, "obesity.csv", "States,2019,2020\nTexas,10,abc\nOhio,20,30\n")
	pop := writeFile(t, "population.csv", "States,Total Resident Population\nTexas,1000\nOhio,500\n")

	opts := Options{
		Kind:             chart.KindRates,
		Source:           src,
		Entity:           "States",
		PopulationSource: pop,
		PopulationField:  "Total Resident Population",
		StartYear:        2019,
		EndYear:          2020,
	}
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	r := res.Chart.Rates
	if len(r.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(r.Records))
	}
	if r.Misses != 1 {
		t.Errorf("misses = %d, want 1", r.Misses)
	}
	tbl := r.Table()
	rec, ok := tbl.Get("Texas", 2019)
	if !ok || rec.DerivedCount != 100 || rec.Rate != 10 {
		t.Errorf("Texas 2019 = %+v, %v", rec, ok)
	}
	if _, ok := tbl.Get("Texas", 2020); ok {
		t.Error("non-numeric rate should be absent")
	}
}

func TestExecuteRatesPopulationChange(t *testing.T) {
	src := writeFile(t, "obesity.csv", "States,2019\nTexas,10\n")
	pop := writeFile(t, "population.csv", "States,Total Resident Population\nTexas,1000\n")
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	opts := Options{
		Kind:             chart.KindRates,
		Source:           src,
		Entity:           "States",
		PopulationSource: pop,
		PopulationField:  "Total Resident Population",
		StartYear:        2019,
		EndYear:          2019,
	}
	derived := func(res *Result) int64 {
		t.Helper()
		rec, ok := res.Chart.Rates.Table().Get("Texas", 2019)
		if !ok {
			t.Fatal("Texas 2019 missing")
		}
		return rec.DerivedCount
	}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := derived(first); got != 100 {
		t.Fatalf("derived = %d, want 100", got)
	}

	if err := os.WriteFile(pop, []byte("States,Total Resident Population\nTexas,5000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if second.CacheInfo.ChartHit {
		t.Error("edited population should miss the chart cache")
	}
	if got := derived(second); got != 500 {
		t.Errorf("derived after edit = %d, want 500", got)
	}

	third, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !third.CacheInfo.ChartHit {
		t.Error("unchanged inputs should hit the chart cache")
	}
}

func TestExecuteMissingFile(t *testing.T) {
	opts := sunburstOpts(filepath.Join(t.TempDir(), "nope.csv"))
	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Execute() = %v, want FILE_NOT_FOUND", err)
	}
	if errors.StageOf(err) != errors.StageLoad {
		t.Errorf("stage = %q, want load", errors.StageOf(err))
	}
}

func TestRefocus(t *testing.T) {
	src := writeFile(t, "diabetes.csv", diabetesCSV)
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), sunburstOpts(src))
	if err != nil {
		t.Fatal(err)
	}

	zoomed, err := Refocus(res.Chart, "Texas/2020")
	if err != nil {
		t.Fatalf("Refocus() error: %v", err)
	}
	if zoomed.Sunburst.Focus != "Texas/2020" {
		t.Errorf("Focus = %q", zoomed.Sunburst.Focus)
	}
	if res.Chart.Sunburst.Focus != "" {
		t.Error("Refocus should not modify its input")
	}

	back, err := Refocus(zoomed, "")
	if err != nil {
		t.Fatal(err)
	}
	for i, a := range back.Sunburst.Arcs {
		if a.Frame != res.Chart.Sunburst.Arcs[i].Frame {
			t.Errorf("arc %s frame %+v, want %+v", a.Path, a.Frame, res.Chart.Sunburst.Arcs[i].Frame)
		}
	}

	if _, err := Refocus(chart.Chart{Kind: chart.KindFlow}, "x"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Refocus(flow) = %v, want UNSUPPORTED", err)
	}
}

func TestRenderRejectsGraphFormatsForRates(t *testing.T) {
	c := chart.Chart{Kind: chart.KindRates, Rates: &chart.Rates{}}
	_, err := Render(context.Background(), c, []string{FormatDOT})
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Render() = %v, want UNSUPPORTED", err)
	}
}
