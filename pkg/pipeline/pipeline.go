// Package pipeline runs the load → transform → render chain shared by the
// CLI and the HTTP API.
//
// # Stages
//
//  1. Load: read a CSV or XLSX dataset from a path or URL into rows.
//  2. Transform: build a chart document (sunburst, flow or rates).
//  3. Render: encode the chart into the requested formats (JSON, DOT, SVG,
//     PNG, PDF). Graph formats apply to flow charts only.
//
// Each stage is cached through [cache.Keyer] keys and reports to the
// [observability] hooks.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Kind:    chart.KindSunburst,
//	    Source:  "data/diabetes.csv",
//	    Levels:  []string{"State", "Year"},
//	    Measure: "Diabetes %",
//	    Formats: []string{pipeline.FormatJSON},
//	})
//	doc := res.Artifacts[pipeline.FormatJSON]
//
// [observability]: github.com/matzehuels/healthviz/pkg/observability
package pipeline

import (
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/healthviz/pkg/cache"
	"github.com/matzehuels/healthviz/pkg/chart"
	"github.com/matzehuels/healthviz/pkg/dataset"
	"github.com/matzehuels/healthviz/pkg/errors"
	"github.com/matzehuels/healthviz/pkg/flow"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// graphFormats need a node-link drawing and so only apply to flow charts.
var graphFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
}

// DefaultPNGScale is the PNG resolution multiplier.
const DefaultPNGScale = 2.0

// Options contains all configuration for one pipeline run.
// It is the request body of the HTTP API and the shape of config presets.
type Options struct {
	Kind   string         `json:"kind" toml:"kind"`
	Title  string         `json:"title,omitempty" toml:"title"`
	Source string         `json:"source" toml:"source"`
	Format dataset.Format `json:"format,omitempty" toml:"format"`
	// Schema renames raw columns to logical fields before transforming.
	Schema dataset.Schema `json:"schema,omitempty" toml:"schema"`

	// Sunburst
	Levels  []string `json:"levels,omitempty" toml:"levels"`
	Measure string   `json:"measure,omitempty" toml:"measure"`
	Focus   string   `json:"focus,omitempty" toml:"focus"`
	Rings   int      `json:"rings,omitempty" toml:"rings"`
	Strict  bool     `json:"strict,omitempty" toml:"strict"`
	Sort    bool     `json:"sort,omitempty" toml:"sort"`

	// Flow
	Stages       []string `json:"stages,omitempty" toml:"stages"`
	Weight       string   `json:"weight,omitempty" toml:"weight"`
	Merge        bool     `json:"merge,omitempty" toml:"merge"`
	OnMissing    string   `json:"on_missing,omitempty" toml:"on_missing"`
	PrefixStages bool     `json:"prefix_stages,omitempty" toml:"prefix_stages"`

	// Rates
	Entity           string `json:"entity,omitempty" toml:"entity"`
	PopulationSource string `json:"population_source,omitempty" toml:"population_source"`
	PopulationEntity string `json:"population_entity,omitempty" toml:"population_entity"`
	PopulationField  string `json:"population_field,omitempty" toml:"population_field"`
	StartYear        int    `json:"start_year,omitempty" toml:"start_year"`
	EndYear          int    `json:"end_year,omitempty" toml:"end_year"`

	// Render
	Formats []string `json:"formats,omitempty" toml:"formats"`
	Refresh bool     `json:"refresh,omitempty" toml:"-"`

	Logger *log.Logger `json:"-" toml:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	RunID     string
	Chart     chart.Chart
	ChartHash string
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and size information.
type Stats struct {
	Rows          int
	LoadTime      time.Duration
	TransformTime time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks which stages were served from cache.
type CacheInfo struct {
	ChartHit  bool
	RenderHit bool
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateKind checks that a chart kind is valid.
func ValidateKind(kind string) error {
	if !chart.ValidKinds[kind] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid kind: %q (must be one of: sunburst, flow, rates)", kind)
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForTransform(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the dataset source.
func (o *Options) ValidateForLoad() error {
	if o.Source == "" {
		return errors.New(errors.ErrCodeInvalidInput, "source is required")
	}
	switch o.Format {
	case dataset.FormatAuto, dataset.FormatCSV, dataset.FormatXLSX:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid input format: %q (must be csv or xlsx)", o.Format)
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// ValidateForTransform checks the fields the chart kind needs.
func (o *Options) ValidateForTransform() error {
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := ValidateKind(o.Kind); err != nil {
		return err
	}

	switch o.Kind {
	case chart.KindSunburst:
		if err := errors.ValidateFieldList("levels", o.Levels, 1); err != nil {
			return err
		}
		if err := errors.ValidateFieldName(o.Measure); err != nil {
			return err
		}
		if o.Rings == 0 {
			o.Rings = chart.DefaultRings
		}
	case chart.KindFlow:
		if err := errors.ValidateFieldList("stages", o.Stages, 2); err != nil {
			return err
		}
		if err := errors.ValidateFieldName(o.Weight); err != nil {
			return err
		}
		if _, err := flow.ParseMissingPolicy(o.OnMissing); err != nil {
			return err
		}
	case chart.KindRates:
		if err := errors.ValidateFieldName(o.Entity); err != nil {
			return err
		}
		if o.PopulationSource == "" {
			return errors.New(errors.ErrCodeInvalidInput, "population_source is required for rates")
		}
		if err := errors.ValidateFieldName(o.PopulationField); err != nil {
			return err
		}
		if o.PopulationEntity == "" {
			o.PopulationEntity = o.Entity
		}
		if err := errors.ValidateYearRange(o.StartYear, o.EndYear); err != nil {
			return err
		}
	}
	return nil
}

// ValidateForRender checks formats against the chart kind and applies the
// default format.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Kind != chart.KindFlow {
		for _, f := range o.Formats {
			if graphFormats[f] {
				return errors.New(errors.ErrCodeUnsupported, "format %q is only available for flow charts", f)
			}
		}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// ChartKeyOpts returns cache key options for the transform stage.
func (o *Options) ChartKeyOpts() cache.ChartKeyOpts {
	k := cache.ChartKeyOpts{Kind: o.Kind}
	switch o.Kind {
	case chart.KindSunburst:
		k.Fields = slices.Clone(o.Levels)
		k.Measure = o.Measure
		k.Extra = []string{o.Focus, strconv.Itoa(o.Rings), strconv.FormatBool(o.Strict), strconv.FormatBool(o.Sort)}
	case chart.KindFlow:
		k.Fields = slices.Clone(o.Stages)
		k.Measure = o.Weight
		k.Extra = []string{strconv.FormatBool(o.Merge), o.OnMissing, strconv.FormatBool(o.PrefixStages)}
	case chart.KindRates:
		k.Fields = []string{o.Entity}
		k.Extra = []string{o.PopulationSource, o.PopulationEntity, o.PopulationField,
			strconv.Itoa(o.StartYear), strconv.Itoa(o.EndYear)}
	}
	if len(o.Schema) > 0 {
		for _, f := range sortedKeys(o.Schema) {
			k.Extra = append(k.Extra, f+"="+o.Schema[f])
		}
	}
	k.Extra = append(k.Extra, o.Title)
	return k
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
