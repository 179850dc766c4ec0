package pipeline

import (
	"bytes"
	"context"

	"github.com/matzehuels/healthviz/pkg/chart"
	"github.com/matzehuels/healthviz/pkg/errors"
	"github.com/matzehuels/healthviz/pkg/render/nodelink"
)

// Render encodes c in each requested format.
func Render(ctx context.Context, c chart.Chart, formats []string) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(formats))

	var dot string
	for _, format := range formats {
		if graphFormats[format] {
			if c.Kind != chart.KindFlow || c.Flow == nil {
				return nil, errors.New(errors.ErrCodeUnsupported, "format %q is only available for flow charts", format).In(errors.StageRender)
			}
			if dot == "" {
				dot = ToDOT(c)
			}
		}

		var (
			data []byte
			err  error
		)
		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			err = chart.Write(c, &buf)
			data = buf.Bytes()
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, DefaultPNGScale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			return nil, errors.Staged(err, errors.StageRender)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// ToDOT draws a flow chart as Graphviz source with values in labels.
func ToDOT(c chart.Chart) string {
	return nodelink.ToDOT(c.Flow.Graph(), nodelink.Options{Detailed: true, Title: c.Title})
}
