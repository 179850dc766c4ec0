package dataset

import (
	"bytes"
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/matzehuels/healthviz/pkg/errors"
)

// Format identifies an input encoding.
type Format string

const (
	FormatAuto Format = ""
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Fetcher downloads remote sources. *httputil.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DetectFormat infers the format of src from its extension, defaulting to CSV.
func DetectFormat(src string) Format {
	p := src
	if errors.IsRemote(src) {
		if u, err := url.Parse(src); err == nil {
			p = u.Path
		}
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// Load reads src, a local path or http(s) URL, in the given format
// ([FormatAuto] detects it). Remote sources require a non-nil fetcher.
func Load(ctx context.Context, src string, format Format, fetcher Fetcher) (*Table, error) {
	if format == FormatAuto {
		format = DetectFormat(src)
	}

	if !errors.IsRemote(src) {
		if err := errors.ValidatePath(src); err != nil {
			return nil, errors.Staged(err, errors.StageLoad)
		}
		switch format {
		case FormatXLSX:
			return ReadXLSXFile(src)
		case FormatCSV:
			return ReadCSVFile(src)
		default:
			return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", format).In(errors.StageLoad)
		}
	}

	if fetcher == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "no fetcher configured for %s", src).In(errors.StageLoad)
	}
	if err := errors.ValidateURL(src); err != nil {
		return nil, errors.Staged(err, errors.StageLoad)
	}
	body, err := fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, errors.Wrap(errors.CodeOr(err, errors.ErrCodeNetwork), err, "fetch %s", src).In(errors.StageLoad)
	}

	var t *Table
	switch format {
	case FormatXLSX:
		t, err = ReadXLSX(bytes.NewReader(body))
	case FormatCSV:
		t, err = ReadCSV(bytes.NewReader(body))
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", format).In(errors.StageLoad)
	}
	if err != nil {
		return nil, err
	}
	t.Source = src
	return t, nil
}
