package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/healthviz/pkg/errors"
)

// Marshal encodes c as indented JSON.
func Marshal(c Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(c, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes and validates a chart document.
func Unmarshal(data []byte) (Chart, error) {
	return Read(bytes.NewReader(data))
}

// Write encodes c as indented JSON to w.
func Write(c Chart, w io.Writer) error {
	if err := c.Validate(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes and validates a chart document from r.
func Read(r io.Reader) (Chart, error) {
	var c Chart
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return Chart{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode chart")
	}
	if err := c.Validate(); err != nil {
		return Chart{}, err
	}
	return c, nil
}

// WriteFile writes c to path.
func WriteFile(c Chart, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(c, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads a chart document from path.
func ReadFile(path string) (Chart, error) {
	f, err := os.Open(path)
	if err != nil {
		return Chart{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Validate checks that Kind is known and that its payload, and only its
// payload, is set.
func (c Chart) Validate() error {
	if !ValidKinds[c.Kind] {
		return errors.New(errors.ErrCodeInvalidFormat, "unknown chart kind %q", c.Kind)
	}
	set := map[string]bool{
		KindSunburst: c.Sunburst != nil,
		KindFlow:     c.Flow != nil,
		KindRates:    c.Rates != nil,
	}
	for kind, ok := range set {
		if ok != (kind == c.Kind) {
			return errors.New(errors.ErrCodeInvalidFormat, "%s chart must carry only a %s payload", c.Kind, c.Kind)
		}
	}
	return nil
}

// Summary returns a one-line description for logs and listings.
func (c Chart) Summary() string {
	switch c.Kind {
	case KindSunburst:
		return fmt.Sprintf("sunburst: %d arcs, total %.2f", len(c.Sunburst.Arcs), c.Sunburst.Total)
	case KindFlow:
		return fmt.Sprintf("flow: %d nodes, %d links", len(c.Flow.Nodes), len(c.Flow.Links))
	case KindRates:
		return fmt.Sprintf("rates: %d records, %d misses", len(c.Rates.Records), c.Rates.Misses)
	default:
		return c.Kind
	}
}
