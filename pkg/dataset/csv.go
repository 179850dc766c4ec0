package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/matzehuels/healthviz/pkg/errors"
)

// ReadCSV decodes a header-first CSV stream into a Table.
// A byte order mark (UTF-8 or UTF-16) is honored and stripped.
func ReadCSV(r io.Reader) (*Table, error) {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(dec)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = false

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode csv").In(errors.StageLoad)
	}
	return fromRecords(records)
}

// ReadCSVFile opens path and decodes it with [ReadCSV].
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path).In(errors.StageLoad)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, err
	}
	t.Source = path
	return t, nil
}

// fromRecords turns raw records (header first) into a Table.
func fromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDataset, "input has no header row").In(errors.StageLoad)
	}
	if len(records) == 1 {
		return nil, errors.New(errors.ErrCodeEmptyDataset, "input has a header but no data rows").In(errors.StageLoad)
	}

	header := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDataset, "input has a header but no data rows").In(errors.StageLoad)
	}

	return &Table{Header: header, Rows: rows}, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if v != "" {
			return false
		}
	}
	return true
}
