package dataset

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/healthviz/pkg/errors"
)

// ReadXLSX decodes the first sheet of an XLSX workbook into a Table.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "open workbook").In(errors.StageLoad)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDataset, "workbook has no sheets").In(errors.StageLoad)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read sheet %q", sheets[0]).In(errors.StageLoad)
	}
	return fromRecords(records)
}

// ReadXLSXFile opens path and decodes it with [ReadXLSX].
func ReadXLSXFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path).In(errors.StageLoad)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadXLSX(f)
	if err != nil {
		return nil, err
	}
	t.Source = path
	return t, nil
}
