package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"gapfill/internal/dataset"
)

// ReadXLSX decodes one sheet of an Excel workbook into a Dataset. An
// empty sheet name selects the workbook's first sheet. The first row is
// the header; trailing cells absent from a short row count as missing.
func ReadXLSX(path, sheet string, opts Options) (*dataset.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	ds, err := fromRecords(rows[0], rows[1:], opts)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	return ds, nil
}
