package dataset

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ParseWorkbook reads one sheet of an .xlsx workbook. An empty sheet name
// selects the first sheet. The first non-empty row is the header.
func ParseWorkbook(data []byte, sheet string) (*Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("dataset: open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNotTabular
		}
		sheet = sheets[0]
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("dataset: sheet %q: %w", sheet, err)
	}
	defer func() { _ = rows.Close() }()

	var header []string
	var records [][]string
	for rows.Next() {
		vals, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("dataset: read row: %w", err)
		}
		if blank(vals) {
			continue
		}
		if header == nil {
			header = vals
			continue
		}
		records = append(records, vals)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("dataset: iterate rows: %w", err)
	}
	if header == nil || len(records) == 0 {
		return nil, ErrNotTabular
	}
	return Build(header, records)
}
