package dataprocessing

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// xlsxWorkbook reads zipped OOXML workbooks
type xlsxWorkbook struct {
	path string
	file *excelize.File
}

func openXLSX(path string) (*xlsxWorkbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx workbook: %w", err)
	}
	return &xlsxWorkbook{path: path, file: f}, nil
}

func (w *xlsxWorkbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// Rows returns unformatted cell values so that numbers keep full precision
// and no thousands separators
func (w *xlsxWorkbook) Rows(sheet string) ([][]string, error) {
	if idx, err := w.file.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, sheetNotFound(w.path, sheet)
	}

	rows, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheet, err)
	}
	for i := range rows {
		rows[i] = trimTrailingEmpty(rows[i])
	}
	return rows, nil
}

func (w *xlsxWorkbook) Close() error {
	return w.file.Close()
}
