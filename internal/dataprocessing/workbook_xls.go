package dataprocessing

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yamitzky/xlrd-go/xlrd"
)

// xlsWorkbook reads legacy BIFF workbooks
type xlsWorkbook struct {
	path string
	book *xlrd.Book
}

func openXLS(path string) (*xlsWorkbook, error) {
	book, err := xlrd.OpenWorkbook(path, &xlrd.OpenWorkbookOptions{
		Logfile:                  io.Discard,
		IgnoreWorkbookCorruption: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open xls workbook: %w", err)
	}
	return &xlsWorkbook{path: path, book: book}, nil
}

func (w *xlsWorkbook) SheetNames() []string {
	names := w.book.SheetNames()
	out := make([]string, len(names))
	copy(out, names)
	return out
}

func (w *xlsWorkbook) Rows(sheet string) ([][]string, error) {
	s, err := w.book.SheetByName(sheet)
	if err != nil || s == nil {
		return nil, sheetNotFound(w.path, sheet)
	}

	rows := make([][]string, s.NRows)
	for r := 0; r < s.NRows; r++ {
		row := make([]string, s.NCols)
		for c := 0; c < s.NCols; c++ {
			row[c] = xlsCellText(s.CellType(r, c), s.CellValue(r, c))
		}
		rows[r] = trimTrailingEmpty(row)
	}
	return rows, nil
}

func (w *xlsWorkbook) Close() error {
	w.book.ReleaseResources()
	return nil
}

// xlsCellText renders a BIFF cell the way the xlsx reader renders raw values.
// Error cells read as empty so they count as missing.
func xlsCellText(ctype int, value interface{}) string {
	switch ctype {
	case xlrd.XL_CELL_EMPTY, xlrd.XL_CELL_BLANK, xlrd.XL_CELL_ERROR:
		return ""
	case xlrd.XL_CELL_NUMBER:
		switch v := value.(type) {
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	case xlrd.XL_CELL_BOOLEAN:
		switch v := value.(type) {
		case bool:
			return strings.ToUpper(strconv.FormatBool(v))
		case int:
			return strings.ToUpper(strconv.FormatBool(v != 0))
		}
	}

	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(value)
}
