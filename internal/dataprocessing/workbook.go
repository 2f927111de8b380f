package dataprocessing

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aeturrell/deploy-api/pkg/contracts/domain"
)

// SpreadsheetReader exposes the sheets of one opened workbook as plain cell text.
// Rows are returned top to bottom with trailing empty cells trimmed; blank
// rows inside the sheet are kept as empty slices.
type SpreadsheetReader interface {
	SheetNames() []string
	Rows(sheet string) ([][]string, error)
	Close() error
}

// FormatFromPath maps a file extension to its spreadsheet format
func FormatFromPath(path string) (domain.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case domain.FormatLegacy.Extension():
		return domain.FormatLegacy, nil
	case domain.FormatModern.Extension():
		return domain.FormatModern, nil
	default:
		return "", &UnsupportedFormatError{Path: path, Extension: ext}
	}
}

// OpenWorkbook opens path read-only with the reader for format
func OpenWorkbook(path string, format domain.Format) (SpreadsheetReader, error) {
	switch format {
	case domain.FormatModern:
		return openXLSX(path)
	case domain.FormatLegacy:
		return openXLS(path)
	default:
		return nil, &UnsupportedFormatError{Path: path, Extension: string(format)}
	}
}

// ListSheets returns the sheet names of the workbook at path in workbook order
func ListSheets(path string) ([]string, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	wb, err := OpenWorkbook(path, format)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	return wb.SheetNames(), nil
}

func trimTrailingEmpty(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}

func sheetNotFound(path, sheet string) error {
	return fmt.Errorf("sheet %q not found in %s", sheet, filepath.Base(path))
}
