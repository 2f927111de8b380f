package dataprocessing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSourceFiles is returned when an assembly is asked to run over nothing
	ErrNoSourceFiles = errors.New("no source files to assemble")

	// ErrEmptyDataset is returned when every file normalized to zero observations
	ErrEmptyDataset = errors.New("assembled dataset is empty")

	// ErrNoDataRegion is returned when every row of the data sheet is blank or nearly blank
	ErrNoDataRegion = errors.New("data sheet has no header row")
)

// UnsupportedFormatError reports a file whose extension is neither .xls nor .xlsx
type UnsupportedFormatError struct {
	Path      string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Extension == "" {
		return fmt.Sprintf("unsupported spreadsheet format for %s: no file extension", e.Path)
	}
	return fmt.Sprintf("unsupported spreadsheet format %q for %s", e.Extension, e.Path)
}

// NoMatchingSheetError reports that no sheet name resembles the data sheet
type NoMatchingSheetError struct {
	Target     string
	Candidates []string
}

func (e *NoMatchingSheetError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("no sheet matching %q: workbook has no sheets", e.Target)
	}
	return fmt.Sprintf("no sheet matching %q among [%s]", e.Target, strings.Join(e.Candidates, ", "))
}

// DateDerivationError reports a year and month label that do not form a calendar month
type DateDerivationError struct {
	Year  int
	Month string
	Err   error
}

func (e *DateDerivationError) Error() string {
	return fmt.Sprintf("cannot derive date from %d-%s: %v", e.Year, e.Month, e.Err)
}

func (e *DateDerivationError) Unwrap() error {
	return e.Err
}

// ColumnCountError reports a sheet whose number of month columns is outside the accepted range
type ColumnCountError struct {
	Columns int
	Max     int
}

func (e *ColumnCountError) Error() string {
	return fmt.Sprintf("sheet has %d month columns, expected between 1 and %d", e.Columns, e.Max)
}

// FileError ties a failure to the source file being processed
type FileError struct {
	Year int
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to process %d source file %s: %v", e.Year, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
