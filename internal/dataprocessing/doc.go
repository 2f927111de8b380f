// Package dataprocessing turns the published regional deaths spreadsheets into
// one tidy table.
//
// # Components
//
//   - Sheet locator: ListSheets and OpenWorkbook read .xlsx workbooks with
//     excelize and legacy .xls workbooks with xlrd-go behind the
//     SpreadsheetReader interface.
//   - Sheet selector: SheetSelector picks the sheet named "1", or the sheet
//     whose name is closest to "Figures".
//   - Normalizer: drops decorative and aggregate rows, names the month
//     columns backwards from December and melts the sheet to long form.
//   - Assembler: normalizes every file, merges them in year order and derives
//     the business month end for each observation.
//
// # Usage
//
//	asm := dataprocessing.NewAssembler(dataprocessing.AssemblerOptions{
//	    Transform: cfg.Transform,
//	    Workers:   cfg.Pipeline.Workers,
//	}, logger)
//	dataset, err := asm.Run(ctx, files, store)
//
// # Errors
//
// UnsupportedFormatError, NoMatchingSheetError, ColumnCountError and
// DateDerivationError are fatal for the run. Per-file failures are wrapped in
// FileError so callers can tell which year broke; use errors.As to inspect them.
package dataprocessing
