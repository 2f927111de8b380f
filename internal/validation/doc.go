// Package validation checks files on disk before the pipeline reads them.
//
// FileValidator.ValidateSpreadsheet sniffs the leading bytes of a workbook so
// that a download which is not really a spreadsheet is reported by name.
package validation
