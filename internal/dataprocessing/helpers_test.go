package dataprocessing

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type sheetFixture struct {
	name string
	rows [][]interface{}
}

// writeWorkbook saves an xlsx file with the given sheets, in order, and returns its path
func writeWorkbook(t *testing.T, dir, filename string, sheets ...sheetFixture) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet.name))
		} else {
			_, err := f.NewSheet(sheet.name)
			require.NoError(t, err)
		}
		for r, row := range sheet.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(sheet.name, cell, &values))
		}
	}

	path := filepath.Join(dir, filename)
	require.NoError(t, f.SaveAs(path))
	return path
}

// dataSheet builds the rows of a typical data sheet: a title line, a header
// and one row per area
func dataSheet(name string, months int, areas ...[]interface{}) sheetFixture {
	header := []interface{}{"Area code", "Area name"}
	for i := 0; i < months; i++ {
		header = append(header, "m")
	}
	rows := [][]interface{}{
		{"Deaths registered by area of usual residence"},
		{},
		header,
	}
	rows = append(rows, areas...)
	rows = append(rows, []interface{}{"Source: Office for National Statistics"})
	return sheetFixture{name: name, rows: rows}
}
