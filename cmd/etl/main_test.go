package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/aeturrell/deploy-api/internal/exporter"
)

// writeSource saves a minimal yearly workbook with a title, a header and one area
func writeSource(t *testing.T, path string, sheets ...string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"Monthly deaths by area of usual residence"},
		{"Area code", "Area name", "Nov", "Dec"},
		{"E06000047", "County Durham", 100, 110},
		{"Source: Office for National Statistics"},
	}

	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheets[0]))
	for _, name := range sheets[1:] {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow(sheets[len(sheets)-1], cell, &values))
	}

	require.NoError(t, f.SaveAs(path))
}

// writeConfig points the pipeline at dir and keeps telemetry quiet
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	content := fmt.Sprintf(`pipeline:
  downloads_location: %q
  name_of_data_file: deaths_data.parquet
logging:
  level: error
  output: console
telemetry:
  metric_exporter: none
  trace_exporter: none
`, dir)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"extract", "transform", "run", "sheets"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("csv"))
}

func TestTransformCmd(t *testing.T) {
	downloads := t.TempDir()
	writeSource(t, filepath.Join(downloads, "2020.xlsx"), "Contents", "Figures 1")
	configPath := writeConfig(t, downloads)
	csvPath := filepath.Join(t.TempDir(), "deaths.csv")

	out, err := execute(t, "transform", "--config", configPath, "--csv", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 2 observations")

	dataset, err := exporter.NewParquetStore(filepath.Join(downloads, "deaths_data.parquet"), nil).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, dataset.Len())
	assert.Equal(t, "november", dataset.Observations[0].Month)
	assert.Equal(t, "county durham", dataset.Observations[0].PlaceName)

	csv, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(csv), "E06000047")
}

func TestTransformCmd_NoFiles(t *testing.T) {
	configPath := writeConfig(t, t.TempDir())

	_, err := execute(t, "transform", "--config", configPath)

	require.Error(t, err)
}

func TestSheetsCmd(t *testing.T) {
	downloads := t.TempDir()
	path := filepath.Join(downloads, "2020.xlsx")
	writeSource(t, path, "Contents", "Figures 1")

	out, err := execute(t, "sheets", "--config", writeConfig(t, downloads), path)

	require.NoError(t, err)
	assert.Contains(t, out, "sheets: Contents, Figures 1")
	assert.Contains(t, out, "selected: Figures 1")
}

func TestSheetsCmd_MissingFile(t *testing.T) {
	_, err := execute(t, "sheets", filepath.Join(t.TempDir(), "nope.xlsx"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}
