package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeturrell/deploy-api/internal/shared/testutil"
	"github.com/aeturrell/deploy-api/pkg/contracts/domain"
)

func newValidator(t *testing.T) *FileValidator {
	logger, _ := testutil.NewTestLogger(t)
	return NewFileValidator(logger)
}

func write(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestFileValidator_ValidateDirectory(t *testing.T) {
	dir := t.TempDir()
	file := write(t, dir, "a.txt", []byte("x"))
	v := newValidator(t)

	assert.NoError(t, v.ValidateDirectory(dir))

	err := v.ValidateDirectory(filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	err = v.ValidateDirectory(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestFileValidator_ValidateSpreadsheet(t *testing.T) {
	dir := t.TempDir()
	xlsx := append([]byte{'P', 'K', 0x03, 0x04}, []byte("rest of archive")...)
	xls := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 16)...)

	tests := []struct {
		name          string
		file          string
		content       []byte
		errorContains string
	}{
		{name: "xlsx archive", file: "2020.xlsx", content: xlsx},
		{name: "xls compound document", file: "2015.xls", content: xls},
		{name: "html saved as xlsx", file: "2021.xlsx", content: []byte("<!DOCTYPE html><html>"), errorContains: "HTML or XML"},
		{name: "zip saved as xls", file: "2016.xls", content: xlsx, errorContains: "a zip archive"},
		{name: "empty file", file: "2017.xlsx", content: nil, errorContains: "an empty file"},
		{name: "wrong extension", file: "2018.csv", content: []byte("a,b"), errorContains: "not an Excel file"},
		{name: "temporary file", file: "~$2019.xlsx", content: xlsx, errorContains: "temporary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, dir, tt.file, tt.content)

			err := newValidator(t).ValidateSpreadsheet(path)

			if tt.errorContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestFileValidator_ValidateSpreadsheet_Missing(t *testing.T) {
	err := newValidator(t).ValidateSpreadsheet(filepath.Join(t.TempDir(), "2020.xlsx"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestFileValidator_ValidateSourceFiles(t *testing.T) {
	dir := t.TempDir()
	good := write(t, dir, "2020.xlsx", []byte{'P', 'K', 0x03, 0x04, 0x00})
	bad := write(t, dir, "2021.xlsx", []byte("<html>"))
	v := newValidator(t)

	assert.NoError(t, v.ValidateSourceFiles(nil))
	assert.NoError(t, v.ValidateSourceFiles([]domain.SourceFile{
		{Year: 2020, Format: domain.FormatModern, Path: good},
	}))

	err := v.ValidateSourceFiles([]domain.SourceFile{
		{Year: 2020, Format: domain.FormatModern, Path: good},
		{Year: 2021, Format: domain.FormatModern, Path: bad},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2021.xlsx")
}
