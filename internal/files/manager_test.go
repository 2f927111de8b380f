package files

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deaths_data.parquet")
	m := NewManager(quietLogger())

	err := m.WriteAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "first")
		return err
	})
	require.NoError(t, err)
	assert.True(t, m.FileExists(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	// a failed write leaves the previous content in place
	err = m.WriteAtomic(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "2020.xlsx")
	m := NewManager(quietLogger())

	assert.True(t, m.FileExists(filepath.Join(dir, "2020.xlsx")))
	assert.False(t, m.FileExists(filepath.Join(dir, "2021.xlsx")))
	assert.False(t, m.FileExists(dir))
}

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "stale.tmp")
	m := NewManager(quietLogger())

	require.NoError(t, m.RemoveIfExists(filepath.Join(dir, "stale.tmp")))
	require.NoError(t, m.RemoveIfExists(filepath.Join(dir, "stale.tmp")))
	assert.False(t, m.FileExists(filepath.Join(dir, "stale.tmp")))
}
