package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteJSONAtomic_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	require.NoError(t, WriteJSONAtomic(path, sample{Name: "a", Count: 1}))

	var out sample
	require.NoError(t, ReadJSON(path, &out))
	assert.Equal(t, sample{Name: "a", Count: 1}, out)
}

func TestWriteJSONAtomic_BacksUpPreviousVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	require.NoError(t, WriteJSONAtomic(path, sample{Name: "first"}))
	require.NoError(t, WriteJSONAtomic(path, sample{Name: "second"}))

	var backup sample
	require.NoError(t, ReadJSON(path+".bak", &backup))
	assert.Equal(t, "first", backup.Name)

	var current sample
	require.NoError(t, ReadJSON(path, &current))
	assert.Equal(t, "second", current.Name)
}

func TestReadJSON_MissingFileIsIsNotExist(t *testing.T) {
	err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &sample{})
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestReadJSON_CorruptFileReportsRemediation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, WriteJSONAtomic(path, sample{Name: "ok"}))

	corruptPath := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corruptPath, []byte("{not json"), 0o644))

	var out sample
	err := ReadJSON(corruptPath, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is corrupt")
	assert.Contains(t, err.Error(), "remediation")
}
