package noaa

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_RoundTrip(t *testing.T) {
	c := NewCache(t.TempDir())

	require.NoError(t, c.Save(stationID, "raw dly text"))

	text, ok, err := c.Load(stationID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "raw dly text", text)
}

func TestCache_LoadMissing(t *testing.T) {
	c := NewCache(t.TempDir())

	_, ok, err := c.Load(stationID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_SaveReplacesPreviousCopy(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir)

	require.NoError(t, c.Save(stationID, "first"))
	require.NoError(t, c.Save(stationID, "second"))

	text, ok, err := c.Load(stationID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", text)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, stationID+".dly", entries[0].Name())
}

func TestCache_SaveCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	c := NewCache(dir)

	require.NoError(t, c.Save(stationID, "content"))

	_, ok, err := c.Load(stationID)
	require.NoError(t, err)
	assert.True(t, ok)
}
