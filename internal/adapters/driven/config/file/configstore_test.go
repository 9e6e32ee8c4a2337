package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[searchers.chainalysis]
name = "Chainalysis"
hint = "Enter one or more cryptocurrency addresses"
enabled = true

[searchers.chainalysis.settings]
api_key = "test-key"

[searchers.grid]
name = "Grid"
enabled = false

[searchers.littlesis]
name = "LittleSis"
enabled = true
redirect = "http://littlesis.example.com"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "searchers.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNewSearcherConfigStore_MissingFileIsEmpty(t *testing.T) {
	store, err := NewSearcherConfigStore(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Empty(t, store.Enabled())
}

func TestSearcherConfigStore_Lookup(t *testing.T) {
	store, err := NewSearcherConfigStore(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	cfg, ok := store.Lookup("chainalysis")
	require.True(t, ok)
	assert.Equal(t, "chainalysis", cfg.ID)
	assert.Equal(t, "Chainalysis", cfg.Name)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "test-key", cfg.Settings["api_key"])

	cfg, ok = store.Lookup("grid")
	require.True(t, ok)
	assert.False(t, cfg.Enabled)

	_, ok = store.Lookup("unknown")
	assert.False(t, ok)
}

func TestSearcherConfigStore_LookupRedirect(t *testing.T) {
	store, err := NewSearcherConfigStore(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	cfg, ok := store.Lookup("littlesis")
	require.True(t, ok)
	assert.Equal(t, "http://littlesis.example.com", cfg.Redirect)
}

func TestSearcherConfigStore_EnabledSorted(t *testing.T) {
	store, err := NewSearcherConfigStore(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	enabled := store.Enabled()
	require.Len(t, enabled, 2)
	assert.Equal(t, "chainalysis", enabled[0].ID)
	assert.Equal(t, "littlesis", enabled[1].ID)
}

func TestSearcherConfigStore_InvalidToml(t *testing.T) {
	_, err := NewSearcherConfigStore(writeConfig(t, "[searchers.broken\nenabled ="))
	require.Error(t, err)
}

func TestSearcherConfigStore_Reload(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	store, err := NewSearcherConfigStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Watch())
	defer store.Close()

	updated := sampleConfig + `
[searchers.shodan]
name = "Shodan"
enabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0600))

	assert.Eventually(t, func() bool {
		_, ok := store.Lookup("shodan")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSearcherConfigStore_BadEditKeepsSnapshot(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	store, err := NewSearcherConfigStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Watch())
	defer store.Close()

	require.NoError(t, os.WriteFile(path, []byte("[searchers.broken\n"), 0600))

	// The previous snapshot stays live.
	time.Sleep(100 * time.Millisecond)
	_, ok := store.Lookup("chainalysis")
	assert.True(t, ok)
}
