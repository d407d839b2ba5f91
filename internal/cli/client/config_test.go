package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	origDir := getConfigDirFunc
	origPath := getConfigPathFunc
	getConfigDirFunc = func() (string, error) { return dir, nil }
	getConfigPathFunc = func() (string, error) { return filepath.Join(dir, "config.json"), nil }
	t.Cleanup(func() {
		getConfigDirFunc = origDir
		getConfigPathFunc = origPath
	})

	return dir
}

func TestGlobalConfig_RoundTrip(t *testing.T) {
	withTempConfigDir(t)

	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: "http://mechanic.internal:8080"}))

	loaded, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "http://mechanic.internal:8080", loaded.APIURL)
}

func TestLoadGlobalConfig_MissingFileIsNotAnError(t *testing.T) {
	withTempConfigDir(t)

	loaded, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSaveGlobalConfig_NilConfig(t *testing.T) {
	withTempConfigDir(t)

	assert.Error(t, SaveGlobalConfig(nil))
}
