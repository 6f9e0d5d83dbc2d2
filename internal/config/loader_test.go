package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// mockUserConfig points the user config lookup at a temp file for the
// duration of one test.
func mockUserConfig(t *testing.T, path string) {
	t.Helper()
	original := getUserConfigPath
	getUserConfigPath = func() (string, error) { return path, nil }
	t.Cleanup(func() { getUserConfigPath = original })
}

func TestLoadDefaultsWhenNothingExists(t *testing.T) {
	mockUserConfig(t, filepath.Join(t.TempDir(), "config.yaml"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadUserConfig(t *testing.T) {
	userPath := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, userPath, `
test:
  editableProductDependencies:
    - libA
productGroups:
  acme:
    - libA
    - libB
`)
	mockUserConfig(t, userPath)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"libA"}, cfg.Test.EditableProductDependencies)
	assert.Equal(t, []string{"libA", "libB"}, cfg.ProductGroups["acme"])
}

func TestLoadWorkspaceOverridesUser(t *testing.T) {
	userPath := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, userPath, `
test:
  editableProductDependencies:
    - libA
productGroups:
  acme:
    - libA
`)
	mockUserConfig(t, userPath)

	workspaceRoot := t.TempDir()
	writeConfig(t, filepath.Join(workspaceRoot, ".wst", "config.yaml"), `
test:
  editableProductDependencies:
    - libB
productGroups:
  internal:
    - libC
`)

	cfg, err := Load(workspaceRoot)
	require.NoError(t, err)

	// The workspace layer replaces the editable list outright.
	assert.Equal(t, []string{"libB"}, cfg.Test.EditableProductDependencies)
	// Product groups merge by name rather than replacing the whole map.
	assert.Equal(t, []string{"libA"}, cfg.ProductGroups["acme"])
	assert.Equal(t, []string{"libC"}, cfg.ProductGroups["internal"])
}

func TestLoadMalformedWorkspaceConfigFails(t *testing.T) {
	mockUserConfig(t, filepath.Join(t.TempDir(), "config.yaml"))

	workspaceRoot := t.TempDir()
	writeConfig(t, filepath.Join(workspaceRoot, ".wst", "config.yaml"), "test: [not: a: mapping\n")

	_, err := Load(workspaceRoot)
	assert.Error(t, err)
}

func TestGetUserConfigDir(t *testing.T) {
	original := osUserHomeDir
	osUserHomeDir = func() (string, error) { return "/home/dev", nil }
	t.Cleanup(func() { osUserHomeDir = original })

	dir, err := GetUserConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/dev", ".config", "wst"), dir)
}
