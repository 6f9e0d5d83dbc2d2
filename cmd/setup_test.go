package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func newProductCheckout(t *testing.T) string {
	t.Helper()
	ws := t.TempDir()
	repo := filepath.Join(ws, "mytool")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0755))
	chdir(t, repo)
	return repo
}

func TestSetupProductScaffoldsEverything(t *testing.T) {
	repo := newProductCheckout(t)

	require.NoError(t, setupProduct())

	assert.FileExists(t, filepath.Join(repo, "tox.ini"))
	assert.FileExists(t, filepath.Join(repo, "README.rst"))
	assert.FileExists(t, filepath.Join(repo, "setup.py"))
	assert.FileExists(t, filepath.Join(repo, "requirements.txt"))
	assert.FileExists(t, filepath.Join(repo, "src", "mytool", "__init__.py"))
	assert.FileExists(t, filepath.Join(repo, "test", "test_mytool.py"))

	setupPy, err := os.ReadFile(filepath.Join(repo, "setup.py"))
	require.NoError(t, err)
	assert.Contains(t, string(setupPy), "name='mytool'")
	assert.Contains(t, string(setupPy), "README.rst")
}

func TestSetupProductKeepsExistingFiles(t *testing.T) {
	repo := newProductCheckout(t)

	require.NoError(t, os.WriteFile(filepath.Join(repo, "README.md"), []byte("# mytool"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "setup.py"), []byte("version='1.0.0'"), 0644))

	require.NoError(t, setupProduct())

	// Existing README and setup.py are untouched; no README.rst appears.
	assert.NoFileExists(t, filepath.Join(repo, "README.rst"))
	setupPy, err := os.ReadFile(filepath.Join(repo, "setup.py"))
	require.NoError(t, err)
	assert.Equal(t, "version='1.0.0'", string(setupPy))
}

func TestSetupProductAlwaysRewritesToxIni(t *testing.T) {
	repo := newProductCheckout(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "tox.ini"), []byte("[tox]\nenvlist = old\n"), 0644))

	require.NoError(t, setupProduct())

	content, err := os.ReadFile(filepath.Join(repo, "tox.ini"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "envlist = py311")
	assert.NotContains(t, string(content), "old")
}

func TestSetupOutsideCheckoutFails(t *testing.T) {
	chdir(t, t.TempDir())

	err := setupProduct()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product checkout")
}

func TestPackageName(t *testing.T) {
	assert.Equal(t, "mytool", packageName("my-tool"))
	assert.Equal(t, "mytool", packageName("my_tool2"))
	assert.Equal(t, "mytool", packageName("mytool"))
}
