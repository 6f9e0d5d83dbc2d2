package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleToxIni = `[tox]
envlist = py311, style

[testenv]
commands =
    py.test {env:PYTESTARGS:}
install_command = pip install -U {packages}
usedevelop = True

[testenv:style]
commands =
    flake8 src test
deps =
    flake8

[testenv:py27]
envdir = {toxworkdir}/mytool
basepython = python2.7
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, ManifestFileName), []byte(content), 0644))
	return repo
}

func TestLoadMissingManifest(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrManifestMissing)
}

func TestEnvlist(t *testing.T) {
	repo := writeManifest(t, sampleToxIni)
	tox, err := Load(repo)
	require.NoError(t, err)

	assert.Equal(t, []string{"py311", "style"}, tox.Envlist())
}

func TestCommandsInheritTestenvDefaults(t *testing.T) {
	repo := writeManifest(t, sampleToxIni)
	tox, err := Load(repo)
	require.NoError(t, err)

	assert.Equal(t, []string{"py.test {env:PYTESTARGS:}"}, tox.Commands("py311"))
}

func TestCommandsPerEnvironmentOverride(t *testing.T) {
	repo := writeManifest(t, sampleToxIni)
	tox, err := Load(repo)
	require.NoError(t, err)

	assert.Equal(t, []string{"flake8 src test"}, tox.Commands("style"))
}

func TestEnvdirDefault(t *testing.T) {
	repo := writeManifest(t, sampleToxIni)
	tox, err := Load(repo)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(repo, ".tox", "py311"), tox.Envdir("py311"))
}

func TestEnvdirCustomWithWorkdirSubstitution(t *testing.T) {
	repo := writeManifest(t, sampleToxIni)
	tox, err := Load(repo)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(repo, ".tox", "mytool"), tox.Envdir("py27"))
}

func TestBindir(t *testing.T) {
	repo := writeManifest(t, sampleToxIni)
	tox, err := Load(repo)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(repo, ".tox", "py311", "bin"), tox.Bindir("py311"))
	assert.Equal(t, filepath.Join(repo, ".tox", "py311", "bin", "python"), tox.Bindir("py311", "python"))
}

func TestEnvlistNewlineSeparated(t *testing.T) {
	repo := writeManifest(t, "[tox]\nenvlist =\n    py311\n    style\n")
	tox, err := Load(repo)
	require.NoError(t, err)

	assert.Equal(t, []string{"py311", "style"}, tox.Envlist())
}
