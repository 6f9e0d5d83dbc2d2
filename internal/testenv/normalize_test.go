package testenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMissingBindirIsBenign(t *testing.T) {
	man, ws := newTestRepo(t)
	mgr := New(man, ws, &fakeRunner{}, nil)

	stripped, err := mgr.NormalizeEntryScripts("py311")
	require.NoError(t, err)
	assert.Empty(t, stripped)
}

func TestNormalizeStripsVersionPinnedSelfReference(t *testing.T) {
	man, ws := newTestRepo(t)
	mgr := New(man, ws, &fakeRunner{}, nil)

	bindir := man.Bindir("py311")
	require.NoError(t, os.MkdirAll(bindir, 0755))

	pinned := filepath.Join(bindir, "mytool")
	require.NoError(t, os.WriteFile(pinned, []byte("mytool==1.4.2 --flag"), 0755))
	other := filepath.Join(bindir, "othertool")
	require.NoError(t, os.WriteFile(other, []byte("othertool --flag"), 0755))

	stripped, err := mgr.NormalizeEntryScripts("py311")
	require.NoError(t, err)
	assert.Equal(t, []string{"mytool"}, stripped)

	content, err := os.ReadFile(pinned)
	require.NoError(t, err)
	assert.Equal(t, "mytool --flag", string(content))

	// Scripts without a match stay byte-for-byte identical.
	content, err = os.ReadFile(other)
	require.NoError(t, err)
	assert.Equal(t, "othertool --flag", string(content))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	man, ws := newTestRepo(t)
	mgr := New(man, ws, &fakeRunner{}, nil)

	bindir := man.Bindir("py311")
	require.NoError(t, os.MkdirAll(bindir, 0755))
	script := filepath.Join(bindir, "mytool")
	require.NoError(t, os.WriteFile(script, []byte("load_entry_point('mytool==2.3.10')"), 0755))

	stripped, err := mgr.NormalizeEntryScripts("py311")
	require.NoError(t, err)
	assert.Equal(t, []string{"mytool"}, stripped)

	first, err := os.ReadFile(script)
	require.NoError(t, err)
	assert.Equal(t, "load_entry_point('mytool')", string(first))

	// Second pass touches nothing.
	stripped, err = mgr.NormalizeEntryScripts("py311")
	require.NoError(t, err)
	assert.Empty(t, stripped)

	second, err := os.ReadFile(script)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalizePreservesExecutableMode(t *testing.T) {
	man, ws := newTestRepo(t)
	mgr := New(man, ws, &fakeRunner{}, nil)

	bindir := man.Bindir("py311")
	require.NoError(t, os.MkdirAll(bindir, 0755))
	script := filepath.Join(bindir, "mytool")
	require.NoError(t, os.WriteFile(script, []byte("mytool==0.1.0"), 0755))

	_, err := mgr.NormalizeEntryScripts("py311")
	require.NoError(t, err)

	info, err := os.Stat(script)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}
