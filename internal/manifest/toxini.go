// Package manifest exposes a structured view of a repository's tox.ini:
// the declared test environments, the commands each one runs, and the
// filesystem layout of the per-environment installs.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// ManifestFileName is the environment manifest file within a repository.
const ManifestFileName = "tox.ini"

// ErrManifestMissing indicates the repository has no environment manifest.
var ErrManifestMissing = errors.New("environment manifest not found")

// ToxIni is a read-only view of a repository's environment manifest.
type ToxIni struct {
	repo string
	path string
	file *ini.File
}

// Load parses the manifest in the given repository.
func Load(repo string) (*ToxIni, error) {
	path := filepath.Join(repo, ManifestFileName)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrManifestMissing, path)
	}

	// tox.ini is Python-style ini: values continue on indented lines.
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowPythonMultilineValues: true,
		SpaceBeforeInlineComment:   true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &ToxIni{repo: repo, path: path, file: file}, nil
}

// Repo returns the repository root the manifest belongs to.
func (t *ToxIni) Repo() string {
	return t.repo
}

// Path returns the manifest file path.
func (t *ToxIni) Path() string {
	return t.path
}

// Envlist returns the declared environment names in manifest order.
func (t *ToxIni) Envlist() []string {
	value := t.file.Section("tox").Key("envlist").String()
	return splitList(value)
}

// Commands returns the ordered shell commands the environment runs. An
// environment without its own commands inherits the [testenv] defaults.
func (t *ToxIni) Commands(env string) []string {
	section := t.file.Section("testenv:" + env)
	value := section.Key("commands").String()
	if value == "" {
		value = t.file.Section("testenv").Key("commands").String()
	}

	var commands []string
	for _, line := range strings.Split(value, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			commands = append(commands, line)
		}
	}
	return commands
}

// Envdir returns the root directory of the environment's isolated install.
// The directory is owned by the environment build tool; it may not exist
// yet.
func (t *ToxIni) Envdir(env string) string {
	workdir := filepath.Join(t.repo, ".tox")

	value := t.file.Section("testenv:" + env).Key("envdir").String()
	if value == "" {
		return filepath.Join(workdir, env)
	}
	value = strings.ReplaceAll(value, "{toxworkdir}", workdir)
	if !filepath.IsAbs(value) {
		value = filepath.Join(t.repo, value)
	}
	return filepath.Clean(value)
}

// Bindir returns the environment's executable-script directory, or the
// path of a named executable inside it.
func (t *ToxIni) Bindir(env string, executable ...string) string {
	bin := filepath.Join(t.Envdir(env), "bin")
	if len(executable) > 0 {
		return filepath.Join(bin, executable[0])
	}
	return bin
}

func splitList(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	var names []string
	for _, field := range fields {
		if field != "" {
			names = append(names, field)
		}
	}
	return names
}
