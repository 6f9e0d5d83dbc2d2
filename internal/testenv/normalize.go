package testenv

import (
	"os"
	"path/filepath"
	"regexp"
)

// NormalizeEntryScripts strips version-pinned self-references (e.g.
// "mytool==1.2.3") from the generated entry scripts in the environment's
// script directory, replacing them with the bare product name. Pinned
// references would force an environment refresh on every version bump.
//
// Returns the names of the scripts that were rewritten. Scripts without a
// match are left byte-for-byte untouched, so running normalization again
// is a no-op. A missing script directory is not an error; the result is
// simply empty.
func (m *Manager) NormalizeEntryScripts(env string) ([]string, error) {
	bin := m.manifest.Bindir(env)

	entries, err := os.ReadDir(bin)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	name := m.ProductName()
	nameVersionRe := regexp.MustCompile(regexp.QuoteMeta(name) + `==[0-9.]+`)

	var stripped []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(bin, entry.Name())

		script, err := os.ReadFile(path)
		if err != nil {
			return stripped, err
		}
		if !nameVersionRe.Match(script) {
			continue
		}

		newScript := nameVersionRe.ReplaceAll(script, []byte(name))
		info, err := entry.Info()
		if err != nil {
			return stripped, err
		}
		if err := os.WriteFile(path, newScript, info.Mode().Perm()); err != nil {
			return stripped, err
		}
		stripped = append(stripped, entry.Name())
	}

	return stripped, nil
}
