package testenv

import (
	"fmt"
	"sort"
	"strings"

	"wst/internal/run"
	"wst/pkg/logging"
)

// LinkEditable re-installs, in editable mode, the sibling products that are
// simultaneously in the configured allow-list, declared as runtime
// dependencies of the product, and checked out in the workspace.
//
// An empty allow-list is the common case and short-circuits before any
// subprocess is spawned. Declared dependencies are read from the
// environment's installed metadata, not from source files, so the set
// reflects what the installer actually resolved.
//
// Each matching product is uninstalled first and then installed from its
// sibling checkout: some installers silently skip reinstalling an
// already-satisfied non-editable requirement. A failure on one product is
// logged and the loop continues with the rest.
func (m *Manager) LinkEditable(env string, configured []string) error {
	if len(configured) == 0 {
		return nil
	}

	declared, err := m.declaredDependencies(env)
	if err != nil {
		return err
	}

	libs := linkSet(configured, m.products.ProductNames(), declared)
	pip := m.manifest.Bindir(env, "pip")

	for _, lib := range libs {
		logging.Info("testenv", "Installing %s in editable mode", lib)

		if _, err := m.runner.Run([]string{pip, "uninstall", lib, "-y"}, run.Silent()); err != nil {
			// The non-editable copy may not be installed; nothing to undo.
			logging.Debug("testenv", "Uninstall of %s: %v", lib, err)
		}

		path := m.products.ProductPath(lib)
		if _, err := m.runner.Run([]string{pip, "install", "--editable", path}, run.Silent()); err != nil {
			logging.Error("testenv", err, "An error occurred when installing %s in editable mode", lib)
			continue
		}
	}

	return nil
}

// linkSet computes the intersection of the configured allow-list, the
// available sibling products, and the declared dependency names. The
// result is sorted; the iteration order of the inputs does not matter.
func linkSet(configured, available, declared []string) []string {
	availableSet := toSet(available)
	declaredSet := toSet(declared)

	seen := make(map[string]bool)
	var libs []string
	for _, name := range configured {
		if seen[name] {
			continue
		}
		seen[name] = true
		if availableSet[name] && declaredSet[name] {
			libs = append(libs, name)
		}
	}
	sort.Strings(libs)
	return libs
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

// declaredDependencies introspects the environment's installed package
// metadata for the product's declared runtime dependency names.
func (m *Manager) declaredDependencies(env string) ([]string, error) {
	name := m.ProductName()
	python := m.manifest.Bindir(env, "python")

	script := fmt.Sprintf(
		"import pkg_resources; print(' '.join(sorted(set(r.key for r in pkg_resources.get_distribution('%s').requires()))))",
		name)

	out, err := m.runner.Run([]string{python, "-c", script}, run.Capture())
	if err != nil {
		return nil, fmt.Errorf("failed to introspect dependencies of %s in %s: %w", name, env, err)
	}
	return strings.Fields(out), nil
}
