// Package workspace resolves product names and paths within a workspace: a
// directory tree containing multiple product repositories as siblings.
package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"wst/internal/config"
)

// Workspace locates sibling products relative to its root directory.
type Workspace struct {
	root string
}

// New returns a Workspace rooted at dir.
func New(dir string) *Workspace {
	return &Workspace{root: dir}
}

// FromRepo returns the Workspace containing the given repository: its
// parent directory.
func FromRepo(repo string) *Workspace {
	return &Workspace{root: filepath.Dir(repo)}
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// ProductPath resolves a product name to its checkout path in the
// workspace. The path may not exist; callers check.
func (w *Workspace) ProductPath(name string) string {
	return filepath.Join(w.root, name)
}

// ProductRepos returns the checked-out product repositories in the
// workspace: immediate subdirectories that contain a .git directory.
func (w *Workspace) ProductRepos() []string {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil
	}

	var repos []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(w.root, entry.Name())
		if info, err := os.Stat(filepath.Join(path, ".git")); err == nil && info.IsDir() {
			repos = append(repos, path)
		}
	}
	return repos
}

// ProductNames returns the names of the checked-out products.
func (w *Workspace) ProductNames() []string {
	var names []string
	for _, repo := range w.ProductRepos() {
		names = append(names, filepath.Base(repo))
	}
	return names
}

// Name derives the product name from a repository path or URL. Trailing
// ".git", "_trunk", and "/trunk" suffixes are stripped.
func Name(path string) string {
	path = strings.TrimRight(path, "/")

	switch {
	case strings.HasSuffix(path, ".git"):
		path = path[:len(path)-len(".git")]
	case strings.HasSuffix(path, "_trunk"), strings.HasSuffix(path, "/trunk"):
		path = path[:len(path)-len("_trunk")]
	}

	return filepath.Base(path)
}

// ExpandProductGroups flattens configured product group names into concrete
// product names. Names that are not groups pass through unchanged. The
// result is sorted and de-duplicated.
func ExpandProductGroups(groups map[string][]string, names []string) []string {
	seen := make(map[string]bool)
	for _, name := range names {
		if members, ok := groups[name]; ok {
			for _, member := range members {
				seen[member] = true
			}
		} else {
			seen[name] = true
		}
	}

	expanded := make([]string, 0, len(seen))
	for name := range seen {
		expanded = append(expanded, name)
	}
	sort.Strings(expanded)
	return expanded
}

// EditableDependencies returns the expanded editable-dependency allow-list
// from the configuration.
func EditableDependencies(cfg config.Config) []string {
	if len(cfg.Test.EditableProductDependencies) == 0 {
		return nil
	}
	return ExpandProductGroups(cfg.ProductGroups, cfg.Test.EditableProductDependencies)
}
