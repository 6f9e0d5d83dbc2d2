// Package testenv manages the lifecycle of a product's isolated test
// environments: deciding when an environment is stale, rebuilding batches
// of environments through the underlying build tool, cleaning up generated
// entry scripts, keeping editable installs of sibling products in sync,
// and reporting where dependencies are installed from.
package testenv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wst/internal/manifest"
	"wst/internal/run"
	"wst/internal/workspace"
	"wst/pkg/logging"
)

const (
	setupFile        = "setup.py"
	requirementsFile = "requirements.txt"
)

// ErrEnvironmentNotInstalled indicates an environment's interpreter is
// absent, i.e. the environment has never been built.
var ErrEnvironmentNotInstalled = errors.New("environment is not installed")

// SyncError reports a failed batch synchronization. The whole batch fails
// as one unit; there is no per-environment bookkeeping.
type SyncError struct {
	Environments []string
	Err          error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("failed to synchronize environment(s) %s: %v", strings.Join(e.Environments, ", "), e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Manager coordinates environment lifecycle operations for one repository.
type Manager struct {
	manifest *manifest.ToxIni
	products *workspace.Workspace
	runner   run.Runner

	// editable is the expanded allow-list of sibling products eligible for
	// editable installs after a synchronization.
	editable []string
}

// New returns a Manager for the repository described by man. The editable
// list holds concrete product names (groups already expanded).
func New(man *manifest.ToxIni, products *workspace.Workspace, runner run.Runner, editable []string) *Manager {
	return &Manager{
		manifest: man,
		products: products,
		runner:   runner,
		editable: editable,
	}
}

// ProductName returns the name of the product the manager operates on.
func (m *Manager) ProductName() string {
	return workspace.Name(m.manifest.Repo())
}

// Stale reports whether the environment's install is missing or outdated
// relative to the repository's dependency declaration files. A missing
// environment root is always stale. Otherwise the environment is stale iff
// setup.py or requirements.txt is strictly newer than the root.
//
// Only those two files are considered; a changed lockfile or tox.ini does
// not trigger a rebuild. The narrow detection is deliberate: it avoids
// rebuilding environments that are still usable.
func (m *Manager) Stale(env string) bool {
	root, err := os.Stat(m.manifest.Envdir(env))
	if err != nil {
		return true
	}

	newest, found := m.declarationMtime()
	if !found {
		return false
	}
	return newest.After(root.ModTime())
}

// declarationMtime returns the most recent modification time among the
// dependency declaration files that exist.
func (m *Manager) declarationMtime() (time.Time, bool) {
	var newest time.Time
	var found bool
	for _, name := range []string{setupFile, requirementsFile} {
		info, err := os.Stat(filepath.Join(m.manifest.Repo(), name))
		if err != nil {
			continue
		}
		if !found || info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		found = true
	}
	return newest, found
}

// Synchronize creates or refreshes the given environments with a single
// invocation of the environment build tool, scoped to the manifest and the
// comma-joined environment names. recreate destroys the environment roots
// and rebuilds from scratch; otherwise the tool reinstalls on top of the
// existing roots, which is cheaper but can leave removed dependencies
// behind.
//
// After a successful build, every environment gets its entry scripts
// normalized and its editable dependencies re-linked, in that order: the
// linker's reinstalls can regenerate version-pinned scripts, so
// normalization must see the pre-link state.
func (m *Manager) Synchronize(envs []string, recreate bool) error {
	args := []string{"tox", "-c", m.manifest.Path()}
	if len(envs) > 0 {
		args = append(args, "-e", strings.Join(envs, ","))
	}
	if recreate {
		args = append(args, "-r")
	}

	if _, err := m.runner.Run(args, run.InDir(m.manifest.Repo())); err != nil {
		return &SyncError{Environments: envs, Err: err}
	}

	for _, env := range envs {
		stripped, err := m.NormalizeEntryScripts(env)
		if err != nil {
			logging.Error("testenv", err, "Failed to normalize entry scripts for %s", env)
		} else if len(stripped) > 0 {
			logging.Debug("testenv", "Removed version spec from entry script(s): %s", strings.Join(stripped, ", "))
		}

		if err := m.LinkEditable(env, m.editable); err != nil {
			return err
		}
	}

	return nil
}
