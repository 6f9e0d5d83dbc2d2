// Package scm wraps the git operations the workspace commands need.
package scm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wst/internal/run"
)

// RepoPath returns the repository root containing start (or the current
// directory when start is empty) by walking up until a .git directory is
// found.
func RepoPath(start string) (string, error) {
	dir := start
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s is not inside a git repository", start)
		}
		dir = parent
	}
}

// IsRepo reports whether path is inside a git repository.
func IsRepo(path string) bool {
	_, err := RepoPath(path)
	return err == nil
}

// RepoCheck errors unless the current directory is inside a product
// checkout.
func RepoCheck() (string, error) {
	repo, err := RepoPath("")
	if err != nil {
		return "", fmt.Errorf("this should be run from within a product checkout: %w", err)
	}
	return repo, nil
}

// Git performs git operations against one repository.
type Git struct {
	repo   string
	runner run.Runner
}

// New returns a Git handle for the repository at repo.
func New(repo string, runner run.Runner) *Git {
	return &Git{repo: repo, runner: runner}
}

// CurrentBranch returns the checked-out branch name.
func (g *Git) CurrentBranch() (string, error) {
	out, err := g.runner.Run([]string{"git", "rev-parse", "--abbrev-ref", "HEAD"}, run.InDir(g.repo), run.Capture())
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// CommitAll commits all modified and new files with the given message.
func (g *Git) CommitAll(msg string) error {
	if _, err := g.runner.Run([]string{"git", "add", "--all", "."}, run.InDir(g.repo), run.Silent()); err != nil {
		return err
	}
	if _, err := g.runner.Run([]string{"git", "commit", "-am", msg}, run.InDir(g.repo), run.Silent()); err != nil {
		return err
	}
	return nil
}

// Push pushes the current branch to its remote.
func (g *Git) Push() error {
	_, err := g.runner.Run([]string{"git", "push"}, run.InDir(g.repo), run.Silent())
	return err
}

// Checkout switches the repository to the given branch.
func (g *Git) Checkout(branch string) error {
	_, err := g.runner.Run([]string{"git", "checkout", branch}, run.InDir(g.repo), run.Silent())
	return err
}

// Clone checks out url into path.
func Clone(url, path string, runner run.Runner) error {
	_, err := runner.Run([]string{"git", "clone", url, path}, run.Silent())
	return err
}
