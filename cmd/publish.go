package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"wst/internal/run"
	"wst/internal/scm"
	"wst/pkg/logging"
)

var versionAssignmentRe = regexp.MustCompile(`version\s*=\s*(['"])([^'"]+)['"]`)

func newPublishCmd() *cobra.Command {
	var minor, major bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Bump version in setup.py, build a source distribution, and upload it",
		Long: `Bumps the version in setup.py (defaults to patch), commits and pushes the
bump, builds a source distribution, and uploads it with twine.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(minor, major)
		},
	}

	cmd.Flags().BoolVar(&minor, "minor", false, "Perform a minor publish by bumping the minor version")
	cmd.Flags().BoolVar(&major, "major", false, "Perform a major publish by bumping the major version")
	cmd.MarkFlagsMutuallyExclusive("minor", "major")

	return cmd
}

func runPublish(minor, major bool) error {
	repo, err := scm.RepoCheck()
	if err != nil {
		return err
	}
	runner := run.New()

	if _, err := runner.Run([]string{"rm -rf dist/*"}, run.Shell(), run.Silent(), run.InDir(repo)); err != nil {
		return err
	}

	newVersion, err := bumpVersion(repo, minor, major)
	if err != nil {
		return err
	}

	git := scm.New(repo, runner)
	if err := git.CommitAll("Publish version " + newVersion); err != nil {
		return err
	}
	if err := git.Push(); err != nil {
		return err
	}

	logging.Info("publish", "Building source distribution")
	if _, err := runner.Run([]string{"python", "setup.py", "sdist"}, run.Silent(), run.InDir(repo)); err != nil {
		return err
	}

	logging.Info("publish", "Uploading")
	if _, err := runner.Run([]string{"twine upload dist/*"}, run.Shell(), run.Silent(), run.InDir(repo)); err != nil {
		return err
	}

	return nil
}

// bumpVersion increments the version assignment in the repository's
// setup.py (patch unless minor/major is requested) and returns the new
// version string.
func bumpVersion(repo string, minor, major bool) (string, error) {
	setupPath := filepath.Join(repo, "setup.py")
	content, err := os.ReadFile(setupPath)
	if err != nil {
		return "", fmt.Errorf("%s does not exist: %w", setupPath, err)
	}

	match := versionAssignmentRe.FindSubmatch(content)
	if match == nil {
		return "", fmt.Errorf(`failed to find "version=" in %s to bump version`, setupPath)
	}

	current, err := semver.NewVersion(string(match[2]))
	if err != nil {
		return "", fmt.Errorf("cannot parse version %q in %s: %w", match[2], setupPath, err)
	}

	var bumped semver.Version
	switch {
	case major:
		bumped = current.IncMajor()
	case minor:
		bumped = current.IncMinor()
	default:
		bumped = current.IncPatch()
	}

	quote := string(match[1])
	newContent := versionAssignmentRe.ReplaceAll(content, []byte("version="+quote+bumped.String()+quote))

	info, err := os.Stat(setupPath)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(setupPath, newContent, info.Mode().Perm()); err != nil {
		return "", err
	}

	return bumped.String(), nil
}
