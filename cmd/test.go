package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"wst/internal/config"
	"wst/internal/manifest"
	"wst/internal/run"
	"wst/internal/scm"
	"wst/internal/testenv"
	"wst/internal/workspace"
	"wst/pkg/logging"
)

type testOptions struct {
	dependencies bool
	redevelop    bool
	recreate     bool
	showOutput   bool
	matchTest    string
}

func newTestCmd() *cobra.Command {
	var opts testOptions

	cmd := &cobra.Command{
		Use:   "test [env_or_file...]",
		Short: "Run tests and manage test environments for the current product",
		Long: `Run tests and manage test environments for the current product.

Positional arguments are test environment names, or test files to pass to
py.test when they exist on disk. Without arguments, all environments
declared in the manifest are used.

An environment is redeveloped automatically when it does not exist yet, or
whenever setup.py or requirements.txt was modified after the environment
was last updated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.dependencies, "dependencies", "d", false,
		"Show where product dependencies are installed from and their versions")
	cmd.Flags().BoolVarP(&opts.redevelop, "redevelop", "r", false,
		"Redevelop the test environments by installing on top of the existing ones")
	cmd.Flags().BoolVarP(&opts.recreate, "recreate", "R", false,
		"Completely recreate the test environments by removing the existing ones first")
	cmd.Flags().BoolVarP(&opts.showOutput, "show-output", "s", false,
		"Show test output")
	cmd.Flags().StringVarP(&opts.matchTest, "match-test", "k", "",
		"Only run tests that match the given name pattern")
	cmd.MarkFlagsMutuallyExclusive("dependencies", "redevelop", "recreate")

	return cmd
}

func runTest(args []string, opts testOptions) error {
	repo, err := scm.RepoCheck()
	if err != nil {
		return err
	}

	// The active virtualenv's bin dir may get removed while environments
	// rebuild; strip it from PATH up front.
	stripVirtualEnvPath()

	envs, files := splitEnvsAndFiles(args)

	pytestArgs := buildPytestArgs(opts.showOutput, opts.matchTest, files)
	if pytestArgs != "" {
		os.Setenv("PYTESTARGS", pytestArgs)
	}

	man, err := manifest.Load(repo)
	if err != nil {
		return err
	}

	if len(envs) == 0 {
		envs = man.Envlist()
	}

	products := workspace.FromRepo(repo)
	cfg, err := config.Load(products.Root())
	if err != nil {
		return err
	}

	runner := run.New()
	mgr := testenv.New(man, products, runner, workspace.EditableDependencies(cfg))

	switch {
	case opts.dependencies:
		for _, env := range envs {
			if err := mgr.Report(env, os.Stdout); err != nil {
				logging.Error("test", err, "Cannot report dependencies for %s", env)
				return err
			}
		}
		return nil

	case opts.redevelop || opts.recreate:
		return mgr.Synchronize(envs, opts.recreate)

	default:
		return runTestEnvironments(mgr, man, repo, envs, pytestArgs, runner)
	}
}

// runTestEnvironments partitions the environments into ones usable as-is
// and ones that need a sync. The stale ones develop (and run their
// commands) through one batched tool invocation; the fresh ones run their
// manifest commands directly.
func runTestEnvironments(mgr *testenv.Manager, man *manifest.ToxIni, repo string, envs []string, pytestArgs string, runner run.Runner) error {
	var fresh, stale []string
	for _, env := range envs {
		if mgr.Stale(env) {
			stale = append(stale, env)
		} else {
			fresh = append(fresh, env)
		}
	}

	if len(stale) > 0 {
		if err := mgr.Synchronize(stale, false); err != nil {
			return err
		}
	}

	for i, env := range fresh {
		if len(envs) > 1 {
			fmt.Println(env)
		}
		if err := runEnvCommands(man, repo, env, pytestArgs, runner); err != nil {
			return err
		}
		if i < len(fresh)-1 {
			fmt.Println()
		}
	}
	return nil
}

// runEnvCommands runs the environment's manifest commands sequentially
// against its installed scripts.
func runEnvCommands(man *manifest.ToxIni, repo, env, pytestArgs string, runner run.Runner) error {
	for _, command := range man.Commands(env) {
		fullCommand := filepath.Join(man.Bindir(env), command)

		commandPath := strings.Fields(fullCommand)[0]
		if _, err := os.Stat(commandPath); err != nil {
			logging.Error("test", nil, "%s does not exist", commandPath)
			return fmt.Errorf("%s does not exist", commandPath)
		}

		if strings.Contains(fullCommand, "py.test") {
			fullCommand = strings.ReplaceAll(fullCommand, "{env:PYTESTARGS:}", pytestArgs)
		}

		activate := ". " + man.Bindir(env, "activate")
		if _, err := runner.Run([]string{activate + "; " + fullCommand}, run.Shell(), run.InDir(repo)); err != nil {
			return err
		}
	}
	return nil
}

// splitEnvsAndFiles partitions arguments into environment names and test
// files: anything that exists on disk is a file.
func splitEnvsAndFiles(args []string) (envs, files []string) {
	for _, arg := range args {
		if _, err := os.Stat(arg); err == nil {
			if abs, err := filepath.Abs(arg); err == nil {
				files = append(files, abs)
				continue
			}
		}
		envs = append(envs, arg)
	}
	return envs, files
}

// buildPytestArgs folds the output/filter flags and any test files into the
// PYTESTARGS value substituted into py.test commands.
func buildPytestArgs(showOutput bool, matchTest string, files []string) string {
	var parts []string
	if showOutput {
		parts = append(parts, "-s")
	}
	if matchTest != "" {
		parts = append(parts, "-k "+matchTest)
	}
	parts = append(parts, files...)
	return strings.Join(parts, " ")
}

// stripVirtualEnvPath removes the active virtualenv's directories from
// PATH, along with any PATH entries that no longer exist.
func stripVirtualEnvPath() {
	venv := os.Getenv("VIRTUAL_ENV")
	if venv == "" {
		return
	}

	var kept []string
	for _, p := range filepath.SplitList(os.Getenv("PATH")) {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if strings.HasPrefix(p, venv) {
			continue
		}
		kept = append(kept, p)
	}
	os.Setenv("PATH", strings.Join(kept, string(os.PathListSeparator)))
}
