package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/spf13/cobra"

	"wst/internal/scm"
	"wst/internal/workspace"
	"wst/pkg/logging"
)

var toxIniTmpl = strings.TrimLeft(dedent.Dedent(`
	[tox]
	envlist = py311

	[testenv]
	commands =
	    py.test {env:PYTESTARGS:}
	install_command = pip install -U {packages}
	recreate = False
	skipsdist = True
	usedevelop = True

	[testenv:py311]
	deps =
	    pytest
	    pytest-xdist
	basepython = python3.11

	[testenv:style]
	commands =
	    flake8 src test
	deps =
	    flake8

	[testenv:coverage]
	commands =
	    py.test {env:PYTESTARGS:} --cov=src --cov-report=term test
	deps =
	    {[testenv:py311]deps}
	    pytest-cov
	`), "\n")

var setupPyTmpl = strings.TrimLeft(dedent.Dedent(`
	#!/usr/bin/env python

	import setuptools


	setuptools.setup(
	  name='%s',
	  version='0.0.1',

	  author='<PLACEHOLDER>',
	  author_email='<PLACEHOLDER>',

	  description='<PLACEHOLDER>',
	  long_description=open('%s').read(),

	  url='<PLACEHOLDER>',

	  install_requires=open('%s').read(),

	  license='MIT',

	  package_dir={'': 'src'},
	  packages=setuptools.find_packages('src'),
	  include_package_data=True,
	)
	`), "\n")

var readmeTmpl = strings.TrimLeft(dedent.Dedent(`
	%s
	===========

	<PLACEHOLDER DESCRIPTION>
	`), "\n")

func newSetupCmd() *cobra.Command {
	var product bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Set up a product for development",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !product {
				return errors.New("at least one option must be selected, see -h for options")
			}
			return setupProduct()
		},
	}

	cmd.Flags().BoolVar(&product, "product", false,
		"Initialize the product with test environments, setup.py, README, and src / test directories")

	return cmd
}

// setupProduct scaffolds the files a product checkout needs before its
// test environments can be built. Existing files other than tox.ini are
// left alone.
func setupProduct() error {
	repo, err := scm.RepoCheck()
	if err != nil {
		return err
	}

	name := workspace.Name(repo)
	placeholderInfo := "- please update <PLACEHOLDER> with appropriate value"

	toxIniPath := filepath.Join(repo, "tox.ini")
	toxChangeWord := "Created"
	if _, err := os.Stat(toxIniPath); err == nil {
		toxChangeWord = "Updated"
	}
	if err := os.WriteFile(toxIniPath, []byte(toxIniTmpl), 0644); err != nil {
		return err
	}
	logging.Info("setup", "%s %s", toxChangeWord, relativePath(toxIniPath))

	readmePath := ""
	if readmes, _ := filepath.Glob(filepath.Join(repo, "README*")); len(readmes) > 0 {
		readmePath = readmes[0]
	} else {
		readmePath = filepath.Join(repo, "README.rst")
		if err := os.WriteFile(readmePath, []byte(fmt.Sprintf(readmeTmpl, name)), 0644); err != nil {
			return err
		}
		logging.Info("setup", "Created %s %s", relativePath(readmePath), placeholderInfo)
	}

	setupPyPath := filepath.Join(repo, "setup.py")
	if _, err := os.Stat(setupPyPath); os.IsNotExist(err) {
		requirementsPath := filepath.Join(repo, "requirements.txt")
		if _, err := os.Stat(requirementsPath); os.IsNotExist(err) {
			if err := os.WriteFile(requirementsPath, nil, 0644); err != nil {
				return err
			}
			logging.Info("setup", "Created %s", relativePath(requirementsPath))
		}

		content := fmt.Sprintf(setupPyTmpl, name, filepath.Base(readmePath), filepath.Base(requirementsPath))
		if err := os.WriteFile(setupPyPath, []byte(content), 0644); err != nil {
			return err
		}
		logging.Info("setup", "Created %s %s", relativePath(setupPyPath), placeholderInfo)
	}

	srcDir := filepath.Join(repo, "src")
	if _, err := os.Stat(srcDir); os.IsNotExist(err) {
		packageDir := filepath.Join(srcDir, packageName(name))
		if err := os.MkdirAll(packageDir, 0755); err != nil {
			return err
		}
		initPath := filepath.Join(packageDir, "__init__.py")
		if err := os.WriteFile(initPath, nil, 0644); err != nil {
			return err
		}
		logging.Info("setup", "Created %s", relativePath(initPath))
	}

	testDir := filepath.Join(repo, "test")
	if _, err := os.Stat(testDir); os.IsNotExist(err) {
		if err := os.MkdirAll(testDir, 0755); err != nil {
			return err
		}
		testPath := filepath.Join(testDir, "test_"+packageName(name)+".py")
		if err := os.WriteFile(testPath, []byte("# Placeholder for tests\n"), 0644); err != nil {
			return err
		}
		logging.Info("setup", "Created %s", relativePath(testPath))
	}

	return nil
}

var nonLetterRe = regexp.MustCompile(`[^A-Za-z]`)

// packageName converts a product name into a valid python package name.
func packageName(name string) string {
	return nonLetterRe.ReplaceAllString(name, "")
}

func relativePath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, cwd+string(os.PathSeparator)) {
		return strings.TrimPrefix(path, cwd+string(os.PathSeparator))
	}
	return path
}
