// Package run executes external tools with structured argument vectors.
//
// Commands are always built as argv slices; the only way to go through a
// shell is the explicit Shell option, which hands the single command string
// to "bash -c". A nonzero exit is returned as an error that includes the
// captured stderr, so callers that tolerate failure simply ignore the
// returned error.
package run

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Options controls how a single command is executed.
type Options struct {
	// Dir is the working directory for the command. Empty means inherit.
	Dir string
	// Shell joins the argv into one string and runs it through "bash -c".
	Shell bool
	// Silent discards the child's stdout/stderr instead of inheriting the
	// parent's. Stderr is still captured for error reporting.
	Silent bool
	// Capture returns the child's trimmed stdout instead of streaming it.
	Capture bool
}

// Option mutates Options.
type Option func(*Options)

// InDir sets the working directory for the command.
func InDir(dir string) Option {
	return func(o *Options) { o.Dir = dir }
}

// Shell runs the command through "bash -c".
func Shell() Option {
	return func(o *Options) { o.Shell = true }
}

// Silent suppresses the child's output.
func Silent() Option {
	return func(o *Options) { o.Silent = true }
}

// Capture returns the child's stdout to the caller.
func Capture() Option {
	return func(o *Options) { o.Capture = true }
}

// Runner executes commands. The concrete Local runner spawns real
// processes; tests substitute their own implementation.
type Runner interface {
	Run(args []string, opts ...Option) (string, error)
}

// Local runs commands on the local machine via os/exec.
type Local struct{}

// New returns a Local runner.
func New() *Local {
	return &Local{}
}

// Run executes args and returns the captured stdout (when Capture is set).
// A nonzero exit returns an error wrapping the exec failure and the
// command's stderr.
func (l *Local) Run(args []string, opts ...Option) (string, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	if len(args) == 0 {
		return "", fmt.Errorf("run: empty command")
	}

	var cmd *exec.Cmd
	if o.Shell {
		cmd = exec.Command("bash", "-c", strings.Join(args, " "))
	} else {
		cmd = exec.Command(args[0], args[1:]...)
	}
	cmd.Dir = o.Dir

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	switch {
	case o.Capture:
		cmd.Stdout = &stdoutBuf
	case o.Silent:
		cmd.Stdout = io.Discard
	default:
		cmd.Stdout = os.Stdout
		// Stream stderr to the terminal and keep a copy for errors.
		cmd.Stderr = io.MultiWriter(os.Stderr, &stderrBuf)
	}

	if err := cmd.Run(); err != nil {
		stderr := strings.TrimSpace(stderrBuf.String())
		if stderr != "" {
			return stdoutBuf.String(), fmt.Errorf("command %q failed: %w: %s", displayName(args, o.Shell), err, stderr)
		}
		return stdoutBuf.String(), fmt.Errorf("command %q failed: %w", displayName(args, o.Shell), err)
	}

	return strings.TrimSpace(stdoutBuf.String()), nil
}

// Available reports whether an executable can be found in PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func displayName(args []string, shell bool) string {
	if shell {
		return strings.Join(args, " ")
	}
	return args[0]
}
