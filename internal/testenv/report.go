package testenv

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"wst/internal/run"
)

// reportScript runs inside the target environment's interpreter and emits
// one tab-separated line per declared dependency: name, status, and for
// installed dependencies the version and install location.
const reportScript = `
import pkg_resources

libs = sorted(set(r.key for r in pkg_resources.get_distribution('%s').requires()))

for lib in libs:
    try:
        d = pkg_resources.get_distribution(lib)
        print('\t'.join((lib, 'ok', d.version, d.location)))
    except pkg_resources.DistributionNotFound:
        print(lib + '\tmissing')
    except Exception as e:
        print(lib + '\terror\t' + str(e))
`

// Report prints the product's declared runtime dependencies with their
// installed version and install location. Locations inside the current
// repository render relative to the repository root, locations inside a
// sibling product render as a ../ path, anything else renders in full.
//
// A declared dependency that is not installed gets its own "not installed"
// row; any other per-dependency introspection error renders as its error
// text. Neither aborts the rest of the report.
func (m *Manager) Report(env string, out io.Writer) error {
	python := m.manifest.Bindir(env, "python")
	if _, err := os.Stat(python); err != nil {
		return fmt.Errorf("%w: %s (run the test command without --dependencies to install it first)",
			ErrEnvironmentNotInstalled, env)
	}

	script := fmt.Sprintf(reportScript, m.ProductName())
	output, err := m.runner.Run([]string{python, "-c", script}, run.Capture())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Product dependencies in %s:\n", env)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"DEPENDENCY", "VERSION", "LOCATION"})

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		name := fields[0]

		status := ""
		if len(fields) > 1 {
			status = fields[1]
		}

		switch status {
		case "ok":
			version, location := "", ""
			if len(fields) > 2 {
				version = fields[2]
			}
			if len(fields) > 3 {
				location = m.renderLocation(fields[3])
			}
			t.AppendRow(table.Row{name, version, location})
		case "missing":
			t.AppendRow(table.Row{name, text.FgYellow.Sprint("not installed"), ""})
		default:
			// Introspection noise (warnings, stray prints) or a
			// per-dependency error; render the rest of the line as-is.
			detail := ""
			if len(fields) > 2 {
				detail = strings.Join(fields[2:], "\t")
			}
			t.AppendRow(table.Row{name, "", detail})
		}
	}

	t.Render()
	return nil
}

// renderLocation shortens an install location for display: repo-relative
// inside the current repository, ../ inside the workspace, full path
// otherwise.
func (m *Manager) renderLocation(location string) string {
	repo := m.manifest.Repo()
	ws := m.products.Root()

	switch {
	case location == repo:
		return "."
	case strings.HasPrefix(location, repo+string(os.PathSeparator)):
		return strings.TrimPrefix(location, repo+string(os.PathSeparator))
	case strings.HasPrefix(location, ws+string(os.PathSeparator)):
		return filepath.Join("..", strings.TrimPrefix(location, ws+string(os.PathSeparator)))
	default:
		return location
	}
}
