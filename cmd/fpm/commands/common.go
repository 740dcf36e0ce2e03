// Package commands implements the fpm subcommands that drive the
// dependency resolution core.
package commands

import (
	"github.com/awvwgk/fortran-package-manager/cmd/fpm/output"
	"github.com/awvwgk/fortran-package-manager/depgraph"
	"github.com/awvwgk/fortran-package-manager/gitclient"
	"github.com/awvwgk/fortran-package-manager/manifest"
	"github.com/awvwgk/fortran-package-manager/observability"
	"github.com/awvwgk/fortran-package-manager/registry"
	"github.com/awvwgk/fortran-package-manager/settings"
)

// newTree builds a Tree wired to the default collaborators: a TOML
// manifest reader, a git CLI client, the registry locator backed by
// an HTTP downloader, and the file-based settings loader. Resolution
// diagnostics are logged through console at a level derived from its
// verbosity, and only when its node verbosity is above 0; otherwise the
// Tree keeps its default null logger.
func newTree(console *output.Console) *depgraph.Tree {
	t := depgraph.NewTree(
		manifest.NewReader(),
		gitclient.New(),
		registry.New(registry.NewHTTPDownloader()),
		settings.NewFileLoader(),
	)
	t.Verbosity = console.NodeVerbosity()
	if t.Verbosity > 0 {
		t.Log = observability.NewLogger(console, logLevelFor(t.Verbosity))
	}
	return t
}

// logLevelFor maps a Console's node verbosity (see
// output.Console.NodeVerbosity) to the mtlog minimum level the
// resolution core logs at.
func logLevelFor(nodeVerbosity int) observability.LogLevel {
	switch {
	case nodeVerbosity >= int(output.VerbosityDiagnostic):
		return observability.VerboseLevel
	case nodeVerbosity >= int(output.VerbosityDetailed):
		return observability.DebugLevel
	default:
		return observability.InfoLevel
	}
}
