// Command fpm drives the Fortran package manager's dependency
// resolution core: resolve, update, and link-order reporting.
package main

import (
	"fmt"
	"os"

	"github.com/awvwgk/fortran-package-manager/cmd/fpm/cli"
	"github.com/awvwgk/fortran-package-manager/cmd/fpm/commands"
)

func main() {
	cli.AddCommand(commands.NewBuildCommand(cli.Console))
	cli.AddCommand(commands.NewUpdateCommand(cli.Console))

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
