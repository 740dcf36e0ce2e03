// Package cli wires the fpm command line: root command, persistent
// flags, and the shared Console every subcommand writes through.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/awvwgk/fortran-package-manager/cmd/fpm/output"
)

var rootCmd = &cobra.Command{
	Use:   "fpm",
	Short: "Fortran package manager dependency resolver",
	Long: `fpm resolves, fetches, and links the dependency tree declared in
fpm.toml: local paths, git repositories, and registry packages.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Console is the shared console every subcommand writes through.
var Console *output.Console

func init() {
	Console = output.DefaultConsole()

	rootCmd.PersistentFlags().StringP("config", "", "", "global registry settings file to use")
	rootCmd.PersistentFlags().StringP("verbosity", "v", "normal", "output verbosity: quiet, normal, detailed, diagnostic")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.Flags().GetString("verbosity")
		Console.SetVerbosity(parseVerbosity(v))
		return nil
	}
}

func parseVerbosity(s string) output.Verbosity {
	switch s {
	case "quiet":
		return output.VerbosityQuiet
	case "detailed":
		return output.VerbosityDetailed
	case "diagnostic":
		return output.VerbosityDiagnostic
	default:
		return output.VerbosityNormal
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// AddCommand registers a subcommand on the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}
