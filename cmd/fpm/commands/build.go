package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/awvwgk/fortran-package-manager/cmd/fpm/output"
)

// NewBuildCommand resolves the dependency tree rooted at the given
// project directory (or the working directory), computes link order,
// and persists the resulting cache.
func NewBuildCommand(console *output.Console) *cobra.Command {
	var cacheFile string

	cmd := &cobra.Command{
		Use:   "build [project-dir]",
		Short: "Resolve the dependency tree and compute link order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectRoot(args)
			if err != nil {
				return err
			}

			configOverride, _ := cmd.Flags().GetString("config")

			t := newTree(console)
			t.ConfigOverride = configOverride
			if cacheFile != "" {
				t.CachePath = cacheFile
			} else {
				t.CachePath = filepath.Join(t.BuildDir, "cache.toml")
			}

			ctx := cmd.Context()
			if err := t.Resolve(ctx, root); err != nil {
				return err
			}
			if err := t.BuildTransitiveSets(ctx); err != nil {
				return err
			}
			order, err := t.LinkOrder("root")
			if err != nil {
				return err
			}
			if err := t.SaveCache(); err != nil {
				return err
			}

			console.Success("resolved %d package(s)", len(t.Nodes))
			for _, idx := range order {
				n := t.Nodes[idx]
				console.Detail("  %s", n.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cacheFile, "cache", "", "path to the dependency cache file (default build/dependencies/cache.toml)")
	return cmd
}

func projectRoot(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return os.Getwd()
}
