package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/awvwgk/fortran-package-manager/cmd/fpm/output"
)

// NewUpdateCommand re-fetches git-origin dependencies flagged for
// update, either a single named dependency or every dependency in the
// tree, reloading from a prior cache first.
func NewUpdateCommand(console *output.Console) *cobra.Command {
	var cacheFile string

	cmd := &cobra.Command{
		Use:   "update [name] [project-dir]",
		Short: "Re-fetch git dependencies flagged for update",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			var rootArgs []string
			if len(args) > 0 {
				name = args[0]
			}
			if len(args) > 1 {
				rootArgs = args[1:]
			}

			root, err := projectRoot(rootArgs)
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
			if err := t.LoadCache(t.CachePath); err != nil {
				return err
			}

			ctx := cmd.Context()
			if name != "" {
				if err := t.Update(ctx, root, name); err != nil {
					return err
				}
			} else {
				if err := t.UpdateAll(ctx, root); err != nil {
					return err
				}
			}

			if err := t.BuildTransitiveSets(ctx); err != nil {
				return err
			}
			if err := t.SaveCache(); err != nil {
				return err
			}

			console.Success("updated %d package(s)", len(t.Nodes))
			return nil
		},
	}

	cmd.Flags().StringVar(&cacheFile, "cache", "", "path to the dependency cache file (default build/dependencies/cache.toml)")
	return cmd
}
