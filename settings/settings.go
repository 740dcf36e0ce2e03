// Package settings loads the global registry configuration consumed
// by the dependency resolution core. It is read-only, and its result
// flows through by value — no process-global state is introduced
// here. The resolver loads it each time it locates a registry-origin
// node, not once per resolve call.
//
// File discovery uses an override path as given, falls back to
// $FPM_CONFIG, then to fpm/global-config.toml in the user config
// directory. No parent directories are searched.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the global configuration file name.
const FileName = "global-config.toml"

// Registry holds the three-way registry configuration: a local
// filesystem registry, or a remote HTTP registry with a local
// download cache.
type Registry struct {
	// Path, when set, selects the local-filesystem registry.
	Path string `toml:"path,omitempty"`
	// URL is the remote registry base address (step 2).
	URL string `toml:"url,omitempty"`
	// CachePath is the user's download-cache root (step 2a).
	CachePath string `toml:"cache_path,omitempty"`
}

// Settings is the full parsed global configuration.
type Settings struct {
	Registry Registry `toml:"registry"`
}

// Loader loads global settings, optionally honoring an override path
// (Tree.ConfigOverride).
type Loader interface {
	Load(override string) (Settings, error)
}

// FileLoader is the default Loader: it looks for override (if given),
// else $FPM_CONFIG, else a global-config.toml in the user config
// directory. A missing file is not an error — it yields zero-value
// Settings (no local registry, no remote URL), matching the "load
// never fails on missing file" stance the rest of this core takes
// toward its own cache file.
type FileLoader struct{}

// NewFileLoader returns the default settings loader.
func NewFileLoader() Loader { return FileLoader{} }

func (FileLoader) Load(override string) (Settings, error) {
	path := override
	if path == "" {
		path = os.Getenv("FPM_CONFIG")
	}
	if path == "" {
		dir, err := os.UserConfigDir()
		if err == nil {
			path = filepath.Join(dir, "fpm", FileName)
		}
	}
	if path == "" {
		return Settings{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("read global settings %s: %w", path, err)
	}

	var s Settings
	if _, err := toml.Decode(string(data), &s); err != nil {
		return Settings{}, fmt.Errorf("parse global settings %s: %w", path, err)
	}
	return s, nil
}

// UsesLocalRegistry reports whether a local filesystem registry
// should be preferred over the remote HTTP registry.
func (s Settings) UsesLocalRegistry() bool {
	return s.Registry.Path != ""
}
