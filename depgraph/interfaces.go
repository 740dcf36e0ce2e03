package depgraph

import (
	"context"

	"github.com/awvwgk/fortran-package-manager/manifest"
	"github.com/awvwgk/fortran-package-manager/settings"
)

// ManifestReader is the external collaborator that parses fpm.toml.
// depgraph depends only on this narrow interface, not on the manifest
// package's TOML decoding details.
type ManifestReader = manifest.Reader

// GitClient is the external collaborator that checks out a git
// reference and reports the resulting revision.
type GitClient interface {
	Checkout(ctx context.Context, dir, url string, ref GitReference) error
	CurrentRevision(ctx context.Context, dir string) (string, error)
}

// RegistryDownloader performs the low-level HTTP operations the
// registry acquisition protocol needs. Substitutable for hermetic tests.
type RegistryDownloader interface {
	GetPackageData(ctx context.Context, url string, requestedVersion string, tmpPath string) (*RegistryPackageData, error)
	GetFile(ctx context.Context, url string, tmpPath string) error
	Unpack(archivePath, destDir string) error
}

// RegistryPackageData is the decoded success payload from the
// registry HTTP protocol.
type RegistryPackageData struct {
	DownloadURL string
	Version     string
}

// Locator resolves a RegistryOrigin to a local project directory,
// implementing the three-way decision tree between a local registry,
// a remote registry with cache hit, and a remote registry
// fetch-and-unpack.
type Locator interface {
	Locate(ctx context.Context, origin RegistryOrigin, cfg settings.Settings) (projDir, resolvedVersion string, err error)
}

// SettingsLoader is the external collaborator that loads the global
// registry settings.
type SettingsLoader = settings.Loader
