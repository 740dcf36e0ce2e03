// Package registry implements the three-way registry acquisition
// decision tree: a local filesystem registry, a remote HTTP registry
// with a disk download-cache hit, or a remote fetch-and-unpack.
package registry

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"github.com/awvwgk/fortran-package-manager/depgraph"
	"github.com/awvwgk/fortran-package-manager/manifest"
	"github.com/awvwgk/fortran-package-manager/settings"
)

// Locator implements depgraph.Locator, the registry half of the
// acquisition protocol: local path lookup, or remote registry with a
// download cache, the downloader performing the HTTP/unpack work.
type Locator struct {
	Downloader depgraph.RegistryDownloader
}

// New builds a Locator backed by the given downloader.
func New(downloader depgraph.RegistryDownloader) *Locator {
	return &Locator{Downloader: downloader}
}

// Locate resolves origin to a local project directory, following the
// decision tree: local registry path, if configured, otherwise a
// remote registry with a per-version download cache.
func (l *Locator) Locate(ctx context.Context, origin depgraph.RegistryOrigin, cfg settings.Settings) (string, string, error) {
	if cfg.Registry.Path != "" {
		return localLookup(cfg.Registry.Path, origin)
	}
	return l.remoteLookup(ctx, cfg, origin)
}

// localLookup implements the local-registry branch: either the exact
// requested version directory, or the maximum version subdirectory
// present.
func localLookup(regPath string, origin depgraph.RegistryOrigin) (string, string, error) {
	base := filepath.Join(regPath, origin.Namespace, origin.Name)

	if origin.RequestedVersion != "" {
		dir := filepath.Join(base, origin.RequestedVersion)
		if _, err := os.Stat(filepath.Join(dir, manifest.FileName)); err != nil {
			return "", "", depgraph.NewError(depgraph.ErrLocalRegistryMiss, err,
				"local registry: %s/%s@%s not found under %s", origin.Namespace, origin.Name, origin.RequestedVersion, regPath)
		}
		return dir, origin.RequestedVersion, nil
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return "", "", depgraph.NewError(depgraph.ErrNoVersions, err,
			"local registry: no versions for %s/%s under %s", origin.Namespace, origin.Name, regPath)
	}

	var best *semver.Version
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		v, err := semver.NewVersion(e.Name())
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	if best == nil {
		return "", "", depgraph.NewError(depgraph.ErrNoVersions, nil,
			"local registry: no version subdirectories for %s/%s under %s", origin.Namespace, origin.Name, regPath)
	}

	dir := filepath.Join(base, best.Original())
	if _, err := os.Stat(filepath.Join(dir, manifest.FileName)); err != nil {
		return "", "", depgraph.NewError(depgraph.ErrLocalRegistryMiss, err,
			"local registry: manifest missing for %s/%s@%s", origin.Namespace, origin.Name, best.Original())
	}
	return dir, best.Original(), nil
}

// resolveDownloadURL resolves a registry's download_url against the
// registry base URL, per the protocol's "relative to registry base"
// rule. An already-absolute download_url is returned unchanged.
func resolveDownloadURL(base, downloadURL string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse registry base %q: %w", base, err)
	}
	ref, err := url.Parse(downloadURL)
	if err != nil {
		return "", fmt.Errorf("parse download_url %q: %w", downloadURL, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}

// remoteLookup implements the remote-registry branch: a download-cache
// hit when the requested version is already unpacked, otherwise a GET
// to the registry, download, and unpack into the cache.
func (l *Locator) remoteLookup(ctx context.Context, cfg settings.Settings, origin depgraph.RegistryOrigin) (string, string, error) {
	cachePath := filepath.Join(cfg.Registry.CachePath, origin.Namespace, origin.Name)

	if origin.RequestedVersion != "" {
		candidate := filepath.Join(cachePath, origin.RequestedVersion)
		if _, err := os.Stat(filepath.Join(candidate, manifest.FileName)); err == nil {
			return candidate, origin.RequestedVersion, nil
		}
	}

	dataURL := fmt.Sprintf("%s/packages/%s/%s", cfg.Registry.URL, origin.Namespace, origin.Name)
	// A UUID-scoped name avoids collisions between concurrent fpm
	// invocations sharing the same system temp directory, without
	// relying on os.CreateTemp's own uniqueness scheme.
	tmpPath := filepath.Join(os.TempDir(), "fpm-registry-"+uuid.NewString()+".archive")
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return "", "", depgraph.NewError(depgraph.ErrTempFile, err, "create temp file for %s", dataURL)
	}
	_ = tmpFile.Close()
	defer os.Remove(tmpPath)

	data, err := l.Downloader.GetPackageData(ctx, dataURL, origin.RequestedVersion, tmpPath)
	if err != nil {
		return "", "", err
	}

	finalCache := filepath.Join(cachePath, data.Version)
	if _, err := os.Stat(filepath.Join(finalCache, manifest.FileName)); err == nil {
		return finalCache, data.Version, nil
	}

	if err := os.RemoveAll(finalCache); err != nil {
		return "", "", fmt.Errorf("clear partial cache dir %s: %w", finalCache, err)
	}
	if err := os.MkdirAll(filepath.Dir(finalCache), 0o755); err != nil {
		return "", "", fmt.Errorf("create cache dir %s: %w", filepath.Dir(finalCache), err)
	}

	downloadURL, err := resolveDownloadURL(cfg.Registry.URL, data.DownloadURL)
	if err != nil {
		return "", "", depgraph.NewError(depgraph.ErrRegistryMissingField, err, "resolve download_url %q against registry base %q", data.DownloadURL, cfg.Registry.URL)
	}

	archivePath := tmpPath + ".pkg"
	if err := l.Downloader.GetFile(ctx, downloadURL, archivePath); err != nil {
		return "", "", err
	}
	defer os.Remove(archivePath)

	if err := l.Downloader.Unpack(archivePath, finalCache); err != nil {
		return "", "", err
	}
	return finalCache, data.Version, nil
}
