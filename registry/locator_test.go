package registry_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awvwgk/fortran-package-manager/depgraph"
	"github.com/awvwgk/fortran-package-manager/manifest"
	"github.com/awvwgk/fortran-package-manager/registry"
	"github.com/awvwgk/fortran-package-manager/settings"
)

// fakeDownloader never touches the network; GetFile/Unpack record what
// they were asked to do so remote-path tests can assert on it.
type fakeDownloader struct {
	data          *depgraph.RegistryPackageData
	dataErr       error
	gotGetDataURL string
	gotVersion    string

	unpackInto string
	fileGets   []string
}

func (f *fakeDownloader) GetPackageData(ctx context.Context, url, requestedVersion, tmpPath string) (*depgraph.RegistryPackageData, error) {
	f.gotGetDataURL = url
	f.gotVersion = requestedVersion
	return f.data, f.dataErr
}

func (f *fakeDownloader) GetFile(ctx context.Context, url, tmpPath string) error {
	f.fileGets = append(f.fileGets, url)
	return os.WriteFile(tmpPath, []byte("archive-bytes"), 0o644)
}

func (f *fakeDownloader) Unpack(archivePath, destDir string) error {
	f.unpackInto = destDir
	return os.MkdirAll(destDir, 0o755)
}

func writeManifestAt(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(`name = "x"`), 0o644))
}

func TestLocate_LocalRegistry_ExactVersionHit(t *testing.T) {
	regRoot := t.TempDir()
	writeManifestAt(t, filepath.Join(regRoot, "ns", "pkg", "1.2.0"))

	loc := registry.New(&fakeDownloader{})
	cfg := settings.Settings{Registry: settings.Registry{Path: regRoot}}

	dir, version, err := loc.Locate(context.Background(), depgraph.RegistryOrigin{
		Namespace: "ns", Name: "pkg", RequestedVersion: "1.2.0",
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, "1.2.0", version)
	assert.Equal(t, filepath.Join(regRoot, "ns", "pkg", "1.2.0"), dir)
}

func TestLocate_LocalRegistry_ExactVersionMiss(t *testing.T) {
	regRoot := t.TempDir()
	loc := registry.New(&fakeDownloader{})
	cfg := settings.Settings{Registry: settings.Registry{Path: regRoot}}

	_, _, err := loc.Locate(context.Background(), depgraph.RegistryOrigin{
		Namespace: "ns", Name: "pkg", RequestedVersion: "9.9.9",
	}, cfg)

	require.Error(t, err)
	assert.True(t, errors.Is(err, depgraph.KindSentinel(depgraph.ErrLocalRegistryMiss)))
}

func TestLocate_LocalRegistry_PicksMaxVersion(t *testing.T) {
	regRoot := t.TempDir()
	writeManifestAt(t, filepath.Join(regRoot, "ns", "pkg", "1.0.0"))
	writeManifestAt(t, filepath.Join(regRoot, "ns", "pkg", "2.5.0"))
	writeManifestAt(t, filepath.Join(regRoot, "ns", "pkg", "2.4.9"))

	loc := registry.New(&fakeDownloader{})
	cfg := settings.Settings{Registry: settings.Registry{Path: regRoot}}

	dir, version, err := loc.Locate(context.Background(), depgraph.RegistryOrigin{
		Namespace: "ns", Name: "pkg",
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, "2.5.0", version)
	assert.Equal(t, filepath.Join(regRoot, "ns", "pkg", "2.5.0"), dir)
}

func TestLocate_LocalRegistry_NoVersions(t *testing.T) {
	regRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(regRoot, "ns", "pkg"), 0o755))

	loc := registry.New(&fakeDownloader{})
	cfg := settings.Settings{Registry: settings.Registry{Path: regRoot}}

	_, _, err := loc.Locate(context.Background(), depgraph.RegistryOrigin{Namespace: "ns", Name: "pkg"}, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, depgraph.KindSentinel(depgraph.ErrNoVersions)))
}

func TestLocate_Remote_CacheHit(t *testing.T) {
	cache := t.TempDir()
	writeManifestAt(t, filepath.Join(cache, "ns", "pkg", "2.0.0"))

	dl := &fakeDownloader{}
	loc := registry.New(dl)
	cfg := settings.Settings{Registry: settings.Registry{URL: "https://reg.example", CachePath: cache}}

	dir, version, err := loc.Locate(context.Background(), depgraph.RegistryOrigin{
		Namespace: "ns", Name: "pkg", RequestedVersion: "2.0.0",
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, "2.0.0", version)
	assert.Equal(t, filepath.Join(cache, "ns", "pkg", "2.0.0"), dir)
	assert.Empty(t, dl.fileGets) // never hit the network on a cache hit
}

// TestLocate_Remote_CacheMissDownloadsAndUnpacks is scenario 5: a
// remote registry with no cached copy fetches package data, downloads
// the archive, and unpacks it into the per-version cache directory.
func TestLocate_Remote_CacheMissDownloadsAndUnpacks(t *testing.T) {
	cache := t.TempDir()
	dl := &fakeDownloader{data: &depgraph.RegistryPackageData{DownloadURL: "https://reg.example/dl/pkg-2.0.0.zip", Version: "2.0.0"}}
	loc := registry.New(dl)
	cfg := settings.Settings{Registry: settings.Registry{URL: "https://reg.example", CachePath: cache}}

	dir, version, err := loc.Locate(context.Background(), depgraph.RegistryOrigin{
		Namespace: "ns", Name: "pkg", RequestedVersion: "2.0.0",
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, "2.0.0", version)
	expectedDir := filepath.Join(cache, "ns", "pkg", "2.0.0")
	assert.Equal(t, expectedDir, dir)
	assert.Equal(t, "https://reg.example/packages/ns/pkg", dl.gotGetDataURL)
	assert.Equal(t, "2.0.0", dl.gotVersion)
	require.Len(t, dl.fileGets, 1)
	assert.Equal(t, "https://reg.example/dl/pkg-2.0.0.zip", dl.fileGets[0])
	assert.Equal(t, expectedDir, dl.unpackInto)
}

// TestLocate_Remote_ResolvesRelativeDownloadURL covers a registry that
// returns download_url relative to its base, per protocol.
func TestLocate_Remote_ResolvesRelativeDownloadURL(t *testing.T) {
	cache := t.TempDir()
	dl := &fakeDownloader{data: &depgraph.RegistryPackageData{DownloadURL: "/dl/pkg-2.0.0.zip", Version: "2.0.0"}}
	loc := registry.New(dl)
	cfg := settings.Settings{Registry: settings.Registry{URL: "https://reg.example", CachePath: cache}}

	_, _, err := loc.Locate(context.Background(), depgraph.RegistryOrigin{
		Namespace: "ns", Name: "pkg", RequestedVersion: "2.0.0",
	}, cfg)

	require.NoError(t, err)
	require.Len(t, dl.fileGets, 1)
	assert.Equal(t, "https://reg.example/dl/pkg-2.0.0.zip", dl.fileGets[0])
}
