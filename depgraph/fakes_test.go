package depgraph_test

import (
	"context"
	"fmt"
	"os"

	"github.com/awvwgk/fortran-package-manager/depgraph"
	"github.com/awvwgk/fortran-package-manager/manifest"
	"github.com/awvwgk/fortran-package-manager/settings"
)

// fakeManifestReader serves canned packages keyed by the directory
// they'd be read from, so tests never touch the filesystem.
type fakeManifestReader struct {
	pkgs map[string]*manifest.Package
}

func (f *fakeManifestReader) ReadManifest(path string) (*manifest.Package, error) {
	pkg, ok := f.pkgs[path]
	if !ok {
		return nil, fmt.Errorf("no fixture manifest for %s", path)
	}
	return pkg, nil
}

// fakeGitClient records checkouts and reports a fixed revision,
// creating the target directory so resolveOne's os.Stat check behaves
// like a real clone happened.
type fakeGitClient struct {
	checkouts []string
	revision  string
}

func (f *fakeGitClient) Checkout(ctx context.Context, dir, url string, ref depgraph.GitReference) error {
	f.checkouts = append(f.checkouts, dir)
	return os.MkdirAll(dir, 0o755)
}

func (f *fakeGitClient) CurrentRevision(ctx context.Context, dir string) (string, error) {
	if f.revision != "" {
		return f.revision, nil
	}
	return "deadbeef", nil
}

// fakeLocator never actually contacts a registry; tests that exercise
// RegistryOrigin resolution set Dir/Version directly.
type fakeLocator struct {
	dir     string
	version string
	err     error
}

func (f *fakeLocator) Locate(ctx context.Context, origin depgraph.RegistryOrigin, cfg settings.Settings) (string, string, error) {
	return f.dir, f.version, f.err
}

// fakeSettingsLoader returns a fixed Settings value regardless of override.
type fakeSettingsLoader struct {
	s settings.Settings
}

func (f *fakeSettingsLoader) Load(override string) (settings.Settings, error) {
	return f.s, nil
}

func newFixtureTree(buildDir string, pkgs map[string]*manifest.Package, git *fakeGitClient, loc *fakeLocator) *depgraph.Tree {
	if git == nil {
		git = &fakeGitClient{}
	}
	if loc == nil {
		loc = &fakeLocator{}
	}
	t := depgraph.NewTree(
		&fakeManifestReader{pkgs: pkgs},
		git,
		loc,
		&fakeSettingsLoader{},
	)
	t.BuildDir = buildDir
	return t
}
