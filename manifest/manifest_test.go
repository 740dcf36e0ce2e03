package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir
}

func TestReadManifest_Minimal(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
name = "mathlib"
version = "1.0.0"
`)

	pkg, err := NewReader().ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "mathlib", pkg.Name)
	assert.Equal(t, "1.0.0", pkg.Version)
	assert.Empty(t, pkg.Dependency)
}

func TestReadManifest_MissingName(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `version = "1.0.0"`)

	_, err := NewReader().ReadManifest(dir)
	assert.Error(t, err)
}

func TestReadManifest_AcceptsFilePath(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `name = "a"`)

	pkg, err := NewReader().ReadManifest(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, "a", pkg.Name)
}

func TestDependency_NamedFromTableKey(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
name = "app"

[dependencies]
mathlib = { path = "../mathlib" }
netlib = { git = { url = "https://example.com/netlib.git", tag = "v2" } }
`)

	pkg, err := NewReader().ReadManifest(dir)
	require.NoError(t, err)
	require.Len(t, pkg.Dependency, 2)

	mathlib := pkg.Dependency["mathlib"]
	assert.Equal(t, "mathlib", mathlib.Name)
	assert.True(t, mathlib.IsPath())
	assert.Equal(t, "../mathlib", mathlib.Path)

	netlib := pkg.Dependency["netlib"]
	assert.Equal(t, "netlib", netlib.Name)
	assert.True(t, netlib.IsGit())
	assert.Equal(t, "v2", netlib.Git.Tag)
}

func TestAllDependencies_IsMain(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
name = "app"

[dependencies]
runtime_dep = { path = "../r" }

[dev-dependencies]
test_dep = { path = "../t" }

[[executable]]
name = "app_exe"
[executable.dependencies]
exe_dep = { path = "../e" }
`)

	pkg, err := NewReader().ReadManifest(dir)
	require.NoError(t, err)

	runtimeOnly := pkg.AllDependencies(false)
	require.Len(t, runtimeOnly, 1)
	assert.Equal(t, "runtime_dep", runtimeOnly[0].Name)

	all := pkg.AllDependencies(true)
	names := make(map[string]bool)
	for _, d := range all {
		names[d.Name] = true
	}
	assert.True(t, names["runtime_dep"])
	assert.True(t, names["test_dep"])
	assert.True(t, names["exe_dep"])
}
