package registry_test

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awvwgk/fortran-package-manager/depgraph"
	"github.com/awvwgk/fortran-package-manager/registry"
)

func TestGetPackageData_LatestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("version"))
		w.Write([]byte(`{"code":200,"message":"ok","data":{"latest_version_data":{"download_url":"https://x/pkg.zip","version":"3.0.0"}}}`))
	}))
	defer srv.Close()

	dl := registry.NewHTTPDownloader()
	data, err := dl.GetPackageData(context.Background(), srv.URL, "", t.TempDir()+"/tmp")
	require.NoError(t, err)
	assert.Equal(t, "3.0.0", data.Version)
	assert.Equal(t, "https://x/pkg.zip", data.DownloadURL)
}

func TestGetPackageData_RequestedVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1.0.0", r.URL.Query().Get("version"))
		w.Write([]byte(`{"code":200,"message":"ok","data":{"version_data":{"download_url":"https://x/pkg-1.0.0.zip","version":"1.0.0"}}}`))
	}))
	defer srv.Close()

	dl := registry.NewHTTPDownloader()
	data, err := dl.GetPackageData(context.Background(), srv.URL, "1.0.0", t.TempDir()+"/tmp")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", data.Version)
}

func TestGetPackageData_NonOKCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":404,"message":"not found"}`))
	}))
	defer srv.Close()

	dl := registry.NewHTTPDownloader()
	_, err := dl.GetPackageData(context.Background(), srv.URL, "", t.TempDir()+"/tmp")
	require.Error(t, err)
	assert.True(t, errors.Is(err, depgraph.KindSentinel(depgraph.ErrRegistryHTTP)))
	assert.Contains(t, err.Error(), "not found")
}

func TestGetPackageData_MissingFields(t *testing.T) {
	cases := []string{
		`{"message":"no code"}`,
		`{"code":200}`,
		`{"code":200,"data":{}}`,
		`{"code":200,"data":{"latest_version_data":{"version":"1.0.0"}}}`,
	}
	for _, body := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		dl := registry.NewHTTPDownloader()
		_, err := dl.GetPackageData(context.Background(), srv.URL, "", t.TempDir()+"/tmp")
		require.Error(t, err)
		assert.True(t, errors.Is(err, depgraph.KindSentinel(depgraph.ErrRegistryMissingField)))
		srv.Close()
	}
}

func TestGetFile_WritesResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("archive-contents"))
	}))
	defer srv.Close()

	dl := registry.NewHTTPDownloader()
	target := filepath.Join(t.TempDir(), "out.zip")
	require.NoError(t, dl.GetFile(context.Background(), srv.URL, target))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "archive-contents", string(data))
}

func TestGetFile_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dl := registry.NewHTTPDownloader()
	err := dl.GetFile(context.Background(), srv.URL, filepath.Join(t.TempDir(), "out.zip"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, depgraph.KindSentinel(depgraph.ErrRegistryHTTP)))
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestUnpack_ExtractsFiles(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "pkg.zip")
	writeZip(t, archive, map[string]string{
		"fpm.toml":     `name = "x"`,
		"src/main.f90": "program main\nend program\n",
	})

	dest := filepath.Join(t.TempDir(), "unpacked")
	dl := registry.NewHTTPDownloader()
	require.NoError(t, dl.Unpack(archive, dest))

	data, err := os.ReadFile(filepath.Join(dest, "fpm.toml"))
	require.NoError(t, err)
	assert.Equal(t, `name = "x"`, string(data))

	data, err = os.ReadFile(filepath.Join(dest, "src", "main.f90"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "program main")
}

func TestUnpack_RejectsPathTraversal(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "evil.zip")
	writeZip(t, archive, map[string]string{
		"../../etc/passwd": "pwned",
	})

	dest := filepath.Join(t.TempDir(), "unpacked")
	dl := registry.NewHTTPDownloader()
	err := dl.Unpack(archive, dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes destination")
}
