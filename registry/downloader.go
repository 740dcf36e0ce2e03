package registry

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/awvwgk/fortran-package-manager/depgraph"
)

// DefaultTimeout bounds a single registry request.
const DefaultTimeout = 30 * time.Second

// HTTPDownloader is the default depgraph.RegistryDownloader, talking
// to a registry over plain HTTP and unpacking zip archives.
type HTTPDownloader struct {
	Client *http.Client
}

// NewHTTPDownloader builds a downloader with a sensible request timeout.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{Client: &http.Client{Timeout: DefaultTimeout}}
}

// registryResponse is the wire shape of a registry package query.
type registryResponse struct {
	Code    *int   `json:"code"`
	Message string `json:"message"`
	Data    *struct {
		VersionData       *versionData `json:"version_data"`
		LatestVersionData *versionData `json:"latest_version_data"`
	} `json:"data"`
}

type versionData struct {
	DownloadURL string `json:"download_url"`
	Version     string `json:"version"`
}

// GetPackageData queries the registry for a package's download
// coordinates, following the exact response shape the protocol
// defines: requestedVersion set selects data.version_data, otherwise
// data.latest_version_data.
func (d *HTTPDownloader) GetPackageData(ctx context.Context, url string, requestedVersion string, tmpPath string) (*depgraph.RegistryPackageData, error) {
	reqURL := url
	if requestedVersion != "" {
		reqURL = url + "?version=" + requestedVersion
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request for %s: %w", reqURL, err)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, depgraph.NewError(depgraph.ErrRegistryHTTP, err, "registry request failed: %s", reqURL)
	}
	defer resp.Body.Close()

	var rr registryResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, depgraph.NewError(depgraph.ErrRegistryMissingField, err, "registry response for %s is not valid JSON", reqURL)
	}

	if rr.Code == nil {
		return nil, depgraph.NewError(depgraph.ErrRegistryMissingField, nil, "registry response for %s missing code", reqURL)
	}
	if *rr.Code != http.StatusOK {
		return nil, depgraph.NewError(depgraph.ErrRegistryHTTP, nil, "registry returned %d for %s: %s", *rr.Code, reqURL, rr.Message)
	}
	if rr.Data == nil {
		return nil, depgraph.NewError(depgraph.ErrRegistryMissingField, nil, "registry response for %s missing data", reqURL)
	}

	vd := rr.Data.LatestVersionData
	if requestedVersion != "" {
		vd = rr.Data.VersionData
	}
	if vd == nil {
		return nil, depgraph.NewError(depgraph.ErrRegistryMissingField, nil, "registry response for %s missing version_data", reqURL)
	}
	if vd.DownloadURL == "" || vd.Version == "" {
		return nil, depgraph.NewError(depgraph.ErrRegistryMissingField, nil, "registry response for %s missing download_url/version", reqURL)
	}

	return &depgraph.RegistryPackageData{DownloadURL: vd.DownloadURL, Version: vd.Version}, nil
}

// GetFile downloads url to tmpPath, writing through a scoped temp
// file handle that is always closed, and removed on any write error.
func (d *HTTPDownloader) GetFile(ctx context.Context, url string, tmpPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request for %s: %w", url, err)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return depgraph.NewError(depgraph.ErrRegistryHTTP, err, "download failed: %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return depgraph.NewError(depgraph.ErrRegistryHTTP, nil, "download returned %d for %s", resp.StatusCode, url)
	}

	f, err := os.Create(tmpPath)
	if err != nil {
		return depgraph.NewError(depgraph.ErrTempFile, err, "create download target %s", tmpPath)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write download %s: %w", tmpPath, err)
	}
	return nil
}

// Unpack extracts a zip archive into destDir. Entries escaping destDir
// (via ../ path components) are rejected rather than written.
func (d *HTTPDownloader) Unpack(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create dest dir %s: %w", destDir, err)
	}

	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) && target != filepath.Clean(destDir) {
			return fmt.Errorf("archive entry %q escapes destination", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		src, err := f.Open()
		if err != nil {
			return fmt.Errorf("open archive entry %q: %w", f.Name, err)
		}
		dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
		if err != nil {
			src.Close()
			return fmt.Errorf("create %s: %w", target, err)
		}
		_, copyErr := io.Copy(dst, src)
		src.Close()
		dst.Close()
		if copyErr != nil {
			return fmt.Errorf("extract %s: %w", target, copyErr)
		}
	}
	return nil
}
