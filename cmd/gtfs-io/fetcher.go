package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/theoremus-urban-solutions/gtfs-io/gtfs"
)

// fetcher opens GTFS feeds from URLs, zip files or directories.
// This is CLI-specific logic and is not part of the core library.
type fetcher struct {
	httpClient *http.Client
	opts       gtfs.ReaderOptions
}

func newFetcher(opts gtfs.ReaderOptions) *fetcher {
	return &fetcher{
		httpClient: &http.Client{},
		opts:       opts,
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// fetchZip downloads a zipped feed over HTTP, or reads it from a local path.
func (f *fetcher) fetchZip(ctx context.Context, urlOrPath string) ([]byte, error) {
	if !isURL(urlOrPath) {
		return os.ReadFile(urlOrPath)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlOrPath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlOrPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, urlOrPath)
	}
	return io.ReadAll(resp.Body)
}

// open returns a reader for source. Directories are read table by table,
// local zips are opened without loading them whole.
func (f *fetcher) open(ctx context.Context, source string) (*gtfs.Reader, error) {
	if source == "" {
		return nil, fmt.Errorf("no GTFS source configured")
	}
	if !isURL(source) {
		info, err := os.Stat(source)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return gtfs.ReadDir(source, f.opts)
		}
		return gtfs.OpenZip(source, f.opts)
	}
	data, err := f.fetchZip(ctx, source)
	if err != nil {
		return nil, err
	}
	return gtfs.ReadZip(data, f.opts)
}
