// Package fetch retrieves the source incident CSV over HTTP. It is the one
// external collaborator that touches the network; the analysis core only
// ever sees the local file it produces.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Fetcher downloads the incident dataset to a local cache file.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates a fetcher. A nil client falls back to a default with
// the given timeout; a nil logger falls back to the default logger.
func NewFetcher(client *http.Client, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, logger: logger}
}

// Download fetches url into path, creating parent directories as needed. The
// body streams straight to disk; a partial download is removed so a later
// run never mistakes it for a complete cache file.
func (f *Fetcher) Download(ctx context.Context, url, path string) error {
	start := time.Now()
	f.logger.InfoContext(ctx, "downloading dataset",
		slog.String("url", url),
		slog.String("path", path))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("write cache file: %w", err)
	}

	f.logger.InfoContext(ctx, "dataset downloaded",
		slog.Int64("bytes", written),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Ensure returns the cache path, downloading only when the file is absent or
// refresh is forced. Offline mode never touches the network and fails when
// the cache is missing.
func (f *Fetcher) Ensure(ctx context.Context, url, path string, offline, refresh bool) error {
	if _, err := os.Stat(path); err == nil && !refresh {
		f.logger.InfoContext(ctx, "using cached dataset", slog.String("path", path))
		return nil
	}

	if offline {
		return fmt.Errorf("offline mode: cached dataset not found at %s", path)
	}
	return f.Download(ctx, url, path)
}
