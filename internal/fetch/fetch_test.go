package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "OCCUR_DATE,BORO\n01/15/2020,BRONX\n"

func TestNewFetcher_NilClientGetsTimeout(t *testing.T) {
	f := NewFetcher(nil, 2*time.Minute, nil)

	require.NotNil(t, f.client)
	assert.Equal(t, 2*time.Minute, f.client.Timeout, "configured timeout bounds the download")
}

func TestNewFetcher_KeepsSuppliedClient(t *testing.T) {
	client := &http.Client{Timeout: time.Second}
	f := NewFetcher(client, 2*time.Minute, nil)

	assert.Same(t, client, f.client)
}

func TestFetcher_Download(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "cache", "incidents.csv")
	f := NewFetcher(server.Client(), 0, nil)

	require.NoError(t, f.Download(context.Background(), server.URL, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(data))
}

func TestFetcher_DownloadBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "incidents.csv")
	f := NewFetcher(server.Client(), 0, nil)

	err := f.Download(context.Background(), server.URL, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.NoFileExists(t, path)
}

func TestFetcher_EnsureUsesCache(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "incidents.csv")
	f := NewFetcher(server.Client(), 0, nil)
	ctx := context.Background()

	require.NoError(t, f.Ensure(ctx, server.URL, path, false, false))
	require.NoError(t, f.Ensure(ctx, server.URL, path, false, false))
	assert.Equal(t, 1, hits, "second call reuses the cache")

	require.NoError(t, f.Ensure(ctx, server.URL, path, false, true))
	assert.Equal(t, 2, hits, "refresh forces a re-download")
}

func TestFetcher_EnsureOffline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")
	f := NewFetcher(nil, 0, nil)

	err := f.Ensure(context.Background(), "http://unused.invalid", path, true, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
}
