package transcriber

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelDownloader_EnsureModelExists_DownloadsMissingModel(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ggml-base.bin", r.URL.Path)
		w.Write([]byte("model-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	downloader := NewModelDownloader(nil, dir)
	downloader.baseURL = server.URL

	// Act
	path, err := downloader.EnsureModelExists("base")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ggml-base.bin"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "model-bytes", string(data))
}

func TestModelDownloader_EnsureModelExists_SkipsExistingModel(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "ggml-base.bin")
	require.NoError(t, os.WriteFile(existing, []byte("cached"), 0o644))

	// No server: any download attempt would fail
	downloader := NewModelDownloader(nil, dir)
	downloader.baseURL = "http://127.0.0.1:0"

	path, err := downloader.EnsureModelExists("base")

	require.NoError(t, err)
	assert.Equal(t, existing, path)
}

func TestModelDownloader_EnsureModelExists_DownloadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	downloader := NewModelDownloader(nil, dir)
	downloader.baseURL = server.URL

	_, err := downloader.EnsureModelExists("missing")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
