package transcriber

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ModelDownloader handles downloading Whisper models from HuggingFace
type ModelDownloader struct {
	logger    *zap.Logger
	modelsDir string
	client    *http.Client
	baseURL   string
}

// NewModelDownloader creates a new model downloader instance
func NewModelDownloader(logger *zap.Logger, modelsDir string) *ModelDownloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelDownloader{
		logger:    logger,
		modelsDir: modelsDir,
		client: &http.Client{
			Timeout: 10 * time.Minute, // Long timeout for large model downloads
		},
		baseURL: "https://huggingface.co/ggerganov/whisper.cpp/resolve/main",
	}
}

// ModelPath returns the local path for a named model
func (d *ModelDownloader) ModelPath(modelName string) string {
	return filepath.Join(d.modelsDir, fmt.Sprintf("ggml-%s.bin", modelName))
}

// EnsureModelExists checks if a model file exists, and downloads it if it
// doesn't
func (d *ModelDownloader) EnsureModelExists(modelName string) (string, error) {
	modelPath := d.ModelPath(modelName)

	if _, err := os.Stat(modelPath); err == nil {
		d.logger.Info("model already exists",
			zap.String("model", modelName),
			zap.String("path", modelPath))
		return modelPath, nil
	}

	if err := os.MkdirAll(d.modelsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	downloadURL := fmt.Sprintf("%s/ggml-%s.bin", d.baseURL, modelName)
	d.logger.Info("downloading Whisper model",
		zap.String("model", modelName),
		zap.String("url", downloadURL))

	resp, err := d.client.Get(downloadURL)
	if err != nil {
		return "", fmt.Errorf("failed to download model %s: %w", modelName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model download returned HTTP %d for %s", resp.StatusCode, modelName)
	}

	// Download to a temp file first so a partial download never looks like
	// a complete model
	tmpPath := modelPath + ".partial"
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temp model file: %w", err)
	}

	written, err := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		os.Remove(tmpPath)
		if err == nil {
			err = closeErr
		}
		return "", fmt.Errorf("failed to write model file: %w", err)
	}

	if err := os.Rename(tmpPath, modelPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move model into place: %w", err)
	}

	d.logger.Info("model download complete",
		zap.String("model", modelName),
		zap.String("path", modelPath),
		zap.Int64("bytes", written))

	return modelPath, nil
}
