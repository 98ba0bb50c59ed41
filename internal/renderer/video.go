package renderer

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// VideoRenderer composites the background, assembled audio, and subtitle
// overlay into the final video with FFmpeg
type VideoRenderer struct {
	ffmpegPath string
	fps        int
	width      int
	height     int
	logger     *zap.Logger
}

// NewVideoRenderer creates a video renderer
func NewVideoRenderer(ffmpegPath string, fps, width, height int) *VideoRenderer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if fps <= 0 {
		fps = 30
	}
	if width <= 0 {
		width = 1920
	}
	if height <= 0 {
		height = 1080
	}
	return &VideoRenderer{
		ffmpegPath: ffmpegPath,
		fps:        fps,
		width:      width,
		height:     height,
		logger:     zap.NewNop(),
	}
}

// NewVideoRendererWithLogger creates a video renderer with a custom logger
func NewVideoRendererWithLogger(ffmpegPath string, fps, width, height int, logger *zap.Logger) *VideoRenderer {
	renderer := NewVideoRenderer(ffmpegPath, fps, width, height)
	if logger != nil {
		renderer.logger = logger
	}
	return renderer
}

// Render loops the background asset under the audio track, burns in the
// subtitles, and writes the output file. duration is the audio track length
// in seconds.
func (r *VideoRenderer) Render(ctx context.Context, backgroundPath, audioPath, subtitlePath, outputPath string, duration float64) error {
	scale := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
		r.width, r.height, r.width, r.height)
	filter := scale
	if subtitlePath != "" {
		filter = fmt.Sprintf("%s,ass=%s", scale, escapeFilterPath(subtitlePath))
	}

	args := []string{
		"-y",
		"-stream_loop", "-1",
		"-i", backgroundPath,
		"-i", audioPath,
		"-vf", filter,
		"-r", fmt.Sprintf("%d", r.fps),
		"-t", fmt.Sprintf("%.3f", duration),
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		outputPath,
	}

	r.logger.Info("starting ffmpeg process for video rendering",
		zap.String("background", backgroundPath),
		zap.String("audio", audioPath),
		zap.String("output", outputPath),
		zap.Float64("duration_s", duration))

	cmd := exec.CommandContext(ctx, r.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	var lastLine string
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lastLine = line
			r.logger.Debug("ffmpeg stderr", zap.String("output", line))
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("video rendering failed: %w (%s)", err, lastLine)
	}

	r.logger.Info("video rendering completed", zap.String("output", outputPath))
	return nil
}

// escapeFilterPath escapes a path for use inside an FFmpeg filter argument
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	path = strings.ReplaceAll(path, "'", "\\'")
	return path
}
