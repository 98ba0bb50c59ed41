// Package processor converts downloaded recitation audio into the mono PCM
// format the rest of the pipeline works on, using an FFmpeg child process.
package processor

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"quranvideo/internal/dsp"
)

// AudioProcessor manages FFmpeg invocations for audio format conversion
type AudioProcessor struct {
	logger     *zap.Logger
	ffmpegPath string
	sampleRate int
}

// NewAudioProcessor creates a new AudioProcessor instance
func NewAudioProcessor(ffmpegPath string, sampleRate int, logger *zap.Logger) *AudioProcessor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AudioProcessor{
		logger:     logger,
		ffmpegPath: ffmpegPath,
		sampleRate: sampleRate,
	}
}

// ConvertToWAV converts an audio file (typically MP3) to a mono 16-bit WAV
// file at the processor's sample rate
func (a *AudioProcessor) ConvertToWAV(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-y", // Overwrite output without prompting
		"-i", inputPath,
		"-ar", fmt.Sprintf("%d", a.sampleRate),
		"-ac", "1", // Mono channel
		"-sample_fmt", "s16",
		outputPath,
	}

	a.logger.Info("starting ffmpeg process for audio conversion",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("sample_rate", a.sampleRate))

	cmd := exec.CommandContext(ctx, a.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	a.logger.Debug("ffmpeg process started",
		zap.Int("pid", cmd.Process.Pid))

	var lastLine string
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lastLine = line
			a.logger.Debug("ffmpeg stderr", zap.String("output", line))
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg conversion failed for %s: %w (%s)", inputPath, err, lastLine)
	}

	a.logger.Info("audio conversion completed",
		zap.String("output", outputPath))
	return nil
}

// LoadAsClip converts an audio file and decodes the result into an
// in-memory clip. The intermediate WAV is written next to outputPath's
// directory by ConvertToWAV.
func (a *AudioProcessor) LoadAsClip(ctx context.Context, inputPath, wavPath string) (*dsp.Clip, error) {
	if err := a.ConvertToWAV(ctx, inputPath, wavPath); err != nil {
		return nil, err
	}
	clip, err := dsp.DecodeWAVFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to decode converted audio: %w", err)
	}
	return clip, nil
}
