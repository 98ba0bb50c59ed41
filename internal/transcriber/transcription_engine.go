package transcriber

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"quranvideo/internal/dsp"
)

// TranscriptionEngine manages the speech model and transcribes recitation
// audio clips
type TranscriptionEngine struct {
	logger *zap.Logger
	model  WhisperModel
}

// NewTranscriptionEngine creates a new TranscriptionEngine instance
func NewTranscriptionEngine(logger *zap.Logger) *TranscriptionEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptionEngine{
		logger: logger,
		model:  NewWhisperCppModel(logger),
	}
}

// NewTranscriptionEngineWithModel creates a TranscriptionEngine with a
// custom model implementation
func NewTranscriptionEngineWithModel(logger *zap.Logger, model WhisperModel) *TranscriptionEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptionEngine{logger: logger, model: model}
}

// LoadModel loads the speech model from the specified path
func (te *TranscriptionEngine) LoadModel(modelPath string) error {
	if te.model == nil {
		return fmt.Errorf("whisper model not initialized")
	}
	if err := te.model.LoadModel(modelPath); err != nil {
		return fmt.Errorf("failed to load Whisper model from %s: %w", modelPath, err)
	}
	return nil
}

// Transcribe runs recognition on one audio clip
func (te *TranscriptionEngine) Transcribe(ctx context.Context, clip *dsp.Clip) (*TranscriptionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if te.model == nil {
		return nil, fmt.Errorf("whisper model not initialized")
	}

	result, err := te.model.Transcribe(clip)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	te.logger.Debug("transcribed audio clip",
		zap.Float64("duration_s", clip.DurationSeconds()),
		zap.Int("tokens", len(result.Tokens)),
		zap.Bool("token_timing", result.HasTokenTiming()))

	return result, nil
}

// Close releases the engine's model resources
func (te *TranscriptionEngine) Close() error {
	if te.model == nil {
		return nil
	}
	return te.model.Close()
}
