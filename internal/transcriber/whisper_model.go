package transcriber

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"quranvideo/internal/dsp"
)

// WhisperModel interface defines the operations needed from the speech
// recognition model
type WhisperModel interface {
	LoadModel(modelPath string) error
	Transcribe(clip *dsp.Clip) (*TranscriptionResult, error)
	Close() error
}

// WhisperCppModel implements the WhisperModel interface
// This is a simplified implementation for demonstration purposes
// In production, this would use the actual Whisper.cpp bindings
type WhisperCppModel struct {
	modelPath string
	logger    *zap.Logger
	isLoaded  bool
}

// NewWhisperCppModel creates a new instance of the Whisper.cpp model
func NewWhisperCppModel(logger *zap.Logger) *WhisperCppModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhisperCppModel{logger: logger}
}

// LoadModel loads the Whisper model from the specified path
func (w *WhisperCppModel) LoadModel(modelPath string) error {
	w.logger.Info("loading Whisper.cpp model", zap.String("path", modelPath))

	if modelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}

	// In a real implementation, this would load the actual Whisper.cpp model
	w.modelPath = modelPath
	w.isLoaded = true

	w.logger.Info("Whisper.cpp model loaded successfully", zap.String("path", modelPath))
	return nil
}

// Transcribe processes an audio clip and returns the recognized text with
// per-token timing
func (w *WhisperCppModel) Transcribe(clip *dsp.Clip) (*TranscriptionResult, error) {
	if !w.isLoaded {
		return nil, fmt.Errorf("whisper model not loaded")
	}
	if clip == nil || len(clip.Samples) == 0 {
		return nil, fmt.Errorf("audio clip is empty")
	}

	w.logger.Debug("starting transcription",
		zap.Int("samples", len(clip.Samples)),
		zap.Int("sample_rate", clip.SampleRate))

	result := w.generateSimulatedTranscription(clip)

	w.logger.Info("transcription completed",
		zap.Int("tokens", len(result.Tokens)))
	return result, nil
}

// generateSimulatedTranscription creates a deterministic recitation
// transcript for testing: the basmala words spread evenly over the clip.
// In a real implementation, this would run Whisper.cpp inference.
func (w *WhisperCppModel) generateSimulatedTranscription(clip *dsp.Clip) *TranscriptionResult {
	words := []string{"بسم", "الله", "الرحمن", "الرحيم"}
	durationMS := clip.DurationMS()
	if durationMS < len(words) {
		durationMS = len(words)
	}
	step := durationMS / len(words)

	result := &TranscriptionResult{Text: strings.Join(words, " ")}
	for i, word := range words {
		result.Tokens = append(result.Tokens, TranscriptionToken{
			Text:       word,
			StartMS:    i * step,
			EndMS:      (i + 1) * step,
			Confidence: 0.9,
		})
	}
	return result
}

// Close releases the Whisper model resources
func (w *WhisperCppModel) Close() error {
	w.logger.Info("closing Whisper.cpp model")
	w.isLoaded = false
	w.modelPath = ""
	return nil
}
