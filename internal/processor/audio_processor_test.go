package processor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewAudioProcessor_Defaults(t *testing.T) {
	processor := NewAudioProcessor("", 0, nil)

	assert.Equal(t, "ffmpeg", processor.ffmpegPath)
	assert.Equal(t, 16000, processor.sampleRate)
	assert.NotNil(t, processor.logger)
}

func TestNewAudioProcessor_CustomValues(t *testing.T) {
	processor := NewAudioProcessor("/usr/local/bin/ffmpeg", 44100, zap.NewNop())

	assert.Equal(t, "/usr/local/bin/ffmpeg", processor.ffmpegPath)
	assert.Equal(t, 44100, processor.sampleRate)
}

func TestAudioProcessor_ConvertToWAV_MissingBinary(t *testing.T) {
	processor := NewAudioProcessor("/nonexistent/ffmpeg", 16000, zap.NewNop())
	dir := t.TempDir()

	err := processor.ConvertToWAV(context.Background(),
		filepath.Join(dir, "in.mp3"), filepath.Join(dir, "out.wav"))

	assert.Error(t, err)
}

func TestAudioProcessor_LoadAsClip_ConversionFailure(t *testing.T) {
	processor := NewAudioProcessor("/nonexistent/ffmpeg", 16000, zap.NewNop())
	dir := t.TempDir()

	clip, err := processor.LoadAsClip(context.Background(),
		filepath.Join(dir, "in.mp3"), filepath.Join(dir, "out.wav"))

	assert.Error(t, err)
	assert.Nil(t, clip)
}
