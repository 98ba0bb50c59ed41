package renderer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0.0, "0:00:00.00"},
		{1.5, "0:00:01.50"},
		{65.25, "0:01:05.25"},
		{3661.07, "1:01:01.07"},
		{-2.0, "0:00:00.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatTimestamp(tt.seconds))
	}
}

func TestSubtitleWriter_WriteASS(t *testing.T) {
	// Arrange
	writer := NewSubtitleWriter(1920, 1080)
	path := filepath.Join(t.TempDir(), "captions.ass")
	events := []Event{
		{Start: 0.0, End: 2.0, Text: "بسم الله الرحمن الرحيم", Translation: "In the name of Allah"},
		{Start: 2.0, End: 4.5, Text: "الحمد لله رب العالمين"},
	}

	// Act
	err := writer.WriteASS(path, events)

	// Assert
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "[Script Info]")
	assert.Contains(t, content, "PlayResX: 1920")
	assert.Contains(t, content, "Dialogue: 0,0:00:00.00,0:00:02.00,Arabic,,0,0,0,,بسم الله الرحمن الرحيم")
	assert.Contains(t, content, "Dialogue: 0,0:00:00.00,0:00:02.00,Translation,,0,0,0,,In the name of Allah")
	assert.Contains(t, content, "Dialogue: 0,0:00:02.00,0:00:04.50,Arabic,,0,0,0,,الحمد لله رب العالمين")
	// Only one translation line was provided
	assert.Equal(t, 1, strings.Count(content, "Translation,,"))
}

func TestSubtitleWriter_WriteASS_SkipsDegenerateEvents(t *testing.T) {
	writer := NewSubtitleWriter(1920, 1080)
	path := filepath.Join(t.TempDir(), "captions.ass")

	err := writer.WriteASS(path, []Event{
		{Start: 1.0, End: 1.0, Text: "zero duration"},
		{Start: 0.0, End: 1.0, Text: ""},
	})

	require.NoError(t, err)
	data, _ := os.ReadFile(path)
	assert.NotContains(t, string(data), "Dialogue:")
}

func TestEscapeText(t *testing.T) {
	assert.Equal(t, "a(b)c", escapeText("a{b}c"))
	assert.Equal(t, "line\\Nbreak", escapeText("line\nbreak"))
	assert.Equal(t, "back\\\\slash", escapeText("back\\slash"))
}

func TestVideoRenderer_Render_MissingBinary(t *testing.T) {
	renderer := NewVideoRendererWithLogger("/nonexistent/ffmpeg", 30, 1920, 1080, zap.NewNop())
	dir := t.TempDir()

	err := renderer.Render(context.Background(),
		filepath.Join(dir, "bg.jpg"),
		filepath.Join(dir, "audio.wav"),
		"",
		filepath.Join(dir, "out.mp4"),
		5.0)

	assert.Error(t, err)
}

func TestNewVideoRenderer_Defaults(t *testing.T) {
	renderer := NewVideoRenderer("", 0, 0, 0)
	assert.Equal(t, "ffmpeg", renderer.ffmpegPath)
	assert.Equal(t, 30, renderer.fps)
	assert.Equal(t, 1920, renderer.width)
	assert.Equal(t, 1080, renderer.height)
}
