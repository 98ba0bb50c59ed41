package dsp

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 16000

// tone builds a clip holding a constant-amplitude square-ish signal
func tone(durationMS int, amplitude int) *Clip {
	clip := NewSilence(durationMS, testRate, 16)
	for i := range clip.Samples {
		if i%2 == 0 {
			clip.Samples[i] = amplitude
		} else {
			clip.Samples[i] = -amplitude
		}
	}
	return clip
}

// withSilence surrounds a tone with leading and trailing silence
func withSilence(leadMS, toneMS, tailMS int) *Clip {
	clip := NewSilence(leadMS+toneMS+tailMS, testRate, 16)
	loud := tone(toneMS, 8000)
	copy(clip.Samples[leadMS*testRate/1000:], loud.Samples)
	return clip
}

func TestClip_Durations(t *testing.T) {
	clip := NewSilence(1500, testRate, 16)
	assert.Equal(t, 1500, clip.DurationMS())
	assert.InDelta(t, 1.5, clip.DurationSeconds(), 1e-9)
}

func TestClip_SliceClampsBounds(t *testing.T) {
	clip := tone(100, 1000)

	slice := clip.Slice(-50, 5000)
	assert.Equal(t, len(clip.Samples), len(slice.Samples))

	middle := clip.Slice(20, 60)
	assert.Equal(t, 40, middle.DurationMS())
}

func TestPCMProcessor_DetectNonSilent(t *testing.T) {
	// Arrange: 200ms silence, 300ms tone, 200ms silence
	clip := withSilence(200, 300, 200)
	processor := NewPCMProcessor()

	// Act
	regions := processor.DetectNonSilent(clip, -40.0, 100)

	// Assert
	require.Len(t, regions, 1)
	assert.InDelta(t, 200, regions[0].StartMS, float64(frameMS))
	assert.InDelta(t, 500, regions[0].EndMS, float64(frameMS))
}

func TestPCMProcessor_DetectNonSilent_ShortGapIsFolded(t *testing.T) {
	// Two tones separated by a 50ms gap, below the 100ms minimum
	clip := NewSilence(450, testRate, 16)
	copy(clip.Samples, tone(200, 8000).Samples)
	copy(clip.Samples[250*testRate/1000:], tone(200, 8000).Samples)
	processor := NewPCMProcessor()

	regions := processor.DetectNonSilent(clip, -40.0, 100)

	require.Len(t, regions, 1, "a short interior gap should not split the region")
}

func TestPCMProcessor_DetectNonSilent_AllSilent(t *testing.T) {
	processor := NewPCMProcessor()
	assert.Empty(t, processor.DetectNonSilent(NewSilence(500, testRate, 16), -40.0, 100))
}

func TestPCMProcessor_TrimSilence(t *testing.T) {
	clip := withSilence(300, 400, 300)
	processor := NewPCMProcessor()

	trimmed, ok := processor.TrimSilence(clip, -40.0, 100)

	require.True(t, ok)
	assert.InDelta(t, 400, trimmed.DurationMS(), 2*float64(frameMS))
}

func TestPCMProcessor_TrimSilence_FullySilent(t *testing.T) {
	processor := NewPCMProcessor()

	trimmed, ok := processor.TrimSilence(NewSilence(500, testRate, 16), -40.0, 100)

	assert.False(t, ok)
	assert.Nil(t, trimmed)
}

func TestPCMProcessor_Crossfade_Length(t *testing.T) {
	a := tone(3000, 8000)
	b := tone(3000, 8000)
	processor := NewPCMProcessor()

	joined, err := processor.Crossfade(a, b, 150)

	require.NoError(t, err)
	assert.Equal(t, 3000+3000-150, joined.DurationMS())
}

func TestPCMProcessor_Crossfade_ClampsToShorterClip(t *testing.T) {
	a := tone(3000, 8000)
	b := tone(80, 8000)
	processor := NewPCMProcessor()

	joined, err := processor.Crossfade(a, b, 150)

	require.NoError(t, err)
	// Overlap cannot exceed the 80ms clip
	assert.Equal(t, 3000, joined.DurationMS())
}

func TestPCMProcessor_Crossfade_SampleRateMismatch(t *testing.T) {
	a := tone(100, 8000)
	b := &Clip{Samples: make([]int, 441), SampleRate: 44100, BitDepth: 16}

	_, err := NewPCMProcessor().Crossfade(a, b, 50)

	assert.Error(t, err)
}

func TestPCMProcessor_Append(t *testing.T) {
	processor := NewPCMProcessor()

	joined, err := processor.Append(tone(100, 8000), tone(200, 8000))

	require.NoError(t, err)
	assert.Equal(t, 300, joined.DurationMS())
}

func TestClip_RMSDBFS(t *testing.T) {
	loud := tone(100, 16384) // half of full scale
	db := loud.rmsDBFS(0, len(loud.Samples))
	assert.InDelta(t, -6.0, db, 0.1)

	quiet := NewSilence(100, testRate, 16)
	assert.True(t, math.IsInf(quiet.rmsDBFS(0, len(quiet.Samples)), -1))
}

func TestWAVRoundTrip(t *testing.T) {
	clip := tone(250, 5000)
	path := filepath.Join(t.TempDir(), "roundtrip.wav")

	require.NoError(t, EncodeWAVFile(path, clip))
	decoded, err := DecodeWAVFile(path)

	require.NoError(t, err)
	assert.Equal(t, clip.SampleRate, decoded.SampleRate)
	assert.Equal(t, len(clip.Samples), len(decoded.Samples))
	assert.Equal(t, clip.Samples[:100], decoded.Samples[:100])
}

func TestDecodeWAVFile_MissingFile(t *testing.T) {
	_, err := DecodeWAVFile(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}
