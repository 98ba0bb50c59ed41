// Package dsp provides the PCM audio primitives the segment assembler
// builds on: silence detection, trimming, crossfade joins, and WAV I/O.
package dsp

import (
	"fmt"
	"math"
)

// Clip is a mono PCM audio clip held in memory
type Clip struct {
	Samples    []int
	SampleRate int
	BitDepth   int
}

// NewSilence creates a clip of digital silence
func NewSilence(durationMS, sampleRate, bitDepth int) *Clip {
	if durationMS < 0 {
		durationMS = 0
	}
	return &Clip{
		Samples:    make([]int, durationMS*sampleRate/1000),
		SampleRate: sampleRate,
		BitDepth:   bitDepth,
	}
}

// DurationMS returns the clip duration in milliseconds
func (c *Clip) DurationMS() int {
	if c.SampleRate == 0 {
		return 0
	}
	return len(c.Samples) * 1000 / c.SampleRate
}

// DurationSeconds returns the clip duration in seconds
func (c *Clip) DurationSeconds() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Slice returns a new clip covering [startMS, endMS). Bounds are clamped to
// the clip length.
func (c *Clip) Slice(startMS, endMS int) *Clip {
	start := startMS * c.SampleRate / 1000
	end := endMS * c.SampleRate / 1000
	if start < 0 {
		start = 0
	}
	if end > len(c.Samples) {
		end = len(c.Samples)
	}
	if start > end {
		start = end
	}
	out := make([]int, end-start)
	copy(out, c.Samples[start:end])
	return &Clip{Samples: out, SampleRate: c.SampleRate, BitDepth: c.BitDepth}
}

// fullScale returns the maximum sample magnitude for the clip's bit depth
func (c *Clip) fullScale() float64 {
	depth := c.BitDepth
	if depth == 0 {
		depth = 16
	}
	return math.Pow(2, float64(depth-1))
}

// rmsDBFS computes the RMS level of a sample window in dB relative to full
// scale. A window of digital silence returns -inf.
func (c *Clip) rmsDBFS(start, end int) float64 {
	if start >= end {
		return math.Inf(-1)
	}
	var sum float64
	for _, s := range c.Samples[start:end] {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(end-start))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms/c.fullScale())
}

// validateCompatible checks that two clips can be mixed sample-for-sample
func validateCompatible(a, b *Clip) error {
	if a.SampleRate != b.SampleRate {
		return fmt.Errorf("sample rate mismatch: %d vs %d", a.SampleRate, b.SampleRate)
	}
	return nil
}
