package dsp

import (
	"go.uber.org/zap"
)

// frameMS is the analysis window for silence detection
const frameMS = 10

// Region is a half-open [StartMS, EndMS) time range within a clip
type Region struct {
	StartMS int
	EndMS   int
}

// PCMProcessor implements silence detection and crossfade mixing directly
// on in-memory PCM samples
type PCMProcessor struct {
	logger *zap.Logger
}

// NewPCMProcessor creates a PCM processor
func NewPCMProcessor() *PCMProcessor {
	return &PCMProcessor{logger: zap.NewNop()}
}

// NewPCMProcessorWithLogger creates a PCM processor with a custom logger
func NewPCMProcessorWithLogger(logger *zap.Logger) *PCMProcessor {
	processor := NewPCMProcessor()
	if logger != nil {
		processor.logger = logger
	}
	return processor
}

// DetectNonSilent returns the non-silent regions of a clip. A frame is
// silent when its RMS level falls below thresholdDB; silent runs shorter
// than minSilenceLenMS are folded into the surrounding audio.
func (p *PCMProcessor) DetectNonSilent(clip *Clip, thresholdDB float64, minSilenceLenMS int) []Region {
	if clip == nil || len(clip.Samples) == 0 {
		return nil
	}

	frameSamples := frameMS * clip.SampleRate / 1000
	if frameSamples == 0 {
		frameSamples = 1
	}
	frameCount := (len(clip.Samples) + frameSamples - 1) / frameSamples

	silent := make([]bool, frameCount)
	for i := 0; i < frameCount; i++ {
		start := i * frameSamples
		end := start + frameSamples
		if end > len(clip.Samples) {
			end = len(clip.Samples)
		}
		silent[i] = clip.rmsDBFS(start, end) < thresholdDB
	}

	// Silent runs shorter than the minimum length do not split the audio
	minFrames := minSilenceLenMS / frameMS
	if minFrames < 1 {
		minFrames = 1
	}
	for i := 0; i < frameCount; {
		if !silent[i] {
			i++
			continue
		}
		runStart := i
		for i < frameCount && silent[i] {
			i++
		}
		interior := runStart > 0 && i < frameCount
		if interior && i-runStart < minFrames {
			for j := runStart; j < i; j++ {
				silent[j] = false
			}
		}
	}

	var regions []Region
	for i := 0; i < frameCount; {
		if silent[i] {
			i++
			continue
		}
		runStart := i
		for i < frameCount && !silent[i] {
			i++
		}
		endMS := i * frameMS
		if i == frameCount {
			endMS = clip.DurationMS()
		}
		regions = append(regions, Region{StartMS: runStart * frameMS, EndMS: endMS})
	}
	return regions
}

// TrimSilence cuts a clip down to [first non-silent start, last non-silent
// end]. The second return value reports whether any non-silent audio was
// found; a fully silent clip returns (nil, false).
func (p *PCMProcessor) TrimSilence(clip *Clip, thresholdDB float64, minSilenceLenMS int) (*Clip, bool) {
	regions := p.DetectNonSilent(clip, thresholdDB, minSilenceLenMS)
	if len(regions) == 0 {
		return nil, false
	}
	trimmed := clip.Slice(regions[0].StartMS, regions[len(regions)-1].EndMS)
	p.logger.Debug("trimmed silence",
		zap.Int("original_ms", clip.DurationMS()),
		zap.Int("trimmed_ms", trimmed.DurationMS()))
	return trimmed, true
}

// Crossfade joins two clips with a linear overlapping fade. The overlap is
// clamped so it never exceeds either clip's length.
func (p *PCMProcessor) Crossfade(a, b *Clip, fadeMS int) (*Clip, error) {
	if err := validateCompatible(a, b); err != nil {
		return nil, err
	}

	overlap := fadeMS * a.SampleRate / 1000
	if overlap > len(a.Samples) {
		overlap = len(a.Samples)
	}
	if overlap > len(b.Samples) {
		overlap = len(b.Samples)
	}
	if overlap < 0 {
		overlap = 0
	}

	out := make([]int, len(a.Samples)+len(b.Samples)-overlap)
	copy(out, a.Samples)
	if overlap > 0 {
		base := len(a.Samples) - overlap
		for i := 0; i < overlap; i++ {
			fadeIn := float64(i) / float64(overlap)
			mixed := float64(a.Samples[base+i])*(1-fadeIn) + float64(b.Samples[i])*fadeIn
			out[base+i] = int(mixed)
		}
	}
	copy(out[len(a.Samples):], b.Samples[overlap:])

	return &Clip{Samples: out, SampleRate: a.SampleRate, BitDepth: a.BitDepth}, nil
}

// Append concatenates two clips without a fade
func (p *PCMProcessor) Append(a, b *Clip) (*Clip, error) {
	return p.Crossfade(a, b, 0)
}
