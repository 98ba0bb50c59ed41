// Package assembler joins per-verse audio segments into one continuous
// track, trimming silence and crossfading the seams while tracking the
// cumulative offset each segment starts at.
package assembler

import (
	"errors"

	"go.uber.org/zap"

	"quranvideo/internal/dsp"
)

// ErrNoUsableSegments is returned when every input segment failed trimming
// and nothing is left to assemble
var ErrNoUsableSegments = errors.New("no usable audio segments after trimming")

// AudioProcessor is the audio-primitives capability the assembler depends
// on. *dsp.PCMProcessor satisfies it.
type AudioProcessor interface {
	TrimSilence(clip *dsp.Clip, thresholdDB float64, minSilenceLenMS int) (*dsp.Clip, bool)
	Crossfade(a, b *dsp.Clip, fadeMS int) (*dsp.Clip, error)
	Append(a, b *dsp.Clip) (*dsp.Clip, error)
}

// Options control silence trimming, crossfade joins, and trailing padding
type Options struct {
	SilenceThresholdDB float64
	MinSilenceLenMS    int
	CrossfadeMS        int
	PaddingMS          int
}

// Segment is one input audio segment with its caller-assigned identifier
type Segment struct {
	ID   string
	Clip *dsp.Clip
}

// SegmentResult reports how one input segment fared. Offset is the
// cumulative start position the caller must shift the segment's word spans
// by; it is the running sum of preceding trimmed durations, so under
// crossfade it drifts slightly ahead of the true position on the track.
type SegmentResult struct {
	ID              string
	TrimmedDuration float64
	Offset          float64
	Failed          bool
}

// Result is the assembled track with per-segment bookkeeping
type Result struct {
	Track         *dsp.Clip
	TotalDuration float64
	Segments      []SegmentResult
}

// Assembler builds a single track from ordered audio segments
type Assembler struct {
	processor AudioProcessor
	logger    *zap.Logger
}

// NewAssembler creates an assembler over the given audio processor
func NewAssembler(processor AudioProcessor) *Assembler {
	return &Assembler{processor: processor, logger: zap.NewNop()}
}

// NewAssemblerWithLogger creates an assembler with a custom logger
func NewAssemblerWithLogger(processor AudioProcessor, logger *zap.Logger) *Assembler {
	assembler := NewAssembler(processor)
	if logger != nil {
		assembler.logger = logger
	}
	return assembler
}

// Assemble trims and joins the segments in order. A segment that fails
// trimming is flagged and excluded without failing the batch; the batch
// fails only when no segment survives.
func (a *Assembler) Assemble(segments []Segment, opts Options) (*Result, error) {
	result := &Result{Segments: make([]SegmentResult, 0, len(segments))}

	var track *dsp.Clip
	var prevTrimmed *dsp.Clip
	offset := 0.0

	for _, seg := range segments {
		trimmed, ok := a.trim(seg, opts)
		if !ok {
			result.Segments = append(result.Segments, SegmentResult{
				ID:     seg.ID,
				Offset: offset,
				Failed: true,
			})
			continue
		}

		if track == nil {
			track = trimmed
		} else {
			fadeMS := clampFade(opts.CrossfadeMS, prevTrimmed, trimmed)
			joined, err := a.processor.Crossfade(track, trimmed, fadeMS)
			if err != nil {
				a.logger.Warn("failed to join audio segment",
					zap.String("segment_id", seg.ID),
					zap.Error(err))
				result.Segments = append(result.Segments, SegmentResult{
					ID:     seg.ID,
					Offset: offset,
					Failed: true,
				})
				continue
			}
			track = joined
		}

		duration := trimmed.DurationSeconds()
		result.Segments = append(result.Segments, SegmentResult{
			ID:              seg.ID,
			TrimmedDuration: duration,
			Offset:          offset,
		})
		offset += duration
		prevTrimmed = trimmed
	}

	if track == nil {
		return nil, ErrNoUsableSegments
	}

	if opts.PaddingMS > 0 {
		padding := dsp.NewSilence(opts.PaddingMS, track.SampleRate, track.BitDepth)
		padded, err := a.processor.Append(track, padding)
		if err == nil {
			track = padded
		} else {
			a.logger.Warn("failed to append trailing padding", zap.Error(err))
		}
	}

	result.Track = track
	result.TotalDuration = track.DurationSeconds()

	a.logger.Info("assembled audio track",
		zap.Int("segments_in", len(segments)),
		zap.Int("segments_used", countUsed(result.Segments)),
		zap.Float64("total_duration_s", result.TotalDuration))

	return result, nil
}

func (a *Assembler) trim(seg Segment, opts Options) (*dsp.Clip, bool) {
	if seg.Clip == nil || len(seg.Clip.Samples) == 0 {
		a.logger.Warn("audio segment has no samples", zap.String("segment_id", seg.ID))
		return nil, false
	}
	trimmed, ok := a.processor.TrimSilence(seg.Clip, opts.SilenceThresholdDB, opts.MinSilenceLenMS)
	if !ok {
		a.logger.Warn("audio segment is entirely silent", zap.String("segment_id", seg.ID))
		return nil, false
	}
	return trimmed, true
}

// clampFade keeps the crossfade no longer than either neighboring segment
func clampFade(fadeMS int, prev, next *dsp.Clip) int {
	if fadeMS < 0 {
		return 0
	}
	if prev != nil && prev.DurationMS() < fadeMS {
		fadeMS = prev.DurationMS()
	}
	if next != nil && next.DurationMS() < fadeMS {
		fadeMS = next.DurationMS()
	}
	return fadeMS
}

func countUsed(segments []SegmentResult) int {
	used := 0
	for _, s := range segments {
		if !s.Failed {
			used++
		}
	}
	return used
}
