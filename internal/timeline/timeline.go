// Package timeline builds the final render-ready artifact for one request:
// word spans shifted onto the concatenated track, caption windows, and the
// track itself.
package timeline

import (
	"go.uber.org/zap"

	"quranvideo/internal/align"
	"quranvideo/internal/assembler"
	"quranvideo/internal/captions"
	"quranvideo/internal/dsp"
	"quranvideo/internal/quran"
	"quranvideo/internal/timing"
)

// UnitInput is one verse's worth of input: its fetched record, downloaded
// audio, and optional recognizer tokens
type UnitInput struct {
	Record *quran.VerseRecord
	Clip   *dsp.Clip
	Tokens []align.Token
}

// UnitTimeline is one verse's word spans in global track time. Failed marks
// a verse whose audio was lost during assembly; its spans are empty.
type UnitTimeline struct {
	Locator quran.Locator     `json:"locator"`
	Spans   []timing.WordSpan `json:"spans"`
	Failed  bool              `json:"failed,omitempty"`
}

// Entry is one row of the serializable timeline record
type Entry struct {
	Locator quran.Locator `json:"locator"`
	Word    string        `json:"word"`
	Start   float64       `json:"start"`
	End     float64       `json:"end"`
	Origin  timing.Origin `json:"origin"`
}

// Timeline is the complete output artifact for one processing request
type Timeline struct {
	Units         []UnitTimeline
	Windows       []captions.Window
	Track         *dsp.Clip
	TotalDuration float64
}

// Entries flattens the timeline into its serializable record form
func (t *Timeline) Entries() []Entry {
	var entries []Entry
	for _, unit := range t.Units {
		for _, span := range unit.Spans {
			entries = append(entries, Entry{
				Locator: unit.Locator,
				Word:    span.Word,
				Start:   span.Start,
				End:     span.End,
				Origin:  span.Origin,
			})
		}
	}
	return entries
}

// Builder assembles audio and derives globally-offset word spans and
// caption windows for a sequence of verses
type Builder struct {
	resolver  *timing.Resolver
	aligner   *align.Aligner
	assembler *assembler.Assembler
	grouper   *captions.Grouper
	opts      assembler.Options
	logger    *zap.Logger
}

// NewBuilder creates a timeline builder
func NewBuilder(resolver *timing.Resolver, aligner *align.Aligner, asm *assembler.Assembler, grouper *captions.Grouper, opts assembler.Options) *Builder {
	return &Builder{
		resolver:  resolver,
		aligner:   aligner,
		assembler: asm,
		grouper:   grouper,
		opts:      opts,
		logger:    zap.NewNop(),
	}
}

// NewBuilderWithLogger creates a timeline builder with a custom logger
func NewBuilderWithLogger(resolver *timing.Resolver, aligner *align.Aligner, asm *assembler.Assembler, grouper *captions.Grouper, opts assembler.Options, logger *zap.Logger) *Builder {
	builder := NewBuilder(resolver, aligner, asm, grouper, opts)
	if logger != nil {
		builder.logger = logger
	}
	return builder
}

// Build assembles the units' audio into one track and places every verse's
// word spans in global track time. Word timing per verse comes from direct
// record timing when present, otherwise from token alignment with a
// proportional fallback over the verse's trimmed duration. Assembly failure
// for every unit is the only fatal condition.
func (b *Builder) Build(units []UnitInput) (*Timeline, error) {
	segments := make([]assembler.Segment, len(units))
	for i, unit := range units {
		segments[i] = assembler.Segment{ID: unit.Record.Locator().Key(), Clip: unit.Clip}
	}

	assembled, err := b.assembler.Assemble(segments, b.opts)
	if err != nil {
		return nil, err
	}

	result := &Timeline{
		Track:         assembled.Track,
		TotalDuration: assembled.TotalDuration,
	}

	var allSpans []timing.WordSpan
	for i, unit := range units {
		seg := assembled.Segments[i]
		unitTimeline := UnitTimeline{Locator: unit.Record.Locator()}

		if seg.Failed {
			unitTimeline.Failed = true
			b.logger.Warn("verse audio lost during assembly, no spans placed",
				zap.String("verse_key", unitTimeline.Locator.Key()))
			result.Units = append(result.Units, unitTimeline)
			continue
		}

		spans := b.unitSpans(unit, seg.TrimmedDuration)
		for j := range spans {
			spans[j].Start += seg.Offset
			spans[j].End += seg.Offset
		}
		unitTimeline.Spans = spans
		allSpans = append(allSpans, spans...)
		result.Units = append(result.Units, unitTimeline)
	}

	result.Windows = b.grouper.Group(allSpans)

	b.logger.Info("built timeline",
		zap.Int("units", len(result.Units)),
		zap.Int("words", len(allSpans)),
		zap.Int("windows", len(result.Windows)),
		zap.Float64("total_duration_s", result.TotalDuration))

	return result, nil
}

// unitSpans resolves one verse's word spans in segment-local time
func (b *Builder) unitSpans(unit UnitInput, trimmedDuration float64) []timing.WordSpan {
	spans := b.resolver.Resolve(unit.Record)
	if len(spans) > 0 {
		return spans
	}

	words := unit.Record.Unit().Words
	b.logger.Debug("no record timing, aligning recognizer tokens",
		zap.String("verse_key", unit.Record.Locator().Key()),
		zap.Int("tokens", len(unit.Tokens)),
		zap.Int("words", len(words)))
	return b.aligner.Align(unit.Tokens, words, 0, trimmedDuration)
}
