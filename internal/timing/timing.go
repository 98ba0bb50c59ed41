// Package timing resolves per-word time spans for a verse from whichever
// timing data its fetched record carries.
package timing

import (
	"go.uber.org/zap"

	"quranvideo/internal/quran"
)

// Origin records where a word's time span came from
type Origin string

const (
	// OriginDirect means the span came from per-word timestamps
	OriginDirect Origin = "direct"
	// OriginSegment means the span came from a coarse timing segment
	OriginSegment Origin = "segment"
	// OriginProportional means the span was distributed by character length
	OriginProportional Origin = "proportional"
	// OriginUnresolved means no timing could be derived for the word
	OriginUnresolved Origin = "unresolved"
)

// WordSpan is one verse word with its resolved time span in seconds
type WordSpan struct {
	Word   string  `json:"word"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Origin Origin  `json:"origin"`
}

// Resolver derives word spans from fetched verse records
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a new timing resolver
func NewResolver() *Resolver {
	return &Resolver{logger: zap.NewNop()}
}

// NewResolverWithLogger creates a new timing resolver with a custom logger
func NewResolverWithLogger(logger *zap.Logger) *Resolver {
	resolver := NewResolver()
	if logger != nil {
		resolver.logger = logger
	}
	return resolver
}

// Resolve returns the word spans for a verse record. Per-word timestamps are
// preferred; coarse timing segments are the fallback. A record carrying
// neither yields an empty slice, not an error, so callers can fall through
// to recognition-based alignment.
func (r *Resolver) Resolve(record *quran.VerseRecord) []WordSpan {
	if record == nil {
		return nil
	}

	if record.HasDirectTiming() {
		return r.resolveDirect(record)
	}
	if len(record.Segments) > 0 {
		return r.resolveSegments(record)
	}

	r.logger.Debug("no timing data in verse record",
		zap.String("verse_key", record.Locator().Key()))
	return []WordSpan{}
}

// resolveDirect converts per-word millisecond timestamps to spans. Words
// missing either timestamp are skipped.
func (r *Resolver) resolveDirect(record *quran.VerseRecord) []WordSpan {
	spans := make([]WordSpan, 0, len(record.Words))
	for i, word := range record.Words {
		if word.TimestampFromMS == nil || word.TimestampToMS == nil {
			r.logger.Debug("word missing direct timestamp",
				zap.String("verse_key", record.Locator().Key()),
				zap.Int("word_index", i))
			continue
		}
		spans = append(spans, WordSpan{
			Word:   word.Text,
			Start:  float64(*word.TimestampFromMS) / 1000.0,
			End:    float64(*word.TimestampToMS) / 1000.0,
			Origin: OriginDirect,
		})
	}
	return spans
}

// resolveSegments converts coarse timing segments to spans. Each segment is
// [wordIndex, _, startMS, endMS] with a 0-based word index; malformed
// entries, out-of-range indices, and duplicated indices are logged and
// skipped.
func (r *Resolver) resolveSegments(record *quran.VerseRecord) []WordSpan {
	spans := make([]WordSpan, 0, len(record.Segments))
	seen := make(map[int]bool, len(record.Segments))
	for i, seg := range record.Segments {
		if len(seg) < 4 {
			r.logger.Warn("malformed timing segment",
				zap.String("verse_key", record.Locator().Key()),
				zap.Int("segment_index", i),
				zap.Int("fields", len(seg)))
			continue
		}
		wordIndex := seg[0]
		if wordIndex < 0 || wordIndex >= len(record.Words) {
			r.logger.Warn("timing segment word index out of range",
				zap.String("verse_key", record.Locator().Key()),
				zap.Int("segment_index", i),
				zap.Int("word_index", wordIndex),
				zap.Int("word_count", len(record.Words)))
			continue
		}
		if seen[wordIndex] {
			r.logger.Warn("duplicate timing segment word index",
				zap.String("verse_key", record.Locator().Key()),
				zap.Int("segment_index", i),
				zap.Int("word_index", wordIndex))
			continue
		}
		seen[wordIndex] = true
		spans = append(spans, WordSpan{
			Word:   record.Words[wordIndex].Text,
			Start:  float64(seg[2]) / 1000.0,
			End:    float64(seg[3]) / 1000.0,
			Origin: OriginSegment,
		})
	}
	return spans
}
