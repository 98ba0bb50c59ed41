// Package detect locates the contiguous verse range that a raw transcript
// most likely recites.
package detect

import (
	"context"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"

	"quranvideo/internal/textnorm"
)

// DefaultMinRatio is the minimum similarity ratio a candidate range must
// reach to be reported
const DefaultMinRatio = 0.4

// UnitSource supplies canonical verse text for scanning. Implementations
// return the raw text; the detector normalizes it.
type UnitSource interface {
	SurahCount() int
	AyahCount(surah int) int
	UnitText(ctx context.Context, surah, ayah int) (string, error)
}

// Match is the best-matching contiguous verse range for a transcript
type Match struct {
	Surah     int     `json:"surah"`
	StartAyah int     `json:"start_ayah"`
	EndAyah   int     `json:"end_ayah"`
	Ratio     float64 `json:"ratio"`
}

// unitRange records one unit's inclusive character range within a surah
// concatenation
type unitRange struct {
	ayah  int
	start int
	end   int
}

// Detector scans reference units for the range best matching a transcript
type Detector struct {
	source   UnitSource
	minRatio float64
	logger   *zap.Logger
}

// NewDetector creates a detector over the given unit source
func NewDetector(source UnitSource, minRatio float64) *Detector {
	if minRatio <= 0 {
		minRatio = DefaultMinRatio
	}
	return &Detector{
		source:   source,
		minRatio: minRatio,
		logger:   zap.NewNop(),
	}
}

// NewDetectorWithLogger creates a detector with a custom logger
func NewDetectorWithLogger(source UnitSource, minRatio float64, logger *zap.Logger) *Detector {
	detector := NewDetector(source, minRatio)
	if logger != nil {
		detector.logger = logger
	}
	return detector
}

// Detect returns the best match for the transcript across the search space,
// or nil if nothing reaches the minimum ratio. hintSurah > 0 narrows the
// scan to that surah. A nil result is a normal outcome, not an error: the
// caller can still proceed with an explicitly supplied range.
func (d *Detector) Detect(ctx context.Context, transcript string, hintSurah int) (*Match, error) {
	normalized := textnorm.Normalize(transcript)
	if textnorm.WordCount(normalized) < 2 {
		d.logger.Debug("transcript too short for range detection",
			zap.Int("words", textnorm.WordCount(normalized)))
		return nil, nil
	}
	transcriptChars := splitChars(normalized)

	surahs := d.searchSpace(hintSurah)
	var best *Match

	for _, surah := range surahs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		match, err := d.scanSurah(ctx, surah, transcriptChars)
		if err != nil {
			return nil, err
		}
		if match == nil {
			continue
		}
		// Ties keep the first match found
		if best == nil || match.Ratio > best.Ratio {
			best = match
		}
	}

	if best == nil {
		d.logger.Info("no verse range reached the minimum similarity",
			zap.Float64("min_ratio", d.minRatio),
			zap.Int("hint_surah", hintSurah))
		return nil, nil
	}

	d.logger.Info("detected verse range",
		zap.Int("surah", best.Surah),
		zap.Int("start_ayah", best.StartAyah),
		zap.Int("end_ayah", best.EndAyah),
		zap.Float64("ratio", best.Ratio))
	return best, nil
}

func (d *Detector) searchSpace(hintSurah int) []int {
	if hintSurah >= 1 && hintSurah <= d.source.SurahCount() {
		return []int{hintSurah}
	}
	surahs := make([]int, 0, d.source.SurahCount())
	for s := 1; s <= d.source.SurahCount(); s++ {
		surahs = append(surahs, s)
	}
	return surahs
}

// scanSurah matches the transcript against one surah's concatenated text
func (d *Detector) scanSurah(ctx context.Context, surah int, transcriptChars []string) (*Match, error) {
	units, ranges, err := d.concatenate(ctx, surah)
	if err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return nil, nil
	}

	concat := strings.Join(units, " ")
	matcher := difflib.NewMatcher(transcriptChars, splitChars(concat))

	block := longestBlock(matcher.GetMatchingBlocks())
	if block.Size == 0 {
		return nil, nil
	}

	startIdx, endIdx := mapOffsets(ranges, block.B, block.B+block.Size-1)

	// Score the transcript against the selected range's own text, so the
	// ratio reflects how well the transcript covers exactly those units
	rangeText := strings.Join(units[startIdx:endIdx+1], " ")
	ratio := difflib.NewMatcher(transcriptChars, splitChars(rangeText)).Ratio()

	if ratio < d.minRatio {
		d.logger.Debug("surah candidate below minimum ratio",
			zap.Int("surah", surah),
			zap.Float64("ratio", ratio))
		return nil, nil
	}

	return &Match{
		Surah:     surah,
		StartAyah: ranges[startIdx].ayah,
		EndAyah:   ranges[endIdx].ayah,
		Ratio:     ratio,
	}, nil
}

// concatenate fetches and normalizes a surah's units, recording each unit's
// inclusive character range within the joined text
func (d *Detector) concatenate(ctx context.Context, surah int) ([]string, []unitRange, error) {
	count := d.source.AyahCount(surah)
	units := make([]string, 0, count)
	ranges := make([]unitRange, 0, count)
	offset := 0

	for ayah := 1; ayah <= count; ayah++ {
		text, err := d.source.UnitText(ctx, surah, ayah)
		if err != nil {
			return nil, nil, err
		}
		normalized := textnorm.Normalize(text)
		length := len([]rune(normalized))
		if length == 0 {
			d.logger.Warn("unit normalized to empty text",
				zap.Int("surah", surah),
				zap.Int("ayah", ayah))
			continue
		}
		if len(units) > 0 {
			offset++ // separator space
		}
		units = append(units, normalized)
		ranges = append(ranges, unitRange{ayah: ayah, start: offset, end: offset + length - 1})
		offset += length
	}

	return units, ranges, nil
}

// longestBlock returns the largest matching block, keeping the first on ties
func longestBlock(blocks []difflib.Match) difflib.Match {
	var best difflib.Match
	for _, b := range blocks {
		if b.Size > best.Size {
			best = b
		}
	}
	return best
}

// mapOffsets maps inclusive character offsets in the concatenation back to
// unit indices. An offset landing on a separator between two units selects
// the earlier unit for the start boundary and the later unit for the end
// boundary.
func mapOffsets(ranges []unitRange, startOffset, endOffset int) (startIdx, endIdx int) {
	for i, r := range ranges {
		if r.start <= startOffset {
			startIdx = i
		} else {
			break
		}
	}

	endIdx = len(ranges) - 1
	for i := len(ranges) - 1; i >= 0; i-- {
		if ranges[i].end >= endOffset {
			endIdx = i
		} else {
			break
		}
	}

	if endIdx < startIdx {
		endIdx = startIdx
	}
	return startIdx, endIdx
}

// splitChars splits a string into one element per rune for character-level
// sequence matching
func splitChars(s string) []string {
	runes := []rune(s)
	chars := make([]string, len(runes))
	for i, r := range runes {
		chars[i] = string(r)
	}
	return chars
}
