// Package align maps transcript tokens onto reference words, producing one
// time span per reference word.
package align

import (
	"github.com/antzucaro/matchr"
	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"

	"quranvideo/internal/quran"
	"quranvideo/internal/textnorm"
	"quranvideo/internal/timing"
)

// DefaultReplaceSimilarity is the minimum Jaro-Winkler similarity for a
// replaced token to still donate its timing to a reference word
const DefaultReplaceSimilarity = 0.8

// Token is one recognizer token with its time span in seconds. HasTiming
// distinguishes a genuine zero-time token from one the recognizer emitted
// without timing.
type Token struct {
	Text      string
	Start     float64
	End       float64
	HasTiming bool
}

// Aligner aligns transcript tokens to reference words
type Aligner struct {
	replaceSimilarity float64
	logger            *zap.Logger
}

// NewAligner creates an aligner with the given replace-similarity threshold
func NewAligner(replaceSimilarity float64) *Aligner {
	if replaceSimilarity <= 0 {
		replaceSimilarity = DefaultReplaceSimilarity
	}
	return &Aligner{
		replaceSimilarity: replaceSimilarity,
		logger:            zap.NewNop(),
	}
}

// NewAlignerWithLogger creates an aligner with a custom logger
func NewAlignerWithLogger(replaceSimilarity float64, logger *zap.Logger) *Aligner {
	aligner := NewAligner(replaceSimilarity)
	if logger != nil {
		aligner.logger = logger
	}
	return aligner
}

// Align returns one WordSpan per reference word. Tokens carrying timing are
// matched by opcode alignment over the normalized sequences; words the
// alignment cannot resolve fall back to proportional distribution over the
// surrounding interval. When no token carries timing the whole word list is
// distributed proportionally across [intervalStart, intervalEnd].
func (a *Aligner) Align(tokens []Token, words []quran.ReferenceWord, intervalStart, intervalEnd float64) []timing.WordSpan {
	if len(words) == 0 {
		return []timing.WordSpan{}
	}

	timed := timedTokens(tokens)
	if len(timed) == 0 {
		a.logger.Debug("no token timing, distributing proportionally",
			zap.Int("words", len(words)),
			zap.Float64("interval_start", intervalStart),
			zap.Float64("interval_end", intervalEnd))
		return DistributeProportionally(wordTexts(words), intervalStart, intervalEnd)
	}

	spans := a.alignTokens(timed, words)
	a.fillUnresolved(spans, words, intervalStart, intervalEnd)
	return spans
}

// timedTokens filters to tokens that carry timing and non-empty text
func timedTokens(tokens []Token) []Token {
	timed := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.HasTiming && textnorm.Normalize(tok.Text) != "" {
			timed = append(timed, tok)
		}
	}
	return timed
}

// alignTokens runs opcode alignment between normalized token and word
// sequences. Words outside equal blocks (and replaced words too dissimilar
// to their token) come back tagged unresolved.
func (a *Aligner) alignTokens(tokens []Token, words []quran.ReferenceWord) []timing.WordSpan {
	tokenNorms := make([]string, len(tokens))
	for i, tok := range tokens {
		tokenNorms[i] = textnorm.Normalize(tok.Text)
	}
	wordNorms := make([]string, len(words))
	for i, w := range words {
		wordNorms[i] = textnorm.Normalize(w.Text)
	}

	spans := make([]timing.WordSpan, len(words))
	for i, w := range words {
		spans[i] = timing.WordSpan{Word: w.Text, Origin: timing.OriginUnresolved}
	}

	matcher := difflib.NewMatcher(tokenNorms, wordNorms)
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for k := 0; k < op.J2-op.J1; k++ {
				tok := tokens[op.I1+k]
				spans[op.J1+k].Start = tok.Start
				spans[op.J1+k].End = tok.End
				spans[op.J1+k].Origin = timing.OriginDirect
			}
		case 'r':
			// Equal-length replace runs are matched pairwise; a token close
			// enough to its word still donates its timing
			if op.I2-op.I1 != op.J2-op.J1 {
				continue
			}
			for k := 0; k < op.J2-op.J1; k++ {
				tok := tokens[op.I1+k]
				similarity := matchr.JaroWinkler(tokenNorms[op.I1+k], wordNorms[op.J1+k], false)
				if similarity < a.replaceSimilarity {
					a.logger.Debug("replaced token too dissimilar",
						zap.String("token", tok.Text),
						zap.String("word", words[op.J1+k].Text),
						zap.Float64("similarity", similarity))
					continue
				}
				spans[op.J1+k].Start = tok.Start
				spans[op.J1+k].End = tok.End
				spans[op.J1+k].Origin = timing.OriginDirect
			}
		}
	}
	return spans
}

// fillUnresolved distributes each maximal run of unresolved words over the
// interval between its resolved neighbors
func (a *Aligner) fillUnresolved(spans []timing.WordSpan, words []quran.ReferenceWord, intervalStart, intervalEnd float64) {
	i := 0
	for i < len(spans) {
		if spans[i].Origin != timing.OriginUnresolved {
			i++
			continue
		}
		runStart := i
		for i < len(spans) && spans[i].Origin == timing.OriginUnresolved {
			i++
		}
		runEnd := i // exclusive

		gapStart := intervalStart
		if runStart > 0 {
			gapStart = spans[runStart-1].End
		}
		gapEnd := intervalEnd
		if runEnd < len(spans) {
			gapEnd = spans[runEnd].Start
		}
		if gapEnd < gapStart {
			gapEnd = gapStart
		}

		texts := make([]string, 0, runEnd-runStart)
		for j := runStart; j < runEnd; j++ {
			texts = append(texts, words[j].Text)
		}
		filled := DistributeProportionally(texts, gapStart, gapEnd)
		copy(spans[runStart:runEnd], filled)

		a.logger.Debug("filled unresolved words proportionally",
			zap.Int("count", runEnd-runStart),
			zap.Float64("gap_start", gapStart),
			zap.Float64("gap_end", gapEnd))
	}
}

// DistributeProportionally allocates [start, end] across the words in order,
// each word's share proportional to its character length. Spans are
// contiguous with no gaps or overlaps. A group whose total character length
// is zero gets the full interval assigned to every word.
func DistributeProportionally(words []string, start, end float64) []timing.WordSpan {
	spans := make([]timing.WordSpan, 0, len(words))
	if len(words) == 0 {
		return spans
	}
	if end < start {
		end = start
	}

	totalChars := 0
	for _, w := range words {
		totalChars += len([]rune(w))
	}

	if totalChars == 0 {
		for _, w := range words {
			spans = append(spans, timing.WordSpan{
				Word:   w,
				Start:  start,
				End:    end,
				Origin: timing.OriginProportional,
			})
		}
		return spans
	}

	total := end - start
	cursor := start
	for i, w := range words {
		duration := total * float64(len([]rune(w))) / float64(totalChars)
		wordEnd := cursor + duration
		if i == len(words)-1 {
			// Absorb floating-point remainder so the group ends exactly at end
			wordEnd = end
		}
		spans = append(spans, timing.WordSpan{
			Word:   w,
			Start:  cursor,
			End:    wordEnd,
			Origin: timing.OriginProportional,
		})
		cursor = wordEnd
	}
	return spans
}

func wordTexts(words []quran.ReferenceWord) []string {
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	return texts
}
