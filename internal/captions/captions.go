// Package captions groups word time spans into caption display windows
// that satisfy a minimum display duration without overlapping each other.
package captions

import (
	"strings"

	"go.uber.org/zap"

	"quranvideo/internal/timing"
)

// Window is one caption display window covering one or more words
type Window struct {
	Text        string  `json:"text"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	WordIndices []int   `json:"word_indices"`
}

// Grouper builds display windows from word spans
type Grouper struct {
	minDuration float64
	logger      *zap.Logger
}

// NewGrouper creates a grouper with the given minimum display duration in
// seconds
func NewGrouper(minDuration float64) *Grouper {
	return &Grouper{minDuration: minDuration, logger: zap.NewNop()}
}

// NewGrouperWithLogger creates a grouper with a custom logger
func NewGrouperWithLogger(minDuration float64, logger *zap.Logger) *Grouper {
	grouper := NewGrouper(minDuration)
	if logger != nil {
		grouper.logger = logger
	}
	return grouper
}

// Group walks the spans (sorted by start time) and greedily accumulates
// consecutive words until the group's natural span reaches the minimum
// duration. A window's end never extends past the next word's start and
// never shrinks below the natural coverage of its words. Every input word
// lands in exactly one window.
func (g *Grouper) Group(spans []timing.WordSpan) []Window {
	if len(spans) == 0 {
		return []Window{}
	}

	windows := make([]Window, 0)
	i := 0
	for i < len(spans) {
		groupStart := spans[i].Start
		j := i
		for {
			naturalEnd := spans[j].End
			lastWord := j == len(spans)-1
			if naturalEnd-groupStart >= g.minDuration || lastWord {
				break
			}
			j++
		}

		naturalEnd := spans[j].End
		end := naturalEnd
		if groupStart+g.minDuration > end {
			end = groupStart + g.minDuration
		}
		if next := j + 1; next < len(spans) && spans[next].Start < end {
			end = spans[next].Start
		}
		if end < groupStart {
			end = groupStart
		}

		texts := make([]string, 0, j-i+1)
		indices := make([]int, 0, j-i+1)
		for k := i; k <= j; k++ {
			texts = append(texts, spans[k].Word)
			indices = append(indices, k)
		}

		windows = append(windows, Window{
			Text:        strings.Join(texts, " "),
			Start:       groupStart,
			End:         end,
			WordIndices: indices,
		})
		i = j + 1
	}

	g.logger.Debug("grouped caption windows",
		zap.Int("words", len(spans)),
		zap.Int("windows", len(windows)))
	return windows
}
