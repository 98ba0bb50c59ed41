// Package renderer writes caption overlays and composites the final video
// with FFmpeg.
package renderer

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Event is one subtitle entry: the Arabic caption text and an optional
// translation line shown beneath it
type Event struct {
	Start       float64
	End         float64
	Text        string
	Translation string
}

// assHeader is the static ASS script preamble. Two styles: the recitation
// text centered high, the translation smaller beneath it.
const assHeader = `[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
WrapStyle: 0
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Arabic,Amiri,64,&H00FFFFFF,&H000000FF,&H00000000,&H80000000,0,0,0,0,100,100,0,0,1,3,1,8,40,40,%d,1
Style: Translation,Arial,36,&H00E8E8E8,&H000000FF,&H00000000,&H80000000,0,0,0,0,100,100,0,0,1,2,1,2,60,60,%d,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Text
`

// SubtitleWriter produces ASS subtitle files from caption events
type SubtitleWriter struct {
	width  int
	height int
	logger *zap.Logger
}

// NewSubtitleWriter creates a subtitle writer for the given video geometry
func NewSubtitleWriter(width, height int) *SubtitleWriter {
	if width <= 0 {
		width = 1920
	}
	if height <= 0 {
		height = 1080
	}
	return &SubtitleWriter{width: width, height: height, logger: zap.NewNop()}
}

// NewSubtitleWriterWithLogger creates a subtitle writer with a custom logger
func NewSubtitleWriterWithLogger(width, height int, logger *zap.Logger) *SubtitleWriter {
	writer := NewSubtitleWriter(width, height)
	if logger != nil {
		writer.logger = logger
	}
	return writer
}

// WriteASS writes the events to an ASS subtitle file
func (w *SubtitleWriter) WriteASS(path string, events []Event) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, assHeader, w.width, w.height, w.height/4, w.height/8)

	for _, ev := range events {
		if ev.End <= ev.Start || ev.Text == "" {
			continue
		}
		fmt.Fprintf(&sb, "Dialogue: 0,%s,%s,Arabic,,0,0,0,,%s\n",
			formatTimestamp(ev.Start), formatTimestamp(ev.End), escapeText(ev.Text))
		if ev.Translation != "" {
			fmt.Fprintf(&sb, "Dialogue: 0,%s,%s,Translation,,0,0,0,,%s\n",
				formatTimestamp(ev.Start), formatTimestamp(ev.End), escapeText(ev.Translation))
		}
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write subtitle file %s: %w", path, err)
	}

	w.logger.Debug("wrote subtitle file",
		zap.String("path", path),
		zap.Int("events", len(events)))
	return nil
}

// formatTimestamp renders seconds as the ASS H:MM:SS.CC form
func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	centis := int(seconds*100 + 0.5)
	h := centis / 360000
	m := centis / 6000 % 60
	s := centis / 100 % 60
	cs := centis % 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

// escapeText neutralizes characters ASS treats specially
func escapeText(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, "{", "(")
	text = strings.ReplaceAll(text, "}", ")")
	text = strings.ReplaceAll(text, "\n", "\\N")
	return text
}
