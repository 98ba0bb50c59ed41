package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quranvideo/internal/align"
	"quranvideo/internal/assembler"
	"quranvideo/internal/captions"
	"quranvideo/internal/dsp"
	"quranvideo/internal/quran"
	"quranvideo/internal/timing"
)

const testRate = 16000

func tone(durationMS int) *dsp.Clip {
	clip := dsp.NewSilence(durationMS, testRate, 16)
	for i := range clip.Samples {
		if i%2 == 0 {
			clip.Samples[i] = 8000
		} else {
			clip.Samples[i] = -8000
		}
	}
	return clip
}

func msPtr(v int) *int { return &v }

func newBuilder() *Builder {
	return NewBuilder(
		timing.NewResolver(),
		align.NewAligner(align.DefaultReplaceSimilarity),
		assembler.NewAssembler(dsp.NewPCMProcessor()),
		captions.NewGrouper(2.0),
		assembler.Options{
			SilenceThresholdDB: -40.0,
			MinSilenceLenMS:    100,
			CrossfadeMS:        150,
			PaddingMS:          100,
		},
	)
}

func timedRecord(surah, ayah int) *quran.VerseRecord {
	return &quran.VerseRecord{
		Surah: surah,
		Ayah:  ayah,
		Words: []quran.VerseWord{
			{Text: "بسم", TimestampFromMS: msPtr(0), TimestampToMS: msPtr(1000)},
			{Text: "الله", TimestampFromMS: msPtr(1000), TimestampToMS: msPtr(2000)},
		},
	}
}

func untimedRecord(surah, ayah int) *quran.VerseRecord {
	return &quran.VerseRecord{
		Surah: surah,
		Ayah:  ayah,
		Words: []quran.VerseWord{
			{Text: "الحمد"},
			{Text: "لله"},
		},
	}
}

func TestBuilder_Build_ShiftsSpansByCumulativeOffset(t *testing.T) {
	// Arrange: two 3s verses with direct timing
	units := []UnitInput{
		{Record: timedRecord(1, 1), Clip: tone(3000)},
		{Record: timedRecord(1, 2), Clip: tone(3000)},
	}

	// Act
	result, err := newBuilder().Build(units)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Units, 2)

	first := result.Units[0].Spans
	require.Len(t, first, 2)
	assert.Equal(t, 0.0, first[0].Start)

	// Second verse shifted by the first verse's trimmed duration (3.0s),
	// not by the crossfade-shortened track position
	second := result.Units[1].Spans
	require.Len(t, second, 2)
	assert.InDelta(t, 3.0, second[0].Start, 0.05)
	assert.InDelta(t, 5.0, second[1].End, 0.05)

	assert.InDelta(t, 5.95, result.TotalDuration, 0.05)
}

func TestBuilder_Build_FallsBackToProportional(t *testing.T) {
	units := []UnitInput{
		{Record: untimedRecord(1, 2), Clip: tone(2000)},
	}

	result, err := newBuilder().Build(units)

	require.NoError(t, err)
	spans := result.Units[0].Spans
	require.Len(t, spans, 2)
	for _, span := range spans {
		assert.Equal(t, timing.OriginProportional, span.Origin)
	}
	assert.Equal(t, 0.0, spans[0].Start)
	assert.InDelta(t, 2.0, spans[1].End, 0.05)
}

func TestBuilder_Build_TokenAlignmentWhenRecordUntimed(t *testing.T) {
	units := []UnitInput{
		{
			Record: untimedRecord(1, 2),
			Clip:   tone(2000),
			Tokens: []align.Token{
				{Text: "الحمد", Start: 0.1, End: 0.9, HasTiming: true},
				{Text: "لله", Start: 0.9, End: 1.8, HasTiming: true},
			},
		},
	}

	result, err := newBuilder().Build(units)

	require.NoError(t, err)
	spans := result.Units[0].Spans
	require.Len(t, spans, 2)
	assert.Equal(t, timing.OriginDirect, spans[0].Origin)
	assert.Equal(t, 0.1, spans[0].Start)
}

func TestBuilder_Build_FailedUnitHasNoSpans(t *testing.T) {
	units := []UnitInput{
		{Record: timedRecord(1, 1), Clip: tone(3000)},
		{Record: timedRecord(1, 2), Clip: dsp.NewSilence(3000, testRate, 16)},
		{Record: timedRecord(1, 3), Clip: tone(3000)},
	}

	result, err := newBuilder().Build(units)

	require.NoError(t, err)
	require.Len(t, result.Units, 3)
	assert.True(t, result.Units[1].Failed)
	assert.Empty(t, result.Units[1].Spans)

	// The third verse starts right after the first, skipping the lost one
	third := result.Units[2].Spans
	require.Len(t, third, 2)
	assert.InDelta(t, 3.0, third[0].Start, 0.05)
}

func TestBuilder_Build_AllUnitsLostIsFatal(t *testing.T) {
	units := []UnitInput{
		{Record: timedRecord(1, 1), Clip: dsp.NewSilence(1000, testRate, 16)},
	}

	_, err := newBuilder().Build(units)

	assert.ErrorIs(t, err, assembler.ErrNoUsableSegments)
}

func TestTimeline_Entries(t *testing.T) {
	tl := &Timeline{
		Units: []UnitTimeline{
			{
				Locator: quran.Locator{Surah: 1, Ayah: 1},
				Spans: []timing.WordSpan{
					{Word: "بسم", Start: 0.0, End: 0.5, Origin: timing.OriginDirect},
					{Word: "الله", Start: 0.5, End: 1.0, Origin: timing.OriginDirect},
				},
			},
			{Locator: quran.Locator{Surah: 1, Ayah: 2}, Failed: true},
		},
	}

	entries := tl.Entries()

	require.Len(t, entries, 2)
	assert.Equal(t, quran.Locator{Surah: 1, Ayah: 1}, entries[0].Locator)
	assert.Equal(t, "بسم", entries[0].Word)
	assert.Equal(t, timing.OriginDirect, entries[1].Origin)
}

func TestBuilder_Build_ProducesCaptionWindows(t *testing.T) {
	units := []UnitInput{
		{Record: timedRecord(1, 1), Clip: tone(3000)},
	}

	result, err := newBuilder().Build(units)

	require.NoError(t, err)
	require.NotEmpty(t, result.Windows)
	for i := 1; i < len(result.Windows); i++ {
		assert.LessOrEqual(t, result.Windows[i-1].End, result.Windows[i].Start)
	}
}
