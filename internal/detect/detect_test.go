package detect

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves a tiny two-surah catalog from memory
type fakeSource struct {
	surahs map[int][]string
}

func (f *fakeSource) SurahCount() int { return len(f.surahs) }

func (f *fakeSource) AyahCount(surah int) int { return len(f.surahs[surah]) }

func (f *fakeSource) UnitText(_ context.Context, surah, ayah int) (string, error) {
	units, ok := f.surahs[surah]
	if !ok || ayah < 1 || ayah > len(units) {
		return "", fmt.Errorf("no unit %d:%d", surah, ayah)
	}
	return units[ayah-1], nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		surahs: map[int][]string{
			1: {
				"بِسْمِ ٱللَّهِ ٱلرَّحْمَٰنِ ٱلرَّحِيمِ",
				"ٱلْحَمْدُ لِلَّهِ رَبِّ ٱلْعَٰلَمِينَ",
				"ٱلرَّحْمَٰنِ ٱلرَّحِيمِ",
			},
			2: {
				"قُلْ هُوَ ٱللَّهُ أَحَدٌ",
				"ٱللَّهُ ٱلصَّمَدُ",
			},
		},
	}
}

func TestDetector_Detect_ExactSingleUnit(t *testing.T) {
	// Arrange: transcript is surah 1 ayah 2, with diacritics stripped
	detector := NewDetector(newFakeSource(), DefaultMinRatio)

	// Act
	match, err := detector.Detect(context.Background(), "الحمد لله رب العالمين", 0)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 1, match.Surah)
	assert.Equal(t, 2, match.StartAyah)
	assert.Equal(t, 2, match.EndAyah)
	assert.InDelta(t, 1.0, match.Ratio, 0.01)
}

func TestDetector_Detect_MultiUnitRange(t *testing.T) {
	detector := NewDetector(newFakeSource(), DefaultMinRatio)

	transcript := "بسم الله الرحمن الرحيم الحمد لله رب العالمين"
	match, err := detector.Detect(context.Background(), transcript, 0)

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 1, match.Surah)
	assert.Equal(t, 1, match.StartAyah)
	assert.Equal(t, 2, match.EndAyah)
	assert.Greater(t, match.Ratio, DefaultMinRatio)
}

func TestDetector_Detect_HintNarrowsSearch(t *testing.T) {
	detector := NewDetector(newFakeSource(), DefaultMinRatio)

	match, err := detector.Detect(context.Background(), "قل هو الله احد", 2)

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 2, match.Surah)
	assert.Equal(t, 1, match.StartAyah)
	assert.Equal(t, 1, match.EndAyah)
}

func TestDetector_Detect_BelowThresholdReturnsNone(t *testing.T) {
	detector := NewDetector(newFakeSource(), DefaultMinRatio)

	// Latin text shares almost nothing with the catalog
	match, err := detector.Detect(context.Background(), "completely unrelated transcript text", 0)

	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestDetector_Detect_TooShortTranscript(t *testing.T) {
	detector := NewDetector(newFakeSource(), DefaultMinRatio)

	match, err := detector.Detect(context.Background(), "بسم", 0)

	require.NoError(t, err)
	assert.Nil(t, match, "single-word transcripts should not be searched")
}

func TestDetector_Detect_Idempotent(t *testing.T) {
	detector := NewDetector(newFakeSource(), DefaultMinRatio)
	transcript := "بسم الله الرحمن الرحيم"

	first, err := detector.Detect(context.Background(), transcript, 0)
	require.NoError(t, err)
	second, err := detector.Detect(context.Background(), transcript, 0)
	require.NoError(t, err)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}

func TestDetector_Detect_CancelledContext(t *testing.T) {
	detector := NewDetector(newFakeSource(), DefaultMinRatio)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := detector.Detect(ctx, "بسم الله الرحمن الرحيم", 0)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestMapOffsets_BoundaryPolicy(t *testing.T) {
	// Three units: [0,3], [5,8], [10,13] with separators at 4 and 9
	ranges := []unitRange{
		{ayah: 1, start: 0, end: 3},
		{ayah: 2, start: 5, end: 8},
		{ayah: 3, start: 10, end: 13},
	}
	// Indices here double as ayah-1 since the units are contiguous

	tests := []struct {
		name      string
		start     int
		end       int
		wantStart int
		wantEnd   int
	}{
		{"inside single unit", 5, 8, 1, 1},
		{"spanning two units", 2, 7, 0, 1},
		{"start on separator picks earlier unit", 4, 8, 0, 1},
		{"end on separator picks later unit", 0, 9, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := mapOffsets(ranges, tt.start, tt.end)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}
