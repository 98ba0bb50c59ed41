package quran

import "fmt"

// Locator identifies a single verse by surah and ayah number
type Locator struct {
	Surah int `json:"surah"`
	Ayah  int `json:"ayah"`
}

// Key returns the canonical "surah:ayah" form used by APIs and caches
func (l Locator) Key() string {
	return fmt.Sprintf("%d:%d", l.Surah, l.Ayah)
}

// Validate checks that the locator addresses an existing verse
func (l Locator) Validate() error {
	if !ValidSurah(l.Surah) {
		return fmt.Errorf("surah must be between 1 and %d, got %d", TotalSurahs, l.Surah)
	}
	if l.Ayah < 1 || l.Ayah > AyahCount(l.Surah) {
		return fmt.Errorf("ayah must be between 1 and %d for surah %d, got %d", AyahCount(l.Surah), l.Surah, l.Ayah)
	}
	return nil
}

// ReferenceWord is one canonical word of a verse with its character offsets
// within the verse text and its zero-based position in the verse
type ReferenceWord struct {
	Text      string `json:"text"`
	CharStart int    `json:"char_start"`
	CharEnd   int    `json:"char_end"`
	Position  int    `json:"position"`
}

// ReferenceUnit is the canonical text of one verse with its ordered words.
// Instances are immutable once fetched and safe to share across goroutines.
type ReferenceUnit struct {
	Surah int             `json:"surah"`
	Ayah  int             `json:"ayah"`
	Text  string          `json:"text"`
	Words []ReferenceWord `json:"words"`
}

// Locator returns the unit's verse locator
func (u *ReferenceUnit) Locator() Locator {
	return Locator{Surah: u.Surah, Ayah: u.Ayah}
}

// VerseWord is a fetched word with optional per-word timing in milliseconds.
// Nil timestamps mean the source carried no direct timing for the word.
type VerseWord struct {
	Text            string
	CharStart       int
	CharEnd         int
	TimestampFromMS *int
	TimestampToMS   *int
}

// VerseRecord is the full fetched record for one verse: canonical text and
// words, optional coarse timing segments ([wordIndex, _, startMS, endMS]),
// and the recitation audio URL when a reciter was requested
type VerseRecord struct {
	Surah    int
	Ayah     int
	Text     string
	Words    []VerseWord
	Segments [][]int
	AudioURL string
}

// Locator returns the record's verse locator
func (r *VerseRecord) Locator() Locator {
	return Locator{Surah: r.Surah, Ayah: r.Ayah}
}

// Unit derives the immutable ReferenceUnit view of the record
func (r *VerseRecord) Unit() *ReferenceUnit {
	words := make([]ReferenceWord, len(r.Words))
	for i, w := range r.Words {
		words[i] = ReferenceWord{
			Text:      w.Text,
			CharStart: w.CharStart,
			CharEnd:   w.CharEnd,
			Position:  i,
		}
	}
	return &ReferenceUnit{
		Surah: r.Surah,
		Ayah:  r.Ayah,
		Text:  r.Text,
		Words: words,
	}
}

// HasDirectTiming reports whether any word carries both timestamp fields
func (r *VerseRecord) HasDirectTiming() bool {
	for _, w := range r.Words {
		if w.TimestampFromMS != nil && w.TimestampToMS != nil {
			return true
		}
	}
	return false
}
