package app

import (
	"fmt"

	"quranvideo/internal/quran"
)

// Request is one video generation request with registry keys already
// resolved against configuration by the caller-facing layer
type Request struct {
	Surah       int    `json:"surah"`
	StartAyah   int    `json:"start_ayah"`
	EndAyah     int    `json:"end_ayah"`
	Reciter     string `json:"reciter"`
	Translation string `json:"translation"`
	Background  string `json:"background"`
}

// Validate checks the request against the verse catalog and the configured
// registries
func (r Request) Validate(reciters, translations, backgrounds map[string]string) error {
	if !quran.ValidSurah(r.Surah) {
		return fmt.Errorf("surah must be between 1 and %d, got %d", quran.TotalSurahs, r.Surah)
	}
	count := quran.AyahCount(r.Surah)
	if r.StartAyah < 1 || r.StartAyah > count {
		return fmt.Errorf("start_ayah must be between 1 and %d for surah %d, got %d", count, r.Surah, r.StartAyah)
	}
	if r.EndAyah < r.StartAyah || r.EndAyah > count {
		return fmt.Errorf("end_ayah must be between %d and %d for surah %d, got %d", r.StartAyah, count, r.Surah, r.EndAyah)
	}
	if _, ok := reciters[r.Reciter]; !ok {
		return fmt.Errorf("unknown reciter %q", r.Reciter)
	}
	if _, ok := translations[r.Translation]; !ok {
		return fmt.Errorf("unknown translation %q", r.Translation)
	}
	if _, ok := backgrounds[r.Background]; !ok {
		return fmt.Errorf("unknown background %q", r.Background)
	}
	return nil
}
