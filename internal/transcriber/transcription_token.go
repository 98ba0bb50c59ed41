package transcriber

import "fmt"

// TranscriptionToken is a single recognized word with its time span within
// the transcribed clip
type TranscriptionToken struct {
	Text       string  `json:"text"`
	StartMS    int     `json:"start_ms"`
	EndMS      int     `json:"end_ms"`
	Confidence float32 `json:"confidence"`
}

// Validate checks if the TranscriptionToken has valid values
func (t *TranscriptionToken) Validate() error {
	if t.Text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	if t.StartMS < 0 {
		return fmt.Errorf("start_ms cannot be negative")
	}

	if t.EndMS <= t.StartMS {
		return fmt.Errorf("end_ms must be greater than start_ms")
	}

	if t.Confidence < 0.0 || t.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0")
	}

	return nil
}

// TranscriptionResult is the full output for one clip: the complete text
// plus per-token timing when the model produced it. Tokens may be empty for
// models that emit text only.
type TranscriptionResult struct {
	Text   string               `json:"text"`
	Tokens []TranscriptionToken `json:"tokens"`
}

// HasTokenTiming reports whether any token carries a usable time span
func (r *TranscriptionResult) HasTokenTiming() bool {
	for _, tok := range r.Tokens {
		if tok.EndMS > tok.StartMS {
			return true
		}
	}
	return false
}
