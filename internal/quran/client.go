package quran

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned when the provider has no data for the requested verse
var ErrNotFound = errors.New("verse not found")

// Client fetches verse records, translations, and recitation audio from the
// public Quran APIs
type Client struct {
	quranBaseURL       string
	translationBaseURL string
	audioBaseURL       string
	httpClient         *http.Client
	logger             *zap.Logger
	maxRetries         int
	baseBackoff        time.Duration
}

// NewClient creates a new API client
func NewClient(quranBaseURL, translationBaseURL, audioBaseURL string, timeout time.Duration) *Client {
	return &Client{
		quranBaseURL:       quranBaseURL,
		translationBaseURL: translationBaseURL,
		audioBaseURL:       audioBaseURL,
		httpClient:         &http.Client{Timeout: timeout},
		logger:             zap.NewNop(),
		maxRetries:         3,
		baseBackoff:        500 * time.Millisecond,
	}
}

// NewClientWithLogger creates a new API client with a custom logger
func NewClientWithLogger(quranBaseURL, translationBaseURL, audioBaseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	client := NewClient(quranBaseURL, translationBaseURL, audioBaseURL, timeout)
	if logger != nil {
		client.logger = logger
	}
	return client
}

// verse API response shapes

type verseEnvelope struct {
	Verse *verseJSON `json:"verse"`
}

type verseJSON struct {
	VerseKey    string     `json:"verse_key"`
	TextUthmani string     `json:"text_uthmani"`
	Words       []wordJSON `json:"words"`
	Audio       *audioJSON `json:"audio"`
}

type wordJSON struct {
	TextUthmani     string `json:"text_uthmani"`
	CharTypeName    string `json:"char_type_name"`
	TimestampFrom   *int   `json:"timestamp_from"`
	TimestampTo     *int   `json:"timestamp_to"`
	CharOffsetStart *int   `json:"char_offset_start"`
	CharOffsetEnd   *int   `json:"char_offset_end"`
}

type audioJSON struct {
	URL      string  `json:"url"`
	Segments [][]int `json:"segments"`
}

type translationEnvelope struct {
	Code int `json:"code"`
	Data struct {
		Text string `json:"text"`
	} `json:"data"`
}

// FetchVerse retrieves the record for one verse. reciterID selects the
// recitation whose audio URL and timing the record should carry; pass an
// empty reciterID for a text-only record.
func (c *Client) FetchVerse(ctx context.Context, loc Locator, reciterID string) (*VerseRecord, error) {
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid locator: %w", err)
	}

	endpoint := fmt.Sprintf("%s/verses/by_key/%s", c.quranBaseURL, loc.Key())
	params := url.Values{}
	params.Set("words", "true")
	params.Set("word_fields", "text_uthmani,char_type_name,char_offset_start,char_offset_end")
	params.Set("fields", "text_uthmani")
	if reciterID != "" {
		params.Set("audio", reciterID)
	}

	c.logger.Debug("fetching verse data",
		zap.String("verse_key", loc.Key()),
		zap.String("reciter_id", reciterID))

	body, err := c.getWithRetry(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch verse %s: %w", loc.Key(), err)
	}

	var envelope verseEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse verse response for %s: %w", loc.Key(), err)
	}
	if envelope.Verse == nil || envelope.Verse.TextUthmani == "" {
		return nil, fmt.Errorf("verse %s: %w", loc.Key(), ErrNotFound)
	}

	record := &VerseRecord{
		Surah: loc.Surah,
		Ayah:  loc.Ayah,
		Text:  envelope.Verse.TextUthmani,
	}

	for _, w := range envelope.Verse.Words {
		// Skip verse-number markers and other non-word tokens
		if w.CharTypeName != "" && w.CharTypeName != "word" {
			continue
		}
		word := VerseWord{
			Text:            w.TextUthmani,
			TimestampFromMS: w.TimestampFrom,
			TimestampToMS:   w.TimestampTo,
		}
		if w.CharOffsetStart != nil {
			word.CharStart = *w.CharOffsetStart
		}
		if w.CharOffsetEnd != nil {
			word.CharEnd = *w.CharOffsetEnd
		}
		record.Words = append(record.Words, word)
	}

	if envelope.Verse.Audio != nil {
		record.AudioURL = envelope.Verse.Audio.URL
		record.Segments = envelope.Verse.Audio.Segments
	}

	c.logger.Debug("fetched verse data",
		zap.String("verse_key", loc.Key()),
		zap.Int("words", len(record.Words)),
		zap.Int("segments", len(record.Segments)),
		zap.Bool("direct_timing", record.HasDirectTiming()))

	return record, nil
}

// FetchTranslation retrieves the translation text for one verse using the
// given translation identifier (e.g. "en.sahih")
func (c *Client) FetchTranslation(ctx context.Context, loc Locator, identifier string) (string, error) {
	if err := loc.Validate(); err != nil {
		return "", fmt.Errorf("invalid locator: %w", err)
	}

	endpoint := fmt.Sprintf("%s/ayah/%s/%s", c.translationBaseURL, loc.Key(), identifier)
	body, err := c.getWithRetry(ctx, endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to fetch translation %s for %s: %w", identifier, loc.Key(), err)
	}

	var envelope translationEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("failed to parse translation response for %s: %w", loc.Key(), err)
	}
	if envelope.Code != 200 || envelope.Data.Text == "" {
		return "", fmt.Errorf("translation %s for %s: %w", identifier, loc.Key(), ErrNotFound)
	}

	return envelope.Data.Text, nil
}

// DownloadAudio downloads a recitation audio file to destPath. audioURL may
// be relative, in which case it is resolved against the configured audio
// base URL.
func (c *Client) DownloadAudio(ctx context.Context, audioURL, destPath string) error {
	if audioURL == "" {
		return fmt.Errorf("no audio URL provided")
	}

	resolved := audioURL
	if parsed, err := url.Parse(audioURL); err == nil && !parsed.IsAbs() {
		base, err := url.Parse(c.audioBaseURL)
		if err != nil {
			return fmt.Errorf("invalid audio base URL %q: %w", c.audioBaseURL, err)
		}
		resolved = base.ResolveReference(parsed).String()
	}

	c.logger.Info("downloading recitation audio",
		zap.String("url", resolved),
		zap.String("dest", destPath))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download audio from %s: %w", resolved, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("audio download returned HTTP %d for %s", resp.StatusCode, resolved)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create audio directory: %w", err)
	}

	file, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create audio file %s: %w", destPath, err)
	}
	defer file.Close()

	written, err := io.Copy(file, resp.Body)
	if err != nil {
		os.Remove(destPath)
		return fmt.Errorf("failed to write audio file %s: %w", destPath, err)
	}

	c.logger.Debug("audio download complete",
		zap.String("dest", destPath),
		zap.Int64("bytes", written))

	return nil
}

// getWithRetry performs a GET with exponential backoff on transient failures
func (c *Client) getWithRetry(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.baseBackoff * time.Duration(1<<(attempt-1))
			c.logger.Debug("retrying request",
				zap.String("url", fullURL),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK && readErr == nil:
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case readErr != nil:
			lastErr = readErr
		default:
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			// Client errors other than 404 will not improve on retry
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return nil, lastErr
			}
		}
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
}
