package quran

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Provider serves verse records through a per-reciter cache so repeated
// lookups for the same verse hit the network only once. Canonical text is
// identical across reciters but timing data is not, so each reciter gets
// its own cache.
type Provider struct {
	client *Client
	logger *zap.Logger

	mu     sync.Mutex
	caches map[string]*Cache
}

// NewProvider creates a caching provider over the given client
func NewProvider(client *Client) *Provider {
	return &Provider{
		client: client,
		logger: zap.NewNop(),
		caches: make(map[string]*Cache),
	}
}

// NewProviderWithLogger creates a caching provider with a custom logger
func NewProviderWithLogger(client *Client, logger *zap.Logger) *Provider {
	provider := NewProvider(client)
	if logger != nil {
		provider.logger = logger
	}
	return provider
}

func (p *Provider) cacheFor(reciterID string) *Cache {
	p.mu.Lock()
	defer p.mu.Unlock()
	cache, ok := p.caches[reciterID]
	if !ok {
		cache = NewCache()
		p.caches[reciterID] = cache
	}
	return cache
}

// Verse returns the record for one verse, fetching it on a cache miss
func (p *Provider) Verse(ctx context.Context, loc Locator, reciterID string) (*VerseRecord, error) {
	cache := p.cacheFor(reciterID)
	if record, ok := cache.Get(loc); ok {
		return record, nil
	}

	record, err := p.client.FetchVerse(ctx, loc, reciterID)
	if err != nil {
		return nil, err
	}
	return cache.Put(record), nil
}

// Unit returns the immutable reference unit for one verse
func (p *Provider) Unit(ctx context.Context, loc Locator, reciterID string) (*ReferenceUnit, error) {
	record, err := p.Verse(ctx, loc, reciterID)
	if err != nil {
		return nil, err
	}
	return record.Unit(), nil
}

// Range returns the records for an inclusive ayah range within one surah,
// in ayah order
func (p *Provider) Range(ctx context.Context, surah, startAyah, endAyah int, reciterID string) ([]*VerseRecord, error) {
	if startAyah > endAyah {
		return nil, fmt.Errorf("start ayah %d is after end ayah %d", startAyah, endAyah)
	}

	records := make([]*VerseRecord, 0, endAyah-startAyah+1)
	for ayah := startAyah; ayah <= endAyah; ayah++ {
		record, err := p.Verse(ctx, Locator{Surah: surah, Ayah: ayah}, reciterID)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	p.logger.Debug("fetched verse range",
		zap.Int("surah", surah),
		zap.Int("start_ayah", startAyah),
		zap.Int("end_ayah", endAyah),
		zap.Int("count", len(records)))

	return records, nil
}

// Translation returns the translation text for one verse
func (p *Provider) Translation(ctx context.Context, loc Locator, identifier string) (string, error) {
	return p.client.FetchTranslation(ctx, loc, identifier)
}

// DownloadAudio downloads a recitation audio file to destPath
func (p *Provider) DownloadAudio(ctx context.Context, audioURL, destPath string) error {
	return p.client.DownloadAudio(ctx, audioURL, destPath)
}
