// Package app wires the pipeline together and runs video generation jobs
// with a bounded worker pool.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"quranvideo/internal/align"
	"quranvideo/internal/assembler"
	"quranvideo/internal/captions"
	"quranvideo/internal/config"
	"quranvideo/internal/detect"
	"quranvideo/internal/dsp"
	"quranvideo/internal/jobstore"
	"quranvideo/internal/processor"
	"quranvideo/internal/quran"
	"quranvideo/internal/renderer"
	"quranvideo/internal/timeline"
	"quranvideo/internal/timing"
	"quranvideo/internal/transcriber"
)

// Application owns every pipeline component and the job worker pool
type Application struct {
	cfg    *config.Configuration
	logger *zap.Logger

	provider  *quran.Provider
	audio     *processor.AudioProcessor
	engine    *transcriber.TranscriptionEngine
	detector  *detect.Detector
	builder   *timeline.Builder
	subtitles *renderer.SubtitleWriter
	video     *renderer.VideoRenderer
	store     *jobstore.Store

	// Buffered-channel semaphore bounding concurrent jobs
	workerSlots chan struct{}
	wg          sync.WaitGroup
}

// NewApplication wires the full pipeline from configuration
func NewApplication(cfg *config.Configuration, logger *zap.Logger) (*Application, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, dir := range []string{cfg.GetTempDir(), cfg.GetOutputDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	client := quran.NewClientWithLogger(
		cfg.GetQuranBaseURL(),
		cfg.GetTranslationBaseURL(),
		cfg.GetAudioBaseURL(),
		time.Duration(cfg.GetAPITimeoutSeconds())*time.Second,
		logger)
	provider := quran.NewProviderWithLogger(client, logger)

	store, err := jobstore.NewStore(cfg.GetJobsDBPath(), logger)
	if err != nil {
		return nil, err
	}

	app := &Application{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		audio:    processor.NewAudioProcessor(cfg.GetFFmpegPath(), cfg.GetSampleRate(), logger),
		engine:   transcriber.NewTranscriptionEngine(logger),
		builder: timeline.NewBuilderWithLogger(
			timing.NewResolverWithLogger(logger),
			align.NewAlignerWithLogger(cfg.GetReplaceSimilarity(), logger),
			assembler.NewAssemblerWithLogger(dsp.NewPCMProcessorWithLogger(logger), logger),
			captions.NewGrouperWithLogger(cfg.GetMinDisplayDuration(), logger),
			assembler.Options{
				SilenceThresholdDB: cfg.GetSilenceThresholdDB(),
				MinSilenceLenMS:    cfg.GetMinSilenceLenMS(),
				CrossfadeMS:        cfg.GetCrossfadeMS(),
				PaddingMS:          cfg.GetPaddingMS(),
			},
			logger),
		subtitles:   renderer.NewSubtitleWriterWithLogger(cfg.GetVideoWidth(), cfg.GetVideoHeight(), logger),
		video:       renderer.NewVideoRendererWithLogger(cfg.GetFFmpegPath(), cfg.GetVideoFPS(), cfg.GetVideoWidth(), cfg.GetVideoHeight(), logger),
		store:       store,
		workerSlots: make(chan struct{}, cfg.GetMaxConcurrentJobs()),
	}
	app.detector = detect.NewDetectorWithLogger(&providerUnitSource{provider: provider}, cfg.GetMinMatchRatio(), logger)

	return app, nil
}

// Store exposes the job store to the HTTP layer
func (a *Application) Store() *jobstore.Store {
	return a.store
}

// Submit validates the request, persists a queued job, and schedules it on
// the worker pool
func (a *Application) Submit(ctx context.Context, req Request) (*jobstore.Job, error) {
	if err := req.Validate(a.cfg.GetReciters(), a.cfg.GetTranslations(), a.cfg.GetBackgrounds()); err != nil {
		return nil, err
	}

	job, err := a.store.Create(ctx, req.Surah, req.StartAyah, req.EndAyah, req.Reciter, req.Translation, req.Background)
	if err != nil {
		return nil, err
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.workerSlots <- struct{}{}
		defer func() { <-a.workerSlots }()
		a.runJob(job)
	}()

	return job, nil
}

// runJob executes one queued job end to end, recording the outcome
func (a *Application) runJob(job *jobstore.Job) {
	ctx := context.Background()

	if err := a.store.MarkProcessing(ctx, job.ID); err != nil {
		a.logger.Error("failed to mark job processing",
			zap.String("job_id", job.ID), zap.Error(err))
		return
	}

	req := Request{
		Surah:       job.Surah,
		StartAyah:   job.StartAyah,
		EndAyah:     job.EndAyah,
		Reciter:     job.Reciter,
		Translation: job.Translation,
		Background:  job.Background,
	}

	outputPath, err := a.Process(ctx, req, job.ID)
	if err != nil {
		a.logger.Error("job failed",
			zap.String("job_id", job.ID), zap.Error(err))
		if storeErr := a.store.MarkFailed(ctx, job.ID, err.Error()); storeErr != nil {
			a.logger.Error("failed to record job failure",
				zap.String("job_id", job.ID), zap.Error(storeErr))
		}
		return
	}

	if err := a.store.MarkCompleted(ctx, job.ID, outputPath); err != nil {
		a.logger.Error("failed to record job completion",
			zap.String("job_id", job.ID), zap.Error(err))
	}
}

// Process runs the full pipeline for one request and returns the rendered
// video path. workID names the temp and output artifacts.
func (a *Application) Process(ctx context.Context, req Request, workID string) (string, error) {
	if err := req.Validate(a.cfg.GetReciters(), a.cfg.GetTranslations(), a.cfg.GetBackgrounds()); err != nil {
		return "", err
	}

	reciterID := a.cfg.GetReciters()[req.Reciter]
	translationID := a.cfg.GetTranslations()[req.Translation]
	backgroundPath := a.cfg.GetBackgrounds()[req.Background]

	workDir := filepath.Join(a.cfg.GetTempDir(), workID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	records, err := a.provider.Range(ctx, req.Surah, req.StartAyah, req.EndAyah, reciterID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch verse range: %w", err)
	}

	units, err := a.prepareUnits(ctx, records, workDir)
	if err != nil {
		return "", err
	}

	result, err := a.builder.Build(units)
	if err != nil {
		return "", fmt.Errorf("failed to build timeline: %w", err)
	}

	trackPath := filepath.Join(workDir, "track.wav")
	if err := dsp.EncodeWAVFile(trackPath, result.Track); err != nil {
		return "", err
	}

	events, err := a.captionEvents(ctx, result, translationID)
	if err != nil {
		return "", err
	}
	subtitlePath := filepath.Join(workDir, "captions.ass")
	if err := a.subtitles.WriteASS(subtitlePath, events); err != nil {
		return "", err
	}

	outputPath := filepath.Join(a.cfg.GetOutputDir(), workID+".mp4")
	if err := a.video.Render(ctx, backgroundPath, trackPath, subtitlePath, outputPath, result.TotalDuration); err != nil {
		return "", err
	}

	return outputPath, nil
}

// prepareUnits downloads and converts each verse's audio, transcribing it
// when the fetched record carries no usable timing
func (a *Application) prepareUnits(ctx context.Context, records []*quran.VerseRecord, workDir string) ([]timeline.UnitInput, error) {
	units := make([]timeline.UnitInput, 0, len(records))
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		unit := timeline.UnitInput{Record: record}
		key := record.Locator().Key()

		if record.AudioURL == "" {
			a.logger.Warn("verse record has no audio URL", zap.String("verse_key", key))
			units = append(units, unit)
			continue
		}

		mp3Path := filepath.Join(workDir, key+".mp3")
		wavPath := filepath.Join(workDir, key+".wav")
		if err := a.provider.DownloadAudio(ctx, record.AudioURL, mp3Path); err != nil {
			a.logger.Warn("failed to download verse audio",
				zap.String("verse_key", key), zap.Error(err))
			units = append(units, unit)
			continue
		}

		clip, err := a.audio.LoadAsClip(ctx, mp3Path, wavPath)
		if err != nil {
			a.logger.Warn("failed to convert verse audio",
				zap.String("verse_key", key), zap.Error(err))
			units = append(units, unit)
			continue
		}
		unit.Clip = clip

		if !record.HasDirectTiming() && len(record.Segments) == 0 {
			unit.Tokens = a.transcribeTokens(ctx, clip, key)
		}

		units = append(units, unit)
	}
	return units, nil
}

// transcribeTokens runs recognition and converts the result to aligner
// tokens; recognition failure just means proportional fallback downstream
func (a *Application) transcribeTokens(ctx context.Context, clip *dsp.Clip, key string) []align.Token {
	result, err := a.engine.Transcribe(ctx, clip)
	if err != nil {
		a.logger.Warn("transcription failed, word timing will be proportional",
			zap.String("verse_key", key), zap.Error(err))
		return nil
	}

	tokens := make([]align.Token, 0, len(result.Tokens))
	for _, tok := range result.Tokens {
		tokens = append(tokens, align.Token{
			Text:      tok.Text,
			Start:     float64(tok.StartMS) / 1000.0,
			End:       float64(tok.EndMS) / 1000.0,
			HasTiming: tok.EndMS > tok.StartMS,
		})
	}
	return tokens
}

// captionEvents pairs each caption window with the translation of the verse
// its first word belongs to
func (a *Application) captionEvents(ctx context.Context, result *timeline.Timeline, translationID string) ([]renderer.Event, error) {
	// Map flattened word index -> verse locator
	var wordLocators []quran.Locator
	for _, unit := range result.Units {
		for range unit.Spans {
			wordLocators = append(wordLocators, unit.Locator)
		}
	}

	translations := make(map[string]string)
	events := make([]renderer.Event, 0, len(result.Windows))
	for _, window := range result.Windows {
		event := renderer.Event{
			Start: window.Start,
			End:   window.End,
			Text:  window.Text,
		}
		if len(window.WordIndices) > 0 && translationID != "" {
			loc := wordLocators[window.WordIndices[0]]
			text, ok := translations[loc.Key()]
			if !ok {
				fetched, err := a.provider.Translation(ctx, loc, translationID)
				if err != nil {
					a.logger.Warn("failed to fetch translation",
						zap.String("verse_key", loc.Key()), zap.Error(err))
					fetched = ""
				}
				translations[loc.Key()] = fetched
				text = fetched
			}
			event.Translation = text
		}
		events = append(events, event)
	}
	return events, nil
}

// DetectRange transcribes a recitation audio file and locates the verse
// range it recites. hintSurah > 0 narrows the scan. A nil match means
// nothing reached the similarity threshold.
func (a *Application) DetectRange(ctx context.Context, audioPath string, hintSurah int) (*detect.Match, error) {
	workDir, err := os.MkdirTemp(a.cfg.GetTempDir(), "detect-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	clip, err := a.audio.LoadAsClip(ctx, audioPath, filepath.Join(workDir, "input.wav"))
	if err != nil {
		return nil, err
	}

	result, err := a.engine.Transcribe(ctx, clip)
	if err != nil {
		return nil, err
	}

	return a.detector.Detect(ctx, result.Text, hintSurah)
}

// LoadModel loads the speech model used for transcription and detection
func (a *Application) LoadModel(modelPath string) error {
	return a.engine.LoadModel(modelPath)
}

// Shutdown waits for in-flight jobs and releases resources
func (a *Application) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("shutdown timed out waiting for jobs")
	}

	if err := a.engine.Close(); err != nil {
		a.logger.Warn("failed to close transcription engine", zap.Error(err))
	}
	return a.store.Close()
}

// providerUnitSource adapts the verse provider to the detector's catalog
// interface using text-only records
type providerUnitSource struct {
	provider *quran.Provider
}

func (s *providerUnitSource) SurahCount() int { return quran.TotalSurahs }

func (s *providerUnitSource) AyahCount(surah int) int { return quran.AyahCount(surah) }

func (s *providerUnitSource) UnitText(ctx context.Context, surah, ayah int) (string, error) {
	record, err := s.provider.Verse(ctx, quran.Locator{Surah: surah, Ayah: ayah}, "")
	if err != nil {
		return "", err
	}
	return record.Text, nil
}
