package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Configuration provides type-safe access to application settings
type Configuration struct {
	viper *viper.Viper
}

// setDefaults applies the built-in defaults shared by all constructors
func setDefaults(v *viper.Viper) {
	// External APIs
	v.SetDefault("api.quran_base_url", "https://api.quran.com/api/v4")
	v.SetDefault("api.translation_base_url", "https://api.alquran.cloud/v1")
	v.SetDefault("api.audio_base_url", "https://verses.quran.com/")
	v.SetDefault("api.timeout_s", 15)

	// Alignment pipeline
	v.SetDefault("pipeline.min_match_ratio", 0.4)
	v.SetDefault("pipeline.replace_similarity", 0.8)
	v.SetDefault("pipeline.min_display_duration_s", 2.0)

	// Audio assembly
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.silence_threshold_db", -40.0)
	v.SetDefault("audio.min_silence_len_ms", 100)
	v.SetDefault("audio.crossfade_ms", 150)
	v.SetDefault("audio.padding_ms", 100)

	// Rendering
	v.SetDefault("video.ffmpeg_path", "ffmpeg")
	v.SetDefault("video.fps", 24)
	v.SetDefault("video.width", 1280)
	v.SetDefault("video.height", 720)

	// Jobs and server
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("jobs.max_concurrent", 2)
	v.SetDefault("jobs.db_path", "./data/jobs.db")

	// Directories
	v.SetDefault("dirs.temp", "./temp")
	v.SetDefault("dirs.output", "./output")
	v.SetDefault("dirs.models", "./models")

	// Registries: key -> provider identifier
	v.SetDefault("reciters", map[string]string{
		"alafasy":    "7",
		"husary":     "6",
		"minshawi":   "9",
		"abdulbasit": "2",
	})
	v.SetDefault("translations", map[string]string{
		"en.sahih":     "en.sahih",
		"en.pickthall": "en.pickthall",
	})
	v.SetDefault("backgrounds", map[string]string{
		"nature1": "./assets/backgrounds/nature1.mp4",
		"kaaba":   "./assets/backgrounds/kaaba.mp4",
	})

	v.SetDefault("log.level", "info")
}

// NewConfiguration creates a new Configuration instance with default settings
func NewConfiguration() *Configuration {
	v := viper.New()
	setDefaults(v)
	return &Configuration{viper: v}
}

// NewConfigurationFromFile creates a Configuration instance from a config file
func NewConfigurationFromFile(configFile string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	return &Configuration{viper: v}, nil
}

// NewConfigurationFromEnv creates a Configuration instance that reads from environment variables
func NewConfigurationFromEnv() (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("QURANVIDEO")
	v.AutomaticEnv()

	v.BindEnv("server.addr", "SERVER_ADDR")
	v.BindEnv("jobs.db_path", "JOBS_DB_PATH")
	v.BindEnv("video.ffmpeg_path", "FFMPEG_PATH")
	v.BindEnv("dirs.temp", "TEMP_DIR")
	v.BindEnv("dirs.output", "OUTPUT_DIR")
	v.BindEnv("log.level", "LOG_LEVEL")

	return &Configuration{viper: v}, nil
}

// GetQuranBaseURL returns the base URL of the verse/text API
func (c *Configuration) GetQuranBaseURL() string {
	return c.viper.GetString("api.quran_base_url")
}

// GetTranslationBaseURL returns the base URL of the translation API
func (c *Configuration) GetTranslationBaseURL() string {
	return c.viper.GetString("api.translation_base_url")
}

// GetAudioBaseURL returns the base URL recitation audio paths are resolved against
func (c *Configuration) GetAudioBaseURL() string {
	return c.viper.GetString("api.audio_base_url")
}

// GetAPITimeoutSeconds returns the per-request timeout for external APIs
func (c *Configuration) GetAPITimeoutSeconds() int {
	return c.viper.GetInt("api.timeout_s")
}

// GetMinMatchRatio returns the minimum similarity ratio for range auto-detection
func (c *Configuration) GetMinMatchRatio() float64 {
	return c.viper.GetFloat64("pipeline.min_match_ratio")
}

// GetReplaceSimilarity returns the similarity threshold for accepting
// replace-block token timing during word alignment
func (c *Configuration) GetReplaceSimilarity() float64 {
	return c.viper.GetFloat64("pipeline.replace_similarity")
}

// GetMinDisplayDuration returns the minimum caption display duration in seconds
func (c *Configuration) GetMinDisplayDuration() float64 {
	return c.viper.GetFloat64("pipeline.min_display_duration_s")
}

// GetSampleRate returns the working PCM sample rate in Hz
func (c *Configuration) GetSampleRate() int {
	return c.viper.GetInt("audio.sample_rate")
}

// GetSilenceThresholdDB returns the dBFS level below which audio counts as silence
func (c *Configuration) GetSilenceThresholdDB() float64 {
	return c.viper.GetFloat64("audio.silence_threshold_db")
}

// GetMinSilenceLenMS returns the minimum silence run length in milliseconds
func (c *Configuration) GetMinSilenceLenMS() int {
	return c.viper.GetInt("audio.min_silence_len_ms")
}

// GetCrossfadeMS returns the configured crossfade duration in milliseconds
func (c *Configuration) GetCrossfadeMS() int {
	return c.viper.GetInt("audio.crossfade_ms")
}

// GetPaddingMS returns the trailing silence padding in milliseconds
func (c *Configuration) GetPaddingMS() int {
	return c.viper.GetInt("audio.padding_ms")
}

// GetFFmpegPath returns the ffmpeg binary path
func (c *Configuration) GetFFmpegPath() string {
	return c.viper.GetString("video.ffmpeg_path")
}

// GetVideoFPS returns the output video frame rate
func (c *Configuration) GetVideoFPS() int {
	return c.viper.GetInt("video.fps")
}

// GetVideoWidth returns the output video width in pixels
func (c *Configuration) GetVideoWidth() int {
	return c.viper.GetInt("video.width")
}

// GetVideoHeight returns the output video height in pixels
func (c *Configuration) GetVideoHeight() int {
	return c.viper.GetInt("video.height")
}

// GetServerAddr returns the HTTP listen address
func (c *Configuration) GetServerAddr() string {
	return c.viper.GetString("server.addr")
}

// GetMaxConcurrentJobs returns the bound on simultaneously processing jobs
func (c *Configuration) GetMaxConcurrentJobs() int {
	return c.viper.GetInt("jobs.max_concurrent")
}

// GetJobsDBPath returns the sqlite job store path
func (c *Configuration) GetJobsDBPath() string {
	return c.viper.GetString("jobs.db_path")
}

// GetTempDir returns the working directory for downloaded and intermediate files
func (c *Configuration) GetTempDir() string {
	return c.viper.GetString("dirs.temp")
}

// GetOutputDir returns the directory rendered videos are written to
func (c *Configuration) GetOutputDir() string {
	return c.viper.GetString("dirs.output")
}

// GetModelsDir returns the directory downloaded speech models are kept in
func (c *Configuration) GetModelsDir() string {
	return c.viper.GetString("dirs.models")
}

// GetReciters returns the reciter key -> provider recitation id registry
func (c *Configuration) GetReciters() map[string]string {
	return c.viper.GetStringMapString("reciters")
}

// GetTranslations returns the translation key -> provider identifier registry
func (c *Configuration) GetTranslations() map[string]string {
	return c.viper.GetStringMapString("translations")
}

// GetBackgrounds returns the background id -> asset path registry
func (c *Configuration) GetBackgrounds() map[string]string {
	return c.viper.GetStringMapString("backgrounds")
}

// GetLogLevel returns the configured minimum log level
func (c *Configuration) GetLogLevel() string {
	return c.viper.GetString("log.level")
}
