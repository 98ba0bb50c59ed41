package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quranvideo/internal/app"
	"quranvideo/internal/config"
	"quranvideo/internal/logger"
	"quranvideo/internal/server"
	"quranvideo/internal/transcriber"
)

const version = "1.0"

// main is the application entry point
func main() {
	var (
		helpFlag    = flag.Bool("help", false, "Show help message")
		versionFlag = flag.Bool("version", false, "Show version information")
		configFlag  = flag.String("config", "", "Path to YAML configuration file")
		modeFlag    = flag.String("mode", "serve", "Run mode: serve, process, or detect")
		modelFlag   = flag.String("model", "", "Whisper model file path, or a model name to download (e.g. base)")

		surahFlag       = flag.Int("surah", 0, "Surah number (process mode)")
		startFlag       = flag.Int("start", 0, "Start ayah (process mode)")
		endFlag         = flag.Int("end", 0, "End ayah (process mode)")
		reciterFlag     = flag.String("reciter", "husary", "Reciter registry key (process mode)")
		translationFlag = flag.String("translation", "en.sahih", "Translation registry key (process mode)")
		backgroundFlag  = flag.String("background", "nature1", "Background registry key (process mode)")

		audioFlag = flag.String("audio", "", "Recitation audio file to analyze (detect mode)")
		hintFlag  = flag.Int("hint", 0, "Surah hint narrowing detection (detect mode)")
	)
	flag.Parse()

	if *helpFlag {
		printHelp()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("quranvideo v%s\n", version)
		os.Exit(0)
	}

	if err := run(*configFlag, *modeFlag, *modelFlag, app.Request{
		Surah:       *surahFlag,
		StartAyah:   *startFlag,
		EndAyah:     *endFlag,
		Reciter:     *reciterFlag,
		Translation: *translationFlag,
		Background:  *backgroundFlag,
	}, *audioFlag, *hintFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, mode, modelPath string, req app.Request, audioPath string, hintSurah int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logger.NewLoggerWithLevel(cfg.GetLogLevel())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	log.Info("quranvideo starting up",
		zap.String("version", version),
		zap.String("mode", mode))

	application, err := app.NewApplication(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	if modelPath != "" {
		resolved, err := resolveModel(modelPath, cfg, log)
		if err != nil {
			return err
		}
		if err := application.LoadModel(resolved); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "serve":
		return runServer(ctx, application, cfg, log)
	case "process":
		return runProcess(ctx, application, req, log)
	case "detect":
		return runDetect(ctx, application, audioPath, hintSurah, log)
	default:
		return fmt.Errorf("unknown mode %q (expected serve, process, or detect)", mode)
	}
}

// resolveModel returns the path of an existing model file, downloading the
// named model into the models directory when the argument is not a file
func resolveModel(model string, cfg *config.Configuration, log *zap.Logger) (string, error) {
	if _, err := os.Stat(model); err == nil {
		return model, nil
	}
	downloader := transcriber.NewModelDownloader(log, cfg.GetModelsDir())
	return downloader.EnsureModelExists(model)
}

func loadConfig(configPath string) (*config.Configuration, error) {
	if configPath != "" {
		return config.NewConfigurationFromFile(configPath)
	}
	return config.NewConfigurationFromEnv()
}

func runServer(ctx context.Context, application *app.Application, cfg *config.Configuration, log *zap.Logger) error {
	srv := server.NewServer(application, cfg.GetServerAddr(), log)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown error", zap.Error(err))
	}
	return application.Shutdown(shutdownCtx)
}

func runProcess(ctx context.Context, application *app.Application, req app.Request, log *zap.Logger) error {
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		application.Shutdown(shutdownCtx)
	}()

	workID := fmt.Sprintf("cli-%d", time.Now().Unix())
	outputPath, err := application.Process(ctx, req, workID)
	if err != nil {
		return err
	}

	log.Info("video generated", zap.String("output", outputPath))
	fmt.Println(outputPath)
	return nil
}

func runDetect(ctx context.Context, application *app.Application, audioPath string, hintSurah int, log *zap.Logger) error {
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		application.Shutdown(shutdownCtx)
	}()

	if audioPath == "" {
		return fmt.Errorf("detect mode requires -audio")
	}

	match, err := application.DetectRange(ctx, audioPath, hintSurah)
	if err != nil {
		return err
	}
	if match == nil {
		fmt.Println("no verse range matched")
		return nil
	}

	log.Info("detected range",
		zap.Int("surah", match.Surah),
		zap.Int("start_ayah", match.StartAyah),
		zap.Int("end_ayah", match.EndAyah),
		zap.Float64("ratio", match.Ratio))
	fmt.Printf("%d:%d-%d (ratio %.2f)\n", match.Surah, match.StartAyah, match.EndAyah, match.Ratio)
	return nil
}

func printHelp() {
	fmt.Println(`quranvideo - recitation-aligned Quran video generator

Usage:
  quranvideo [flags]

Modes:
  -mode serve     Run the HTTP API (default)
  -mode process   Generate one video from the command line
  -mode detect    Detect which verses a recitation audio file recites

Flags:`)
	flag.PrintDefaults()
}
