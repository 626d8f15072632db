package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"clipforge/internal/app"
	"clipforge/internal/captions"
	"clipforge/internal/export"
	"clipforge/internal/pipeline"
	"clipforge/internal/preset"
)

// main is the application entry point
func main() {
	var (
		helpFlag    = flag.Bool("help", false, "Show help message")
		versionFlag = flag.Bool("version", false, "Show version information")

		sourceFlag     = flag.String("source", "", "Path to the source video")
		sourceIDFlag   = flag.String("source-id", "", "Stable identifier for the source (defaults to the source path)")
		startFlag      = flag.Float64("start", 0, "Clip start in seconds")
		endFlag        = flag.Float64("end", 0, "Clip end in seconds")
		formatFlag     = flag.String("format", "tiktok", "Target format")
		presetFlag     = flag.String("preset", "linkedin", "Silence-removal preset")
		outputFlag     = flag.String("output", "", "Output file path")
		transcriptFlag = flag.String("transcript", "", "Path to a word-level transcript JSON file")
		clearFlag      = flag.String("clear-cache", "", "Clear cached VAD analyses for a source id and exit")
	)
	flag.Parse()

	if *helpFlag {
		printHelp()
		os.Exit(0)
	}

	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	// A .env file is optional; real deployments set the environment directly
	godotenv.Load()

	if err := run(*sourceFlag, *sourceIDFlag, *startFlag, *endFlag, *formatFlag,
		*presetFlag, *outputFlag, *transcriptFlag, *clearFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the core application logic that can be tested
func run(source, sourceID string, start, end float64, format, presetName, output, transcriptPath, clearSourceID string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	application, err := app.NewApplication()
	if err != nil {
		logger.Error("Failed to create application",
			zap.Error(err),
			zap.String("component", "main"))
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer application.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
			zap.String("component", "main"))
		cancel()
	}()

	if clearSourceID != "" {
		if err := application.ClearCache(ctx, clearSourceID); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Printf("Cleared VAD cache for %s\n", clearSourceID)
		return nil
	}

	if source == "" {
		return fmt.Errorf("missing -source (see -help)")
	}
	if end <= start {
		return fmt.Errorf("clip end %.3f must be after clip start %.3f", end, start)
	}
	if sourceID == "" {
		sourceID = source
	}

	var transcript *captions.Transcript
	if transcriptPath != "" {
		data, err := os.ReadFile(transcriptPath)
		if err != nil {
			return fmt.Errorf("failed to read transcript: %w", err)
		}
		transcript = &captions.Transcript{}
		if err := json.Unmarshal(data, transcript); err != nil {
			return fmt.Errorf("failed to parse transcript: %w", err)
		}
	}

	result, err := application.Export(ctx, pipeline.ClipRequest{
		SourceID:        sourceID,
		SourcePath:      source,
		ClipStart:       start,
		ClipEnd:         end,
		TargetFormat:    format,
		Preset:          presetName,
		IncludeCaptions: transcript != nil,
		Transcript:      transcript,
		OutputPath:      output,
	})
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(encoded))

	if !result.Success {
		return fmt.Errorf("export did not produce a clip: %s", result.FailureReason)
	}
	return nil
}

// printHelp displays command line usage information
func printHelp() {
	fmt.Println("ClipForge - Unified Clip Export Pipeline")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("    clipforge -source VIDEO -start S -end S [OPTIONS]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("    -source PATH       Source video file")
	fmt.Println("    -source-id ID      Stable source identifier for VAD caching")
	fmt.Println("    -start SECONDS     Clip start")
	fmt.Println("    -end SECONDS       Clip end")
	fmt.Printf("    -format NAME       Target format: %v\n", export.Names())
	fmt.Printf("    -preset NAME       Silence preset: %v\n", preset.Names())
	fmt.Println("    -output PATH       Output file path")
	fmt.Println("    -transcript PATH   Word-level transcript JSON for karaoke captions")
	fmt.Println("    -clear-cache ID    Clear cached VAD analyses for a source and exit")
	fmt.Println("    -help              Show this help message")
	fmt.Println("    -version           Show version information")
	fmt.Println()
	fmt.Println("CONFIGURATION:")
	fmt.Println("    Configuration is loaded from environment variables (CLIPFORGE_ prefix)")
	fmt.Println("    or a config file pointed at by CONFIG_PATH. A .env file is honored.")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("    clipforge -source talk.mp4 -start 90 -end 123 -format tiktok -preset tiktok -output clip.mp4")
	fmt.Println("    clipforge -source talk.mp4 -start 90 -end 123 -transcript words.json -output clip.mp4")
}

// printVersion displays version and build information
func printVersion() {
	fmt.Println("ClipForge")
	fmt.Println("Version: 1.0")
	fmt.Println("Architecture: Go 1.24 + FFmpeg")
}
