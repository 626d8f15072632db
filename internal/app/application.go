package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"clipforge/internal/assembler"
	"clipforge/internal/captions"
	"clipforge/internal/config"
	"clipforge/internal/extractor"
	"clipforge/internal/logger"
	"clipforge/internal/performance"
	"clipforge/internal/pipeline"
	"clipforge/internal/plan"
	"clipforge/internal/probe"
	"clipforge/internal/renderer"
	"clipforge/internal/vad"
	"clipforge/internal/vision"
)

// Application wires the export pipeline from configuration and owns the
// process-wide resources: the VAD cache store and the render semaphore.
type Application struct {
	config    *config.Configuration
	zapLogger *zap.Logger
	store     *vad.Store
	monitor   *performance.Monitor
	pipeline  *pipeline.Pipeline
}

// NewApplication creates a new application instance with all components initialized
func NewApplication() (*Application, error) {
	// Load configuration from config file if CONFIG_PATH is set, otherwise use environment variables
	var cfg *config.Configuration
	var err error

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		cfg, err = config.NewConfigurationFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.NewConfigurationFromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to load config from environment: %w", err)
		}
	}

	zapLogger := logger.NewLogger()

	store, err := vad.OpenStore(cfg.GetCacheDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open vad cache store: %w", err)
	}

	cache, err := vad.NewCacheWithLogger(store, logger.NewComponentLogger(zapLogger, "vad-cache"))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create vad cache: %w", err)
	}

	detector := vad.NewExecDetectorWithLogger(
		cfg.GetVadCommand(),
		time.Duration(cfg.GetVadTimeoutSec())*time.Second,
		logger.NewComponentLogger(zapLogger, "vad-detector"))

	var localizer pipeline.Localizer
	if apiKey := cfg.GetVisionAPIKey(); apiKey != "" {
		oracle := vision.NewOpenRouterOracleWithLogger(
			cfg.GetVisionURL(),
			cfg.GetVisionModel(),
			apiKey,
			time.Duration(cfg.GetVisionTimeoutSec())*time.Second,
			logger.NewComponentLogger(zapLogger, "vision-oracle"))
		sampler := vision.NewFrameSamplerWithLogger(cfg.GetFFmpegPath(),
			logger.NewComponentLogger(zapLogger, "frame-sampler"))
		localizer = vision.NewLocalizerWithLogger(sampler, oracle,
			logger.NewComponentLogger(zapLogger, "localizer"))
	} else {
		zapLogger.Warn("no vision api key configured, exports will use centre crops")
	}

	monitor := performance.NewMonitor(logger.NewComponentLogger(zapLogger, "performance"))

	pipe := pipeline.NewPipeline(pipeline.Deps{
		Probe:       probe.NewMediaProbeWithLogger(cfg.GetFFprobePath(), logger.NewComponentLogger(zapLogger, "probe")),
		Extractor:   extractor.NewAudioExtractorWithLogger(cfg.GetFFmpegPath(), logger.NewComponentLogger(zapLogger, "extractor")),
		Analyzer:    vad.NewAnalyzerWithLogger(detector, logger.NewComponentLogger(zapLogger, "vad")),
		Cache:       cache,
		Planner:     plan.NewPlannerWithLogger(logger.NewComponentLogger(zapLogger, "planner")),
		Assembler:   assembler.NewAssemblerWithLogger(logger.NewComponentLogger(zapLogger, "assembler")),
		Timer:       captions.NewTimerWithLogger(logger.NewComponentLogger(zapLogger, "captions")),
		Localizer:   localizer,
		Renderer:    renderer.NewRendererWithLogger(cfg.GetFFmpegPath(), cfg.GetRenderMaxConcurrent(), logger.NewComponentLogger(zapLogger, "renderer")),
		Monitor:     monitor,
		ScratchRoot: cfg.GetScratchRoot(),
		Logger:      logger.NewComponentLogger(zapLogger, "pipeline"),
	})

	return &Application{
		config:    cfg,
		zapLogger: zapLogger,
		store:     store,
		monitor:   monitor,
		pipeline:  pipe,
	}, nil
}

// Export runs one clip export request
func (app *Application) Export(ctx context.Context, req pipeline.ClipRequest) (*pipeline.ExportResult, error) {
	return app.pipeline.ExportClip(ctx, req)
}

// ClearCache drops all cached VAD analyses for a source
func (app *Application) ClearCache(ctx context.Context, sourceID string) error {
	return app.pipeline.ClearCache(ctx, sourceID)
}

// Shutdown releases process-wide resources
func (app *Application) Shutdown() error {
	app.monitor.LogCurrentMetrics()
	app.zapLogger.Sync()
	if app.store != nil {
		return app.store.Close()
	}
	return nil
}
