package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"clipforge/internal/assembler"
	"clipforge/internal/captions"
	"clipforge/internal/export"
	"clipforge/internal/performance"
	"clipforge/internal/plan"
	"clipforge/internal/preset"
	"clipforge/internal/probe"
	"clipforge/internal/vad"
	"clipforge/internal/vision"
)

// ClipRequest describes one export
type ClipRequest struct {
	SourceID        string               `json:"source_id"`
	SourcePath      string               `json:"source_path"`
	ClipStart       float64              `json:"clip_start"`
	ClipEnd         float64              `json:"clip_end"`
	TargetFormat    string               `json:"target_format"`
	Preset          string               `json:"preset"`
	IncludeCaptions bool                 `json:"include_captions"`
	Transcript      *captions.Transcript `json:"transcript,omitempty"`
	Adjustments     *preset.Adjustments  `json:"adjustments,omitempty"`
	OutputPath      string               `json:"output_path,omitempty"`
}

// ExportResult is the typed outcome of one export
type ExportResult struct {
	Success          bool              `json:"success"`
	FailureKind      ErrorKind         `json:"failure_kind,omitempty"`
	FailureReason    string            `json:"failure_reason,omitempty"`
	OutputPath       string            `json:"output_path,omitempty"`
	OriginalDuration float64           `json:"original_duration"`
	EditedDuration   float64           `json:"edited_duration"`
	TimeSaved        float64           `json:"time_saved"`
	ReductionPercent float64           `json:"reduction_percent"`
	SubjectPosition  *vision.Position  `json:"subject_position,omitempty"`
	Crop             *export.CropRegion `json:"crop,omitempty"`
	NeedsReview      bool              `json:"needs_review"`
	Captions         []captions.Chunk  `json:"captions"`
	PlanSummary      plan.Summary      `json:"plan_summary"`
}

// Prober reports source metadata
type Prober interface {
	Probe(ctx context.Context, path string) (*probe.MediaInfo, error)
}

// AudioExtractor decodes a time range of a source to raw PCM
type AudioExtractor interface {
	ExtractRange(ctx context.Context, source string, t0, t1 float64, outPath string) error
}

// Localizer finds the subject position for a clip range
type Localizer interface {
	Localize(ctx context.Context, source string, clipStart, clipEnd float64, scratchDir string) vision.Position
}

// Renderer invokes the external media tool for the final mux
type Renderer interface {
	Render(ctx context.Context, source string, p *plan.EditPlan, srcW, srcH int, region export.CropRegion, f export.Format, assembledPCM, assPath, outPath string) error
}

// Pipeline sequences probe, extraction, analysis, planning, the three
// parallel branches, and rendering for one export request. It is reentrant;
// concurrent exports share only the VAD cache and the render semaphore.
type Pipeline struct {
	probe       Prober
	extractor   AudioExtractor
	analyzer    *vad.Analyzer
	cache       *vad.Cache
	planner     *plan.Planner
	assembler   *assembler.Assembler
	timer       *captions.Timer
	localizer   Localizer
	renderer    Renderer
	monitor     *performance.Monitor
	scratchRoot string
	logger      *zap.Logger
}

// Deps carries the collaborators a Pipeline is built from. Localizer may be
// nil; exports then use a centre crop.
type Deps struct {
	Probe       Prober
	Extractor   AudioExtractor
	Analyzer    *vad.Analyzer
	Cache       *vad.Cache
	Planner     *plan.Planner
	Assembler   *assembler.Assembler
	Timer       *captions.Timer
	Localizer   Localizer
	Renderer    Renderer
	Monitor     *performance.Monitor
	ScratchRoot string
	Logger      *zap.Logger
}

// NewPipeline creates a new Pipeline instance
func NewPipeline(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	scratchRoot := deps.ScratchRoot
	if scratchRoot == "" {
		scratchRoot = os.TempDir()
	}
	return &Pipeline{
		probe:       deps.Probe,
		extractor:   deps.Extractor,
		analyzer:    deps.Analyzer,
		cache:       deps.Cache,
		planner:     deps.Planner,
		assembler:   deps.Assembler,
		timer:       deps.Timer,
		localizer:   deps.Localizer,
		renderer:    deps.Renderer,
		monitor:     deps.Monitor,
		scratchRoot: scratchRoot,
		logger:      logger,
	}
}

// ExportClip runs the full pipeline for one request. Semantic failures such
// as an empty plan come back as an unsuccessful ExportResult; infrastructure
// failures come back as an *ExportError.
func (p *Pipeline) ExportClip(ctx context.Context, req ClipRequest) (*ExportResult, error) {
	var timer *performance.ExportTimer
	if p.monitor != nil {
		timer = p.monitor.StartExport()
	}

	result, err := p.exportClip(ctx, req)

	if p.monitor != nil {
		if err != nil || !result.Success {
			p.monitor.RecordFailure()
		} else {
			p.monitor.EndExport(timer, result.EditedDuration, result.TimeSaved)
		}
	}
	return result, err
}

func (p *Pipeline) exportClip(ctx context.Context, req ClipRequest) (*ExportResult, error) {
	format, err := export.FromName(req.TargetFormat)
	if err != nil {
		return nil, &ExportError{Kind: KindInvalidRange, Err: err}
	}
	presetCfg, err := preset.FromName(req.Preset)
	if err != nil {
		return nil, &ExportError{Kind: KindInvalidRange, Err: err}
	}

	info, err := p.probe.Probe(ctx, req.SourcePath)
	if err != nil {
		return nil, newExportError(err)
	}
	if req.ClipStart < 0 || req.ClipStart >= req.ClipEnd || req.ClipEnd > info.DurationS {
		return nil, &ExportError{
			Kind: KindInvalidRange,
			Err: fmt.Errorf("clip range [%.3f, %.3f) outside source duration %.3f",
				req.ClipStart, req.ClipEnd, info.DurationS),
		}
	}

	scratchDir := filepath.Join(p.scratchRoot, uuid.NewString())
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, &ExportError{Kind: KindIOFailure, Err: err}
	}
	// Removal covers every exit path, cancellation and panics included
	defer os.RemoveAll(scratchDir)

	sourcePCM := filepath.Join(scratchDir, "source.pcm")
	if err := p.extractor.ExtractRange(ctx, req.SourcePath, 0, 0, sourcePCM); err != nil {
		return nil, newExportError(err)
	}

	analysis, err := p.cache.GetOrCompute(ctx, req.SourceID, presetCfg,
		func(ctx context.Context, cfg preset.Config) (*vad.Analysis, error) {
			return p.analyzer.Analyze(ctx, req.SourceID, sourcePCM, info.DurationS, cfg)
		})
	if err != nil {
		return nil, newExportError(err)
	}

	editPlan, err := p.planner.Plan(analysis, req.ClipStart, req.ClipEnd, req.Adjustments)
	if errors.Is(err, plan.ErrEmptyPlan) {
		p.logger.Warn("no speech in clip window",
			zap.String("source_id", req.SourceID),
			zap.Float64("clip_start", req.ClipStart),
			zap.Float64("clip_end", req.ClipEnd))
		return &ExportResult{
			Success:          false,
			FailureKind:      KindEmptyPlan,
			FailureReason:    err.Error(),
			OriginalDuration: req.ClipEnd - req.ClipStart,
			Captions:         []captions.Chunk{},
		}, nil
	}
	if err != nil {
		return nil, newExportError(err)
	}

	assembledPCM := filepath.Join(scratchDir, "assembled.pcm")
	subject := vision.Centre
	var chunks []captions.Chunk
	assPath := ""

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.assembler.Assemble(sourcePCM, editPlan, assembledPCM)
	})
	g.Go(func() error {
		if p.localizer == nil {
			return nil
		}
		subject = p.localizer.Localize(gctx, req.SourcePath, req.ClipStart, req.ClipEnd, scratchDir)
		return nil
	})
	g.Go(func() error {
		if !req.IncludeCaptions || req.Transcript == nil {
			chunks = []captions.Chunk{}
			return nil
		}
		style := captions.DefaultStyle()
		chunks = p.timer.Rebase(req.Transcript, editPlan, style)
		if len(chunks) == 0 {
			return nil
		}
		doc := captions.RenderASS(chunks, style, captions.RenderSpec{
			PlayResX: format.Width,
			PlayResY: format.Height,
			MarginV:  format.CaptionMarginBottom,
		})
		path := filepath.Join(scratchDir, "captions.ass")
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("%w: write captions: %v", assembler.ErrIOFailure, err)
		}
		assPath = path
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, newExportError(err)
	}

	region, needsReview := export.ComputeCrop(info.Width, info.Height, format, subject)

	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = fmt.Sprintf("clip_%s_%s.mp4", req.SourceID, format.Name)
	}

	if err := p.renderer.Render(ctx, req.SourcePath, editPlan, info.Width, info.Height,
		region, format, assembledPCM, assPath, outputPath); err != nil {
		return nil, newExportError(err)
	}

	original := req.ClipEnd - req.ClipStart
	edited := editPlan.EstimatedOutputDuration
	result := &ExportResult{
		Success:          true,
		OutputPath:       outputPath,
		OriginalDuration: original,
		EditedDuration:   edited,
		TimeSaved:        original - edited,
		ReductionPercent: (original - edited) / original * 100,
		SubjectPosition:  &subject,
		Crop:             &region,
		NeedsReview:      needsReview,
		Captions:         chunks,
		PlanSummary:      editPlan.Summary,
	}

	p.logger.Info("export complete",
		zap.String("source_id", req.SourceID),
		zap.String("format", format.Name),
		zap.Float64("edited_duration", result.EditedDuration),
		zap.Float64("time_saved", result.TimeSaved),
		zap.Bool("needs_review", result.NeedsReview))

	return result, nil
}

// ClearCache drops all cached VAD analyses for a source
func (p *Pipeline) ClearCache(ctx context.Context, sourceID string) error {
	return p.cache.Clear(ctx, sourceID)
}
