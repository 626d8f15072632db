package renderer

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"clipforge/internal/export"
	"clipforge/internal/extractor"
	"clipforge/internal/plan"
)

// ErrRenderFailed indicates the external media tool exited with an error
var ErrRenderFailed = fmt.Errorf("render failed")

// ErrSync indicates the plan and the assembled audio disagree about the
// output duration. This is a bug in the planner, assembler, or the bridge
// between them and must surface loudly.
var ErrSync = fmt.Errorf("sync error")

// audioToleranceS is the allowed gap between assembled audio duration and the
// plan's output duration
const audioToleranceS = 0.002

// Renderer builds the filter graph and invokes ffmpeg to mux the edited
// video with the assembled audio. Renders are the one globally contended
// resource, so a weighted semaphore bounds how many run at once.
type Renderer struct {
	ffmpegPath string
	sem        *semaphore.Weighted
	logger     *zap.Logger
}

// NewRenderer creates a new Renderer instance
func NewRenderer(ffmpegPath string, maxConcurrent int) *Renderer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Renderer{
		ffmpegPath: ffmpegPath,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
		logger:     zap.NewNop(),
	}
}

// NewRendererWithLogger creates a new Renderer instance with custom logger
func NewRendererWithLogger(ffmpegPath string, maxConcurrent int, logger *zap.Logger) *Renderer {
	r := NewRenderer(ffmpegPath, maxConcurrent)
	if logger != nil {
		r.logger = logger
	}
	return r
}

// VerifySync checks that the assembled audio matches the plan's output
// duration before any render is attempted
func VerifySync(p *plan.EditPlan, audioSamples int64, frameRate float64) error {
	audioDuration := float64(audioSamples) / extractor.SampleRate
	if diff := math.Abs(audioDuration - p.EstimatedOutputDuration); diff > audioToleranceS {
		return fmt.Errorf("%w: assembled audio %.4fs vs planned %.4fs (diff %.4fs)",
			ErrSync, audioDuration, p.EstimatedOutputDuration, diff)
	}

	kept := 0.0
	fades := 0.0
	for _, seg := range p.KeptSegments {
		kept += seg.Duration()
		fades += seg.LeadFadeS
	}
	frame := 1.0 / frameRate
	if diff := math.Abs(kept - fades - p.EstimatedOutputDuration); diff > frame {
		return fmt.Errorf("%w: kept segments %.4fs (less %.4fs fades) vs planned %.4fs",
			ErrSync, kept, fades, p.EstimatedOutputDuration)
	}
	return nil
}

// Render runs ffmpeg with the filter graph for the plan, muxing the video
// with the assembled PCM, and writes the result to outPath
func (r *Renderer) Render(ctx context.Context, source string, p *plan.EditPlan, srcW, srcH int, region export.CropRegion, f export.Format, assembledPCM, assPath, outPath string) error {
	samples, err := extractor.SampleCount(assembledPCM)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	frameRate := float64(f.FPS)
	if err := VerifySync(p, samples, frameRate); err != nil {
		return err
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	defer r.sem.Release(1)

	graph := BuildFilterGraph(p, srcW, srcH, region, f, assPath)
	args := buildRenderArgs(source, assembledPCM, graph, f, outPath)

	r.logger.Info("rendering clip",
		zap.String("source", source),
		zap.String("format", f.Name),
		zap.Int("segments", len(p.KeptSegments)),
		zap.String("output", outPath))
	r.logger.Debug("filter graph", zap.String("filter_complex", graph))

	cmd := exec.CommandContext(ctx, r.ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.logger.Error("ffmpeg render failed",
			zap.Error(err),
			zap.ByteString("output", tailBytes(out, 1024)))
		return fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	r.logger.Info("render complete", zap.String("output", outPath))
	return nil
}

func buildRenderArgs(source, assembledPCM, graph string, f export.Format, outPath string) []string {
	return []string{
		"-y",
		"-i", source,
		"-f", "s16le",
		"-ar", strconv.Itoa(extractor.SampleRate),
		"-ac", "1",
		"-i", assembledPCM,
		"-filter_complex", graph,
		"-map", "[vout]",
		"-map", "1:a",
		"-c:v", "libx264",
		"-b:v", fmt.Sprintf("%.0fM", f.BitrateMbps),
		"-r", strconv.Itoa(f.FPS),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", fmt.Sprintf("%dk", f.AudioBitrateKbps),
		"-shortest",
		outPath,
	}
}

func tailBytes(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
