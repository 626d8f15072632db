package vision

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
)

// FrameSampler grabs single frames from a source as JPEG bytes using ffmpeg
type FrameSampler struct {
	ffmpegPath string
	logger     *zap.Logger
}

// NewFrameSampler creates a new FrameSampler instance
func NewFrameSampler(ffmpegPath string) *FrameSampler {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FrameSampler{ffmpegPath: ffmpegPath, logger: zap.NewNop()}
}

// NewFrameSamplerWithLogger creates a new FrameSampler instance with custom logger
func NewFrameSamplerWithLogger(ffmpegPath string, logger *zap.Logger) *FrameSampler {
	s := NewFrameSampler(ffmpegPath)
	if logger != nil {
		s.logger = logger
	}
	return s
}

// SampleFrame decodes the frame nearest to t seconds and returns it as JPEG
func (s *FrameSampler) SampleFrame(ctx context.Context, source string, t float64, scratchDir string) ([]byte, error) {
	outPath := filepath.Join(scratchDir, fmt.Sprintf("frame_%08.3f.jpg", t))

	cmd := exec.CommandContext(ctx, s.ffmpegPath,
		"-y",
		"-ss", strconv.FormatFloat(t, 'f', 3, 64),
		"-i", source,
		"-frames:v", "1",
		"-q:v", "2",
		outPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		s.logger.Warn("frame sampling failed",
			zap.String("source", source),
			zap.Float64("t", t),
			zap.Error(err),
			zap.ByteString("output", tail(out, 256)))
		return nil, fmt.Errorf("failed to sample frame at %.3fs: %w", t, err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read sampled frame: %w", err)
	}
	return data, nil
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
