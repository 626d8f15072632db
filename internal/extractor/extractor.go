package extractor

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"

	"go.uber.org/zap"
)

// ErrDecode indicates the source audio could not be decoded
var ErrDecode = fmt.Errorf("decode failed")

// SampleRate is the fixed decode rate for the whole pipeline. The VAD and the
// assembler both consume the same decoded bytes, so the rate never varies
// between them.
const SampleRate = 16000

// BytesPerSample is the width of one s16le mono sample
const BytesPerSample = 2

// AudioExtractor decodes a time range of a source to raw PCM using ffmpeg
type AudioExtractor struct {
	ffmpegPath string
	logger     *zap.Logger
}

// NewAudioExtractor creates a new AudioExtractor instance
func NewAudioExtractor(ffmpegPath string) *AudioExtractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &AudioExtractor{ffmpegPath: ffmpegPath, logger: zap.NewNop()}
}

// NewAudioExtractorWithLogger creates a new AudioExtractor instance with custom logger
func NewAudioExtractorWithLogger(ffmpegPath string, logger *zap.Logger) *AudioExtractor {
	e := NewAudioExtractor(ffmpegPath)
	if logger != nil {
		e.logger = logger
	}
	return e
}

// BuildExtractArgs returns the ffmpeg arguments for decoding [t0, t1) of
// source to s16le 16 kHz mono at outPath. t1 <= 0 means "to end of source".
func BuildExtractArgs(source string, t0, t1 float64, outPath string) []string {
	args := []string{"-y"}
	if t0 > 0 {
		args = append(args, "-ss", formatSeconds(t0))
	}
	args = append(args, "-i", source)
	if t1 > 0 {
		args = append(args, "-t", formatSeconds(t1-t0))
	}
	args = append(args,
		"-vn",
		"-ar", strconv.Itoa(SampleRate), // 16kHz, required by the VAD
		"-ac", "1", // Mono channel
		"-f", "s16le", // 16-bit little-endian PCM
		outPath,
	)
	return args
}

// ExtractRange decodes [t0, t1) of source to raw s16le PCM at outPath.
// Output length in samples is round((t1-t0) * rate) within one sample.
func (e *AudioExtractor) ExtractRange(ctx context.Context, source string, t0, t1 float64, outPath string) error {
	e.logger.Info("extracting audio range",
		zap.String("source", source),
		zap.Float64("t0", t0),
		zap.Float64("t1", t1))

	cmd := exec.CommandContext(ctx, e.ffmpegPath, BuildExtractArgs(source, t0, t1, outPath)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		e.logger.Error("ffmpeg decode failed",
			zap.String("source", source),
			zap.Error(err),
			zap.ByteString("output", tail(out, 512)))
		return fmt.Errorf("%w: extract %s [%.3f, %.3f): %v", ErrDecode, source, t0, t1, err)
	}

	e.logger.Debug("extraction complete", zap.String("pcm", outPath))
	return nil
}

// SampleCount returns the number of s16le samples in the PCM file at path
func SampleCount(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat pcm file: %w", err)
	}
	return fi.Size() / BytesPerSample, nil
}

// ExpectedSamples returns the sample count a [t0, t1) extraction should yield
func ExpectedSamples(t0, t1 float64) int64 {
	return int64(math.Round((t1 - t0) * SampleRate))
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 6, 64)
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
