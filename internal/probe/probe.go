package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrSourceUnreadable indicates the source file could not be probed
var ErrSourceUnreadable = fmt.Errorf("source unreadable")

// MediaInfo describes a probed source
type MediaInfo struct {
	DurationS  float64
	SampleRate int
	FrameRate  float64
	Width      int
	Height     int
}

// MediaProbe reports duration, sample rate, frame rate, and resolution of a
// source using ffprobe
type MediaProbe struct {
	ffprobePath string
	logger      *zap.Logger
}

// NewMediaProbe creates a new MediaProbe instance
func NewMediaProbe(ffprobePath string) *MediaProbe {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &MediaProbe{ffprobePath: ffprobePath, logger: zap.NewNop()}
}

// NewMediaProbeWithLogger creates a new MediaProbe instance with custom logger
func NewMediaProbeWithLogger(ffprobePath string, logger *zap.Logger) *MediaProbe {
	p := NewMediaProbe(ffprobePath)
	if logger != nil {
		p.logger = logger
	}
	return p
}

// ffprobe JSON output shapes, limited to the fields we read
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	SampleRate   string `json:"sample_rate"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Probe reports metadata for the source at path
func (p *MediaProbe) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		p.logger.Error("ffprobe failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: probe %s: %v", ErrSourceUnreadable, path, err)
	}

	info, err := ParseProbeOutput(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}

	p.logger.Debug("probed source",
		zap.String("path", path),
		zap.Float64("duration_s", info.DurationS),
		zap.Float64("frame_rate", info.FrameRate),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height))

	return info, nil
}

// ParseProbeOutput parses ffprobe JSON into MediaInfo
func ParseProbeOutput(data []byte) (*MediaInfo, error) {
	var parsed probeOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &MediaInfo{}

	duration, err := strconv.ParseFloat(strings.TrimSpace(parsed.Format.Duration), 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration %q: %w", parsed.Format.Duration, err)
	}
	info.DurationS = duration

	for _, stream := range parsed.Streams {
		switch stream.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width = stream.Width
				info.Height = stream.Height
				rate, err := parseFrameRate(stream.RFrameRate)
				if err != nil || rate <= 0 {
					rate, err = parseFrameRate(stream.AvgFrameRate)
					if err != nil {
						return nil, fmt.Errorf("failed to parse frame rate: %w", err)
					}
				}
				info.FrameRate = rate
			}
		case "audio":
			if info.SampleRate == 0 && stream.SampleRate != "" {
				sr, err := strconv.Atoi(stream.SampleRate)
				if err != nil {
					return nil, fmt.Errorf("failed to parse sample rate %q: %w", stream.SampleRate, err)
				}
				info.SampleRate = sr
			}
		}
	}

	if info.FrameRate <= 0 {
		return nil, fmt.Errorf("no video stream with a valid frame rate")
	}

	return info, nil
}

// parseFrameRate parses an ffprobe rational such as "30000/1001" or "30/1"
func parseFrameRate(rational string) (float64, error) {
	rational = strings.TrimSpace(rational)
	if rational == "" || rational == "0/0" {
		return 0, fmt.Errorf("empty frame rate")
	}

	parts := strings.SplitN(rational, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q: %w", rational, err)
	}
	if len(parts) == 1 {
		return num, nil
	}

	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0, fmt.Errorf("invalid frame rate %q", rational)
	}
	return num / den, nil
}
