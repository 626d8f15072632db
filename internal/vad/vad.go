package vad

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"clipforge/internal/preset"
)

// ErrAnalyzerUnavailable indicates the voice-activity detector failed. The
// pipeline fails loudly on this; there is no silent "no VAD" fallback.
var ErrAnalyzerUnavailable = fmt.Errorf("analyzer unavailable")

const (
	// minIntervalS is the minimum length of any interval in the partition
	minIntervalS = 0.020
	// mergeGapS is the largest gap between speech spans that gets absorbed
	mergeGapS = 0.010
)

// Segment is a half-open [Start, End) interval in source-time seconds
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the segment length in seconds
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Analysis is the immutable speech/silence segmentation of one source under
// one preset. Speech and Silences together partition [0, Duration) exactly,
// alternating.
type Analysis struct {
	SourceID    string        `json:"source_id"`
	Preset      string        `json:"preset"`
	Duration    float64       `json:"duration"`
	Speech      []Segment     `json:"speech_segments"`
	Silences    []Segment     `json:"silence_segments"`
	Config      preset.Config `json:"config"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Detector is the external voice-activity-detection collaborator. It returns
// raw speech spans over a PCM file; the Analyzer turns them into a partition.
type Detector interface {
	DetectSpeech(ctx context.Context, pcmPath string, threshold float64) ([]Segment, error)
}

// Analyzer produces speech/silence segmentations from a Detector
type Analyzer struct {
	detector Detector
	logger   *zap.Logger
}

// NewAnalyzer creates a new Analyzer instance
func NewAnalyzer(detector Detector) *Analyzer {
	return &Analyzer{detector: detector, logger: zap.NewNop()}
}

// NewAnalyzerWithLogger creates a new Analyzer instance with custom logger
func NewAnalyzerWithLogger(detector Detector, logger *zap.Logger) *Analyzer {
	a := NewAnalyzer(detector)
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Analyze runs the detector over the PCM covering [0, duration) of the source
// and returns the alternating speech/silence partition.
func (a *Analyzer) Analyze(ctx context.Context, sourceID, pcmPath string, duration float64, cfg preset.Config) (*Analysis, error) {
	a.logger.Info("running voice activity detection",
		zap.String("source_id", sourceID),
		zap.String("preset", cfg.Name),
		zap.Float64("duration", duration))

	spans, err := a.detector.DetectSpeech(ctx, pcmPath, cfg.VadThreshold)
	if err != nil {
		a.logger.Error("voice activity detection failed",
			zap.String("source_id", sourceID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAnalyzerUnavailable, err)
	}

	speech, silences := BuildPartition(spans, duration)

	a.logger.Debug("voice activity detection complete",
		zap.String("source_id", sourceID),
		zap.Int("speech_segments", len(speech)),
		zap.Int("silence_segments", len(silences)))

	return &Analysis{
		SourceID:    sourceID,
		Preset:      cfg.Name,
		Duration:    duration,
		Speech:      speech,
		Silences:    silences,
		Config:      cfg,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// BuildPartition converts raw speech spans into an exact alternating
// partition of [0, duration). Gaps shorter than 10 ms are merged into the
// adjacent speech; every interval in the result is at least 20 ms long.
func BuildPartition(spans []Segment, duration float64) (speech, silences []Segment) {
	cleaned := make([]Segment, 0, len(spans))
	for _, s := range spans {
		start := max64(0, s.Start)
		end := min64(duration, s.End)
		if end > start {
			cleaned = append(cleaned, Segment{Start: start, End: end})
		}
	}
	sort.Slice(cleaned, func(i, j int) bool { return cleaned[i].Start < cleaned[j].Start })

	// Merge overlapping spans and gaps below the merge threshold
	merged := make([]Segment, 0, len(cleaned))
	for _, s := range cleaned {
		if n := len(merged); n > 0 && s.Start-merged[n-1].End < mergeGapS {
			if s.End > merged[n-1].End {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}

	// Discard speech spans below the minimum interval length; they become
	// silence and merge with their neighbours through the complement below.
	speech = merged[:0]
	for _, s := range merged {
		if s.Duration() >= minIntervalS {
			speech = append(speech, s)
		}
	}

	// Absorb silences shorter than the minimum interval into the preceding
	// speech so the partition alternates with no sub-minimum intervals.
	absorbed := make([]Segment, 0, len(speech))
	for _, s := range speech {
		if n := len(absorbed); n > 0 && s.Start-absorbed[n-1].End < minIntervalS {
			absorbed[n-1].End = s.End
			continue
		}
		absorbed = append(absorbed, s)
	}
	speech = absorbed

	// Extend the first speech to 0 / the last to duration when the boundary
	// silence would be below the minimum interval length.
	if len(speech) > 0 {
		if speech[0].Start > 0 && speech[0].Start < minIntervalS {
			speech[0].Start = 0
		}
		if last := len(speech) - 1; duration-speech[last].End > 0 && duration-speech[last].End < minIntervalS {
			speech[last].End = duration
		}
	}

	// Silence is the exact complement
	silences = make([]Segment, 0, len(speech)+1)
	cursor := 0.0
	for _, s := range speech {
		if s.Start > cursor {
			silences = append(silences, Segment{Start: cursor, End: s.Start})
		}
		cursor = s.End
	}
	if cursor < duration {
		silences = append(silences, Segment{Start: cursor, End: duration})
	}

	if speech == nil {
		speech = []Segment{}
	}
	return speech, silences
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
