package vision

import (
	"context"

	"go.uber.org/zap"
)

// minSuccessfulFrames is how many frames must return a detection before the
// aggregate is trusted over the centre fallback
const minSuccessfulFrames = 3

// samplePoints are the fractions of the clip range at which frames are taken
var samplePoints = []float64{0, 0.25, 0.5, 0.75, 1.0}

// Sampler provides single frames from a source as JPEG bytes
type Sampler interface {
	SampleFrame(ctx context.Context, source string, t float64, scratchDir string) ([]byte, error)
}

// Localizer aggregates per-frame oracle detections into one subject position
// for a clip range
type Localizer struct {
	sampler Sampler
	oracle  Oracle
	logger  *zap.Logger
}

// NewLocalizer creates a new Localizer instance
func NewLocalizer(sampler Sampler, oracle Oracle) *Localizer {
	return &Localizer{sampler: sampler, oracle: oracle, logger: zap.NewNop()}
}

// NewLocalizerWithLogger creates a new Localizer instance with custom logger
func NewLocalizerWithLogger(sampler Sampler, oracle Oracle, logger *zap.Logger) *Localizer {
	l := NewLocalizer(sampler, oracle)
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Localize samples five frames across [clipStart, clipEnd) and returns the
// confidence-weighted mean position. Fewer than three successful detections
// degrade to the centre with zero confidence.
func (l *Localizer) Localize(ctx context.Context, source string, clipStart, clipEnd float64, scratchDir string) Position {
	var positions []Position
	for _, frac := range samplePoints {
		t := clipStart + frac*(clipEnd-clipStart)
		jpeg, err := l.sampler.SampleFrame(ctx, source, t, scratchDir)
		if err != nil {
			continue
		}
		pos, err := l.oracle.Locate(ctx, jpeg)
		if err != nil {
			l.logger.Warn("subject detection failed for frame",
				zap.Float64("t", t), zap.Error(err))
			continue
		}
		positions = append(positions, pos)
	}

	if len(positions) < minSuccessfulFrames {
		l.logger.Warn("too few subject detections, falling back to centre",
			zap.Int("detections", len(positions)))
		return Centre
	}

	return Aggregate(positions)
}

// Aggregate returns the confidence-weighted mean of positions; overall
// confidence is the plain mean
func Aggregate(positions []Position) Position {
	var sumX, sumY, sumW, sumC float64
	for _, p := range positions {
		sumX += p.NX * p.Confidence
		sumY += p.NY * p.Confidence
		sumW += p.Confidence
		sumC += p.Confidence
	}
	if sumW == 0 {
		return Centre
	}
	return Position{
		NX:         sumX / sumW,
		NY:         sumY / sumW,
		Confidence: sumC / float64(len(positions)),
	}
}
