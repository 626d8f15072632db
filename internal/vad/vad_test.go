package vad

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipforge/internal/preset"
)

// fakeDetector returns canned spans and counts invocations
type fakeDetector struct {
	spans []Segment
	err   error
	calls int
}

func (f *fakeDetector) DetectSpeech(ctx context.Context, pcmPath string, threshold float64) ([]Segment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.spans, nil
}

func TestBuildPartition(t *testing.T) {
	t.Run("should produce an exact alternating partition", func(t *testing.T) {
		// Arrange
		spans := []Segment{{Start: 1, End: 2}, {Start: 3, End: 4.5}}

		// Act
		speech, silences := BuildPartition(spans, 6)

		// Assert
		assert.Equal(t, []Segment{{Start: 1, End: 2}, {Start: 3, End: 4.5}}, speech)
		assert.Equal(t, []Segment{{Start: 0, End: 1}, {Start: 2, End: 3}, {Start: 4.5, End: 6}}, silences)
	})

	t.Run("should merge speech spans separated by gaps under ten milliseconds", func(t *testing.T) {
		// Arrange
		spans := []Segment{{Start: 1, End: 2}, {Start: 2.005, End: 3}}

		// Act
		speech, silences := BuildPartition(spans, 4)

		// Assert
		require.Len(t, speech, 1)
		assert.Equal(t, Segment{Start: 1, End: 3}, speech[0])
		assert.Equal(t, []Segment{{Start: 0, End: 1}, {Start: 3, End: 4}}, silences)
	})

	t.Run("should discard speech spans shorter than twenty milliseconds", func(t *testing.T) {
		// Arrange
		spans := []Segment{{Start: 1, End: 1.015}, {Start: 2, End: 3}}

		// Act
		speech, _ := BuildPartition(spans, 4)

		// Assert
		assert.Equal(t, []Segment{{Start: 2, End: 3}}, speech)
	})

	t.Run("should clamp spans to the stream duration", func(t *testing.T) {
		// Arrange
		spans := []Segment{{Start: -0.5, End: 1}, {Start: 3.5, End: 10}}

		// Act
		speech, silences := BuildPartition(spans, 4)

		// Assert
		assert.Equal(t, []Segment{{Start: 0, End: 1}, {Start: 3.5, End: 4}}, speech)
		assert.Equal(t, []Segment{{Start: 1, End: 3.5}}, silences)
	})

	t.Run("should merge overlapping spans", func(t *testing.T) {
		// Arrange
		spans := []Segment{{Start: 1, End: 2.5}, {Start: 2, End: 3}}

		// Act
		speech, _ := BuildPartition(spans, 4)

		// Assert
		assert.Equal(t, []Segment{{Start: 1, End: 3}}, speech)
	})

	t.Run("should cover the whole duration with silence when no speech exists", func(t *testing.T) {
		// Act
		speech, silences := BuildPartition(nil, 5)

		// Assert
		assert.Empty(t, speech)
		assert.Equal(t, []Segment{{Start: 0, End: 5}}, silences)
	})

	t.Run("should keep the partition contiguous", func(t *testing.T) {
		// Arrange
		spans := []Segment{{Start: 0.3, End: 1.2}, {Start: 2.7, End: 4.1}, {Start: 5.5, End: 7.9}}

		// Act
		speech, silences := BuildPartition(spans, 10)

		// Assert
		all := make([]Segment, 0, len(speech)+len(silences))
		si, gi := 0, 0
		for si < len(speech) || gi < len(silences) {
			switch {
			case si == len(speech):
				all = append(all, silences[gi])
				gi++
			case gi == len(silences):
				all = append(all, speech[si])
				si++
			case speech[si].Start < silences[gi].Start:
				all = append(all, speech[si])
				si++
			default:
				all = append(all, silences[gi])
				gi++
			}
		}
		cursor := 0.0
		for _, seg := range all {
			assert.Equal(t, cursor, seg.Start)
			cursor = seg.End
		}
		assert.Equal(t, 10.0, cursor)
	})
}

func TestAnalyzer_Analyze(t *testing.T) {
	t.Run("should produce an analysis keyed by source and preset", func(t *testing.T) {
		// Arrange
		detector := &fakeDetector{spans: []Segment{{Start: 1, End: 2}}}
		analyzer := NewAnalyzer(detector)
		cfg, err := preset.FromName("linkedin")
		require.NoError(t, err)

		// Act
		analysis, err := analyzer.Analyze(context.Background(), "src-1", "audio.pcm", 10, cfg)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "src-1", analysis.SourceID)
		assert.Equal(t, "linkedin", analysis.Preset)
		assert.Equal(t, 10.0, analysis.Duration)
		assert.Len(t, analysis.Speech, 1)
		assert.Len(t, analysis.Silences, 2)
		assert.False(t, analysis.GeneratedAt.IsZero())
	})

	t.Run("should pass the preset threshold to the detector", func(t *testing.T) {
		// Arrange
		var seen float64
		detector := detectorFunc(func(ctx context.Context, pcmPath string, threshold float64) ([]Segment, error) {
			seen = threshold
			return []Segment{{Start: 0, End: 1}}, nil
		})
		analyzer := NewAnalyzer(detector)
		cfg, err := preset.FromName("tiktok")
		require.NoError(t, err)

		// Act
		_, err = analyzer.Analyze(context.Background(), "src-1", "audio.pcm", 2, cfg)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, cfg.VadThreshold, seen)
	})

	t.Run("should report analyzer unavailable when the detector fails", func(t *testing.T) {
		// Arrange
		detector := &fakeDetector{err: fmt.Errorf("model not loaded")}
		analyzer := NewAnalyzer(detector)
		cfg, err := preset.FromName("linkedin")
		require.NoError(t, err)

		// Act
		_, err = analyzer.Analyze(context.Background(), "src-1", "audio.pcm", 10, cfg)

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAnalyzerUnavailable)
	})
}

type detectorFunc func(ctx context.Context, pcmPath string, threshold float64) ([]Segment, error)

func (f detectorFunc) DetectSpeech(ctx context.Context, pcmPath string, threshold float64) ([]Segment, error) {
	return f(ctx, pcmPath, threshold)
}
