package assembler

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipforge/internal/extractor"
	"clipforge/internal/plan"
)

func constantSamples(n int, value int16) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = value
	}
	return samples
}

func TestAssembleSamples(t *testing.T) {
	t.Run("should concatenate segments without fades verbatim", func(t *testing.T) {
		// Arrange
		source := make([]int16, 16000)
		for i := range source {
			source[i] = int16(i % 1000)
		}
		segments := []plan.KeptSegment{
			{SrcStart: 0, SrcEnd: 0.25},
			{SrcStart: 0.5, SrcEnd: 0.75},
		}

		// Act
		out := AssembleSamples(source, segments)

		// Assert
		require.Len(t, out, 8000)
		assert.Equal(t, source[:4000], out[:4000])
		assert.Equal(t, source[8000:12000], out[4000:])
	})

	t.Run("should overlap faded joins so fades cost no output time", func(t *testing.T) {
		// Arrange
		source := constantSamples(16000, 1000)
		segments := []plan.KeptSegment{
			{SrcStart: 0, SrcEnd: 0.25, TrailFadeS: 0.010},
			{SrcStart: 0.5, SrcEnd: 0.75, LeadFadeS: 0.010},
		}

		// Act
		out := AssembleSamples(source, segments)

		// Assert: 160 fade samples overlap at the join
		assert.Len(t, out, 4000+4000-160)
	})

	t.Run("should mix the join with equal-power gains", func(t *testing.T) {
		// Arrange
		source := constantSamples(16000, 1000)
		segments := []plan.KeptSegment{
			{SrcStart: 0, SrcEnd: 0.25, TrailFadeS: 0.010},
			{SrcStart: 0.5, SrcEnd: 0.75, LeadFadeS: 0.010},
		}

		// Act
		out := AssembleSamples(source, segments)

		// Assert: with equal inputs the mixed sample is in*(cosθ+sinθ),
		// peaking at sqrt(2) mid-fade
		base := 4000 - 160
		for _, tc := range []struct {
			offset int
			theta  float64
		}{
			{0, 0},
			{80, math.Pi / 2 * 80 / 160},
			{159, math.Pi / 2 * 159 / 160},
		} {
			expected := int16(math.Round(1000*math.Cos(tc.theta) + 1000*math.Sin(tc.theta)))
			assert.Equal(t, expected, out[base+tc.offset], "offset %d", tc.offset)
		}
	})

	t.Run("should leave the first head and last tail untouched", func(t *testing.T) {
		// Arrange
		source := make([]int16, 16000)
		for i := range source {
			source[i] = int16(i % 2000)
		}
		segments := []plan.KeptSegment{
			{SrcStart: 0, SrcEnd: 0.25, TrailFadeS: 0.010},
			{SrcStart: 0.5, SrcEnd: 0.75, LeadFadeS: 0.010},
		}

		// Act
		out := AssembleSamples(source, segments)

		// Assert
		assert.Equal(t, source[:4000-160], out[:4000-160])
		assert.Equal(t, source[8000+160:12000], out[len(out)-(4000-160):])
	})

	t.Run("should truncate the fade for segments shorter than the nominal fade", func(t *testing.T) {
		// Arrange: second segment is 80 samples, half of the nominal fade
		source := constantSamples(16000, 500)
		segments := []plan.KeptSegment{
			{SrcStart: 0, SrcEnd: 0.25, TrailFadeS: 0.010},
			{SrcStart: 0.5, SrcEnd: 0.505, LeadFadeS: 0.010},
		}

		// Act
		out := AssembleSamples(source, segments)

		// Assert: fade is bounded to half the short segment
		assert.Len(t, out, 4000+80-40)
	})

	t.Run("should clamp mixed samples to the s16 range", func(t *testing.T) {
		// Arrange
		source := constantSamples(16000, math.MaxInt16)
		segments := []plan.KeptSegment{
			{SrcStart: 0, SrcEnd: 0.25, TrailFadeS: 0.010},
			{SrcStart: 0.5, SrcEnd: 0.75, LeadFadeS: 0.010},
		}

		// Act
		out := AssembleSamples(source, segments)

		// Assert: mid-fade the equal-power sum exceeds full scale and clamps
		assert.Equal(t, int16(math.MaxInt16), out[4000-160+80])
	})
}

func TestAssembler_Assemble(t *testing.T) {
	t.Run("should write audio matching the planned output duration", func(t *testing.T) {
		// Arrange
		dir := t.TempDir()
		sourcePath := filepath.Join(dir, "source.pcm")
		outPath := filepath.Join(dir, "assembled.pcm")
		require.NoError(t, os.WriteFile(sourcePath, SamplesToBytes(constantSamples(16000, 100)), 0o644))

		segments := []plan.KeptSegment{
			{SrcStart: 0, SrcEnd: 0.25, TrailFadeS: 0.010},
			{SrcStart: 0.5, SrcEnd: 0.75, LeadFadeS: 0.010},
		}
		p := &plan.EditPlan{
			KeptSegments:            segments,
			Timeline:                plan.NewTimelineMap(segments),
			EstimatedOutputDuration: plan.NewTimelineMap(segments).OutputDuration(),
		}

		// Act
		err := NewAssembler().Assemble(sourcePath, p, outPath)

		// Assert
		require.NoError(t, err)
		samples, err := extractor.SampleCount(outPath)
		require.NoError(t, err)
		assert.InDelta(t, p.EstimatedOutputDuration, float64(samples)/extractor.SampleRate, 0.002)
	})

	t.Run("should fail cleanly when the source pcm is missing", func(t *testing.T) {
		// Arrange
		dir := t.TempDir()

		// Act
		err := NewAssembler().Assemble(filepath.Join(dir, "absent.pcm"), &plan.EditPlan{}, filepath.Join(dir, "out.pcm"))

		// Assert
		assert.ErrorIs(t, err, ErrIOFailure)
	})
}
