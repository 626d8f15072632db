package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimelineMap(t *testing.T) {
	t.Run("should chain spans end to end without fades", func(t *testing.T) {
		// Arrange
		segments := []KeptSegment{
			{SrcStart: 10, SrcEnd: 12},
			{SrcStart: 15, SrcEnd: 18},
		}

		// Act
		m := NewTimelineMap(segments)

		// Assert
		require.Len(t, m.SpanList, 2)
		assert.Equal(t, Span{SrcStart: 10, SrcEnd: 12, OutStart: 0, OutEnd: 2}, m.SpanList[0])
		assert.Equal(t, Span{SrcStart: 15, SrcEnd: 18, OutStart: 2, OutEnd: 5}, m.SpanList[1])
		assert.Equal(t, 5.0, m.OutputDuration())
	})

	t.Run("should overlap spans by the fade length at faded joins", func(t *testing.T) {
		// Arrange
		segments := []KeptSegment{
			{SrcStart: 10, SrcEnd: 12, TrailFadeS: 0.010},
			{SrcStart: 15, SrcEnd: 18, LeadFadeS: 0.010},
		}

		// Act
		m := NewTimelineMap(segments)

		// Assert
		assert.Equal(t, 2.0, m.SpanList[0].OutEnd)
		assert.InDelta(t, 1.99, m.SpanList[1].OutStart, 1e-9)
		assert.InDelta(t, 4.99, m.OutputDuration(), 1e-9)
	})

	t.Run("should advance within spans and regress at joins by at most the fade", func(t *testing.T) {
		// Arrange
		segments := []KeptSegment{
			{SrcStart: 0, SrcEnd: 2, TrailFadeS: 0.010},
			{SrcStart: 5, SrcEnd: 6, LeadFadeS: 0.010, TrailFadeS: 0.010},
			{SrcStart: 9, SrcEnd: 13, LeadFadeS: 0.010},
		}
		m := NewTimelineMap(segments)

		// Within each span, output advances with the source at slope one
		for _, span := range m.SpanList {
			a, okA := m.ToOutput(span.SrcStart)
			b, okB := m.ToOutput(span.SrcEnd - 0.001)
			require.True(t, okA)
			require.True(t, okB)
			assert.Greater(t, b, a)
		}

		// Faded spans overlap in output-time: the next span starts exactly one
		// fade before the previous span ends, never earlier
		for i := 1; i < len(m.SpanList); i++ {
			assert.InDelta(t, 0.010, m.SpanList[i-1].OutEnd-m.SpanList[i].OutStart, 1e-9)
			assert.GreaterOrEqual(t, m.SpanList[i].OutStart, m.SpanList[i-1].OutEnd-0.010)
		}
	})
}

func TestTimelineMap_ToOutput(t *testing.T) {
	t.Run("should map kept instants with slope one", func(t *testing.T) {
		// Arrange
		m := NewTimelineMap([]KeptSegment{{SrcStart: 10, SrcEnd: 12}})

		// Act
		outT, ok := m.ToOutput(10.75)

		// Assert
		require.True(t, ok)
		assert.InDelta(t, 0.75, outT, 1e-9)
	})

	t.Run("should report removed instants", func(t *testing.T) {
		// Arrange
		m := NewTimelineMap([]KeptSegment{
			{SrcStart: 10, SrcEnd: 12},
			{SrcStart: 15, SrcEnd: 18},
		})

		// Act
		_, ok := m.ToOutput(13.5)

		// Assert
		assert.False(t, ok)
	})

	t.Run("should treat span ends as exclusive", func(t *testing.T) {
		// Arrange
		m := NewTimelineMap([]KeptSegment{{SrcStart: 10, SrcEnd: 12}})

		// Act
		_, ok := m.ToOutput(12)

		// Assert
		assert.False(t, ok)
	})

	t.Run("should return zero duration for an empty map", func(t *testing.T) {
		// Arrange
		m := NewTimelineMap(nil)

		// Assert
		assert.Equal(t, 0.0, m.OutputDuration())
	})
}
