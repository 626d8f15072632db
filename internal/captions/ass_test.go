package captions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderASS(t *testing.T) {
	spec := RenderSpec{PlayResX: 1080, PlayResY: 1920, MarginV: 367}

	t.Run("should emit the script geometry for the target format", func(t *testing.T) {
		// Act
		doc := RenderASS(nil, DefaultStyle(), spec)

		// Assert
		assert.Contains(t, doc, "PlayResX: 1080")
		assert.Contains(t, doc, "PlayResY: 1920")
		assert.Contains(t, doc, "[V4+ Styles]")
		assert.Contains(t, doc, "[Events]")
	})

	t.Run("should emit karaoke fill tags sized in centiseconds", func(t *testing.T) {
		// Arrange
		chunks := []Chunk{{
			Words: []ChunkWord{
				{Text: "hello", OutStart: 1.0, OutEnd: 1.3},
				{Text: "world", OutStart: 1.3, OutEnd: 1.8},
			},
			OutStart: 1.0,
			OutEnd:   1.8,
		}}

		// Act
		doc := RenderASS(chunks, DefaultStyle(), spec)

		// Assert
		assert.Contains(t, doc, "{\\kf30}hello")
		assert.Contains(t, doc, "{\\kf50}world")
		assert.Contains(t, doc, "Dialogue: 0,0:00:01.00,0:00:01.80,Caption,,0,0,0,,")
	})

	t.Run("should never emit a zero-length karaoke tag", func(t *testing.T) {
		// Arrange
		chunks := []Chunk{{
			Words:    []ChunkWord{{Text: "blip", OutStart: 2.0, OutEnd: 2.001}},
			OutStart: 2.0,
			OutEnd:   2.001,
		}}

		// Act
		doc := RenderASS(chunks, DefaultStyle(), spec)

		// Assert
		assert.Contains(t, doc, "{\\kf1}blip")
	})

	t.Run("should prefix dialogue with a fade when styled", func(t *testing.T) {
		// Arrange
		chunks := []Chunk{{
			Words:    []ChunkWord{{Text: "hi", OutStart: 0, OutEnd: 0.5}},
			OutStart: 0,
			OutEnd:   0.5,
		}}
		style := DefaultStyle()
		style.FadeInMS = 50
		style.FadeOutMS = 80

		// Act
		doc := RenderASS(chunks, style, spec)

		// Assert
		assert.Contains(t, doc, "{\\fad(50,80)}")
	})

	t.Run("should sanitize override characters out of words", func(t *testing.T) {
		// Arrange
		chunks := []Chunk{{
			Words:    []ChunkWord{{Text: "{evil}", OutStart: 0, OutEnd: 0.5}},
			OutStart: 0,
			OutEnd:   0.5,
		}}

		// Act
		doc := RenderASS(chunks, DefaultStyle(), spec)

		// Assert
		assert.Contains(t, doc, "(evil)")
		require.Equal(t, 1, strings.Count(doc, "{\\kf"), "only the karaoke tag may open a brace block")
	})
}

func TestAssTime(t *testing.T) {
	t.Run("should format centisecond timestamps", func(t *testing.T) {
		assert.Equal(t, "0:00:00.00", assTime(0))
		assert.Equal(t, "0:00:01.50", assTime(1.5))
		assert.Equal(t, "0:01:05.43", assTime(65.43))
		assert.Equal(t, "1:00:00.00", assTime(3600))
	})

	t.Run("should clamp negative times to zero", func(t *testing.T) {
		assert.Equal(t, "0:00:00.00", assTime(-2))
	})
}
