package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbeOutput(t *testing.T) {
	t.Run("should parse a typical 1080p source", func(t *testing.T) {
		// Arrange
		data := []byte(`{
			"streams": [
				{"codec_type": "video", "width": 1920, "height": 1080, "r_frame_rate": "30/1", "avg_frame_rate": "30/1"},
				{"codec_type": "audio", "sample_rate": "48000"}
			],
			"format": {"duration": "300.500000"}
		}`)

		// Act
		info, err := ParseProbeOutput(data)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 300.5, info.DurationS)
		assert.Equal(t, 48000, info.SampleRate)
		assert.Equal(t, 30.0, info.FrameRate)
		assert.Equal(t, 1920, info.Width)
		assert.Equal(t, 1080, info.Height)
	})

	t.Run("should parse an NTSC fractional frame rate", func(t *testing.T) {
		// Arrange
		data := []byte(`{
			"streams": [
				{"codec_type": "video", "width": 3840, "height": 2160, "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001"}
			],
			"format": {"duration": "60.0"}
		}`)

		// Act
		info, err := ParseProbeOutput(data)

		// Assert
		require.NoError(t, err)
		assert.InDelta(t, 29.97, info.FrameRate, 0.01)
	})

	t.Run("should fall back to average frame rate when r_frame_rate is useless", func(t *testing.T) {
		// Arrange
		data := []byte(`{
			"streams": [
				{"codec_type": "video", "width": 1280, "height": 720, "r_frame_rate": "0/0", "avg_frame_rate": "25/1"}
			],
			"format": {"duration": "10.0"}
		}`)

		// Act
		info, err := ParseProbeOutput(data)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 25.0, info.FrameRate)
	})

	t.Run("should use the first video stream when several exist", func(t *testing.T) {
		// Arrange
		data := []byte(`{
			"streams": [
				{"codec_type": "video", "width": 1920, "height": 1080, "r_frame_rate": "24/1"},
				{"codec_type": "video", "width": 640, "height": 360, "r_frame_rate": "15/1"}
			],
			"format": {"duration": "42.0"}
		}`)

		// Act
		info, err := ParseProbeOutput(data)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1920, info.Width)
		assert.Equal(t, 24.0, info.FrameRate)
	})

	t.Run("should reject output without a duration", func(t *testing.T) {
		// Arrange
		data := []byte(`{"streams": [], "format": {}}`)

		// Act
		_, err := ParseProbeOutput(data)

		// Assert
		assert.Error(t, err)
	})

	t.Run("should reject output without a video stream", func(t *testing.T) {
		// Arrange
		data := []byte(`{
			"streams": [{"codec_type": "audio", "sample_rate": "44100"}],
			"format": {"duration": "12.0"}
		}`)

		// Act
		_, err := ParseProbeOutput(data)

		// Assert
		assert.Error(t, err)
	})

	t.Run("should reject malformed JSON", func(t *testing.T) {
		// Act
		_, err := ParseProbeOutput([]byte("not json"))

		// Assert
		assert.Error(t, err)
	})
}

func TestParseFrameRate(t *testing.T) {
	t.Run("should parse integer rationals", func(t *testing.T) {
		// Act
		rate, err := parseFrameRate("60/1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 60.0, rate)
	})

	t.Run("should parse a bare number", func(t *testing.T) {
		// Act
		rate, err := parseFrameRate("25")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 25.0, rate)
	})

	t.Run("should reject a zero denominator", func(t *testing.T) {
		// Act
		_, err := parseFrameRate("30/0")

		// Assert
		assert.Error(t, err)
	})
}
