package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfiguration_Defaults(t *testing.T) {
	t.Run("should fall back to tool names on PATH", func(t *testing.T) {
		// Arrange
		cfg := NewConfiguration()

		// Act & Assert
		assert.Equal(t, "ffmpeg", cfg.GetFFmpegPath())
		assert.Equal(t, "ffprobe", cfg.GetFFprobePath())
		assert.Equal(t, "silero-vad-cli", cfg.GetVadCommand())
	})

	t.Run("should default the VAD timeout to one minute", func(t *testing.T) {
		// Arrange
		cfg := NewConfiguration()

		// Act & Assert
		assert.Equal(t, 60, cfg.GetVadTimeoutSec())
	})

	t.Run("should default the vision oracle endpoint and model", func(t *testing.T) {
		// Arrange
		cfg := NewConfiguration()

		// Act & Assert
		assert.Contains(t, cfg.GetVisionURL(), "https://")
		assert.NotEmpty(t, cfg.GetVisionModel())
		assert.Empty(t, cfg.GetVisionAPIKey(), "no API key should be baked in")
	})

	t.Run("should bound concurrent renders by default", func(t *testing.T) {
		// Arrange
		cfg := NewConfiguration()

		// Act & Assert
		assert.Greater(t, cfg.GetRenderMaxConcurrent(), 0)
	})
}

func TestConfiguration_FromFile(t *testing.T) {
	t.Run("should load settings from a config file", func(t *testing.T) {
		// Arrange - create temporary config file
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")
		configContent := `ffmpeg:
  path: "/opt/ffmpeg/bin/ffmpeg"
vad:
  command: "/usr/local/bin/silero-vad-cli"
  timeout_sec: 120
cache:
  db_path: "/var/lib/clipforge/vad.db"`

		err := os.WriteFile(configFile, []byte(configContent), 0644)
		assert.NoError(t, err)

		// Act
		cfg, err := NewConfigurationFromFile(configFile)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.GetFFmpegPath())
		assert.Equal(t, "/usr/local/bin/silero-vad-cli", cfg.GetVadCommand())
		assert.Equal(t, 120, cfg.GetVadTimeoutSec())
		assert.Equal(t, "/var/lib/clipforge/vad.db", cfg.GetCacheDBPath())
	})

	t.Run("should keep defaults for keys the file omits", func(t *testing.T) {
		// Arrange
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")
		err := os.WriteFile(configFile, []byte(`scratch:
  root: "/mnt/scratch"`), 0644)
		assert.NoError(t, err)

		// Act
		cfg, err := NewConfigurationFromFile(configFile)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "/mnt/scratch", cfg.GetScratchRoot())
		assert.Equal(t, "ffprobe", cfg.GetFFprobePath())
	})

	t.Run("should return error for non-existent config file", func(t *testing.T) {
		// Act
		_, err := NewConfigurationFromFile("/does/not/exist/config.yaml")

		// Assert
		assert.Error(t, err)
	})
}

func TestConfiguration_FromEnv(t *testing.T) {
	t.Run("should load settings from environment variables", func(t *testing.T) {
		// Arrange
		os.Setenv("FFMPEG_PATH", "/env/ffmpeg")
		os.Setenv("OPENROUTER_API_KEY", "sk-test")
		defer os.Unsetenv("FFMPEG_PATH")
		defer os.Unsetenv("OPENROUTER_API_KEY")

		// Act
		cfg, err := NewConfigurationFromEnv()

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "/env/ffmpeg", cfg.GetFFmpegPath())
		assert.Equal(t, "sk-test", cfg.GetVisionAPIKey())
	})

	t.Run("should load timeouts and render concurrency from environment", func(t *testing.T) {
		// Arrange
		os.Setenv("VAD_TIMEOUT_SEC", "90")
		os.Setenv("VISION_TIMEOUT_SEC", "15")
		os.Setenv("RENDER_MAX_CONCURRENT", "3")
		defer os.Unsetenv("VAD_TIMEOUT_SEC")
		defer os.Unsetenv("VISION_TIMEOUT_SEC")
		defer os.Unsetenv("RENDER_MAX_CONCURRENT")

		// Act
		cfg, err := NewConfigurationFromEnv()

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 90, cfg.GetVadTimeoutSec())
		assert.Equal(t, 15, cfg.GetVisionTimeoutSec())
		assert.Equal(t, 3, cfg.GetRenderMaxConcurrent())
	})

	t.Run("should load cache database path from environment", func(t *testing.T) {
		// Arrange
		os.Setenv("VAD_CACHE_DB", "/data/cache.db")
		defer os.Unsetenv("VAD_CACHE_DB")

		// Act
		cfg, err := NewConfigurationFromEnv()

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "/data/cache.db", cfg.GetCacheDBPath())
	})
}
