package config

import (
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

// Configuration provides type-safe access to application settings
type Configuration struct {
	viper *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ffmpeg.path", "ffmpeg")
	v.SetDefault("ffprobe.path", "ffprobe")
	v.SetDefault("vad.command", "silero-vad-cli")
	v.SetDefault("vad.timeout_sec", 60)
	v.SetDefault("vision.url", "https://openrouter.ai/api/v1/chat/completions")
	v.SetDefault("vision.model", "google/gemini-2.5-flash")
	v.SetDefault("vision.timeout_sec", 10)
	v.SetDefault("scratch.root", "/tmp/clipforge")
	v.SetDefault("cache.db_path", "./data/vad_cache.db")
	v.SetDefault("render.max_concurrent", runtime.NumCPU())
}

// NewConfiguration creates a new Configuration instance with default settings
func NewConfiguration() *Configuration {
	v := viper.New()
	setDefaults(v)
	return &Configuration{viper: v}
}

// NewConfigurationFromFile creates a Configuration instance from a config file
func NewConfigurationFromFile(configFile string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	return &Configuration{viper: v}, nil
}

// NewConfigurationFromEnv creates a Configuration instance that reads from environment variables
func NewConfigurationFromEnv() (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CLIPFORGE")
	v.AutomaticEnv()

	v.BindEnv("ffmpeg.path", "FFMPEG_PATH")
	v.BindEnv("ffprobe.path", "FFPROBE_PATH")
	v.BindEnv("vad.command", "VAD_COMMAND")
	v.BindEnv("vad.timeout_sec", "VAD_TIMEOUT_SEC")
	v.BindEnv("vision.url", "VISION_ORACLE_URL")
	v.BindEnv("vision.model", "VISION_MODEL")
	v.BindEnv("vision.api_key", "OPENROUTER_API_KEY")
	v.BindEnv("vision.timeout_sec", "VISION_TIMEOUT_SEC")
	v.BindEnv("scratch.root", "SCRATCH_ROOT")
	v.BindEnv("cache.db_path", "VAD_CACHE_DB")
	v.BindEnv("render.max_concurrent", "RENDER_MAX_CONCURRENT")

	return &Configuration{viper: v}, nil
}

// GetFFmpegPath returns the configured ffmpeg binary path
func (c *Configuration) GetFFmpegPath() string {
	return c.viper.GetString("ffmpeg.path")
}

// GetFFprobePath returns the configured ffprobe binary path
func (c *Configuration) GetFFprobePath() string {
	return c.viper.GetString("ffprobe.path")
}

// GetVadCommand returns the external voice-activity-detector command
func (c *Configuration) GetVadCommand() string {
	return c.viper.GetString("vad.command")
}

// GetVadTimeoutSec returns the VAD inference timeout in seconds
func (c *Configuration) GetVadTimeoutSec() int {
	return c.viper.GetInt("vad.timeout_sec")
}

// GetVisionURL returns the vision oracle endpoint URL
func (c *Configuration) GetVisionURL() string {
	return c.viper.GetString("vision.url")
}

// GetVisionModel returns the vision oracle model identifier
func (c *Configuration) GetVisionModel() string {
	return c.viper.GetString("vision.model")
}

// GetVisionAPIKey returns the vision oracle API key
func (c *Configuration) GetVisionAPIKey() string {
	return c.viper.GetString("vision.api_key")
}

// GetVisionTimeoutSec returns the per-frame vision oracle timeout in seconds
func (c *Configuration) GetVisionTimeoutSec() int {
	return c.viper.GetInt("vision.timeout_sec")
}

// GetScratchRoot returns the root directory for per-request scratch dirs
func (c *Configuration) GetScratchRoot() string {
	return c.viper.GetString("scratch.root")
}

// GetCacheDBPath returns the path of the persistent VAD cache database
func (c *Configuration) GetCacheDBPath() string {
	return c.viper.GetString("cache.db_path")
}

// GetRenderMaxConcurrent returns the bound on concurrent renderer invocations
func (c *Configuration) GetRenderMaxConcurrent() int {
	return c.viper.GetInt("render.max_concurrent")
}
