package preset

import "fmt"

// Config bundles the VAD, trim, padding, and crossfade parameters for one
// delivery platform. All durations are seconds.
type Config struct {
	Name            string
	MinSilenceS     float64
	MaxKeptSilenceS float64
	SpeechPaddingS  float64
	CrossfadeS      float64
	VadThreshold    float64
}

// Fixed platform presets. Values are tuned per platform pacing: short-form
// platforms trim harder than podcast.
var presets = map[string]Config{
	"linkedin": {
		Name:            "linkedin",
		MinSilenceS:     0.50,
		MaxKeptSilenceS: 0.70,
		SpeechPaddingS:  0.15,
		CrossfadeS:      0.010,
		VadThreshold:    0.5,
	},
	"youtube_shorts": {
		Name:            "youtube_shorts",
		MinSilenceS:     0.30,
		MaxKeptSilenceS: 0.20,
		SpeechPaddingS:  0.10,
		CrossfadeS:      0.010,
		VadThreshold:    0.5,
	},
	"tiktok": {
		Name:            "tiktok",
		MinSilenceS:     0.20,
		MaxKeptSilenceS: 0.15,
		SpeechPaddingS:  0.08,
		CrossfadeS:      0.010,
		VadThreshold:    0.5,
	},
	"podcast": {
		Name:            "podcast",
		MinSilenceS:     0.80,
		MaxKeptSilenceS: 1.00,
		SpeechPaddingS:  0.20,
		CrossfadeS:      0.010,
		VadThreshold:    0.5,
	},
}

// FromName resolves a preset by its fixed platform name
func FromName(name string) (Config, error) {
	cfg, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown preset %q", name)
	}
	return cfg, nil
}

// Names returns all fixed preset names
func Names() []string {
	return []string{"linkedin", "youtube_shorts", "tiktok", "podcast"}
}

// SilenceOverride pins the kept duration of one detected silence, matched by
// its source start time.
type SilenceOverride struct {
	SrcStart float64 // source-time start of the silence being overridden
	KeepMS   int     // silence duration to keep, in milliseconds
}

// Adjustments carries per-request overrides applied on top of a preset.
type Adjustments struct {
	// MaxKeptSilenceS overrides the preset-wide cap when non-nil.
	MaxKeptSilenceS *float64
	// Silences are per-silence keep overrides, matched within 100 ms.
	Silences []SilenceOverride
}
