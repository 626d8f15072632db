package export

import (
	"fmt"
	"sort"
)

// Format describes one fixed delivery target
type Format struct {
	Name                 string
	Width                int
	Height               int
	AspectW              int
	AspectH              int
	FPS                  int
	BitrateMbps          float64
	AudioBitrateKbps     int
	CaptionMarginBottom  int
	CaptionMarginSides   int
	SubjectAnchorX       float64
	SubjectAnchorY       float64
	MaxDurationS         float64
}

// Aspect returns the target width/height ratio
func (f Format) Aspect() float64 {
	return float64(f.AspectW) / float64(f.AspectH)
}

var formats = map[string]Format{
	"tiktok": {
		Name: "tiktok", Width: 1080, Height: 1920, AspectW: 9, AspectH: 16,
		FPS: 30, BitrateMbps: 8.0, AudioBitrateKbps: 128,
		CaptionMarginBottom: 367, CaptionMarginSides: 80,
		SubjectAnchorX: 0.50, SubjectAnchorY: 0.35,
		MaxDurationS: 180,
	},
	"youtube_shorts": {
		Name: "youtube_shorts", Width: 1080, Height: 1920, AspectW: 9, AspectH: 16,
		FPS: 30, BitrateMbps: 8.0, AudioBitrateKbps: 128,
		CaptionMarginBottom: 367, CaptionMarginSides: 80,
		SubjectAnchorX: 0.50, SubjectAnchorY: 0.35,
		MaxDurationS: 60,
	},
	"instagram_reels": {
		Name: "instagram_reels", Width: 1080, Height: 1920, AspectW: 9, AspectH: 16,
		FPS: 30, BitrateMbps: 8.0, AudioBitrateKbps: 128,
		CaptionMarginBottom: 350, CaptionMarginSides: 80,
		SubjectAnchorX: 0.50, SubjectAnchorY: 0.35,
		MaxDurationS: 90,
	},
	"linkedin": {
		Name: "linkedin", Width: 1080, Height: 1350, AspectW: 4, AspectH: 5,
		FPS: 30, BitrateMbps: 6.0, AudioBitrateKbps: 128,
		CaptionMarginBottom: 100, CaptionMarginSides: 60,
		SubjectAnchorX: 0.50, SubjectAnchorY: 0.50,
		MaxDurationS: 600,
	},
	"linkedin_square": {
		Name: "linkedin_square", Width: 1080, Height: 1080, AspectW: 1, AspectH: 1,
		FPS: 30, BitrateMbps: 6.0, AudioBitrateKbps: 128,
		CaptionMarginBottom: 100, CaptionMarginSides: 60,
		SubjectAnchorX: 0.50, SubjectAnchorY: 0.50,
		MaxDurationS: 600,
	},
}

// FromName returns the format for a fixed target name
func FromName(name string) (Format, error) {
	f, ok := formats[name]
	if !ok {
		return Format{}, fmt.Errorf("unknown target format %q (valid: %v)", name, Names())
	}
	return f, nil
}

// Names returns the supported format names in sorted order
func Names() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
