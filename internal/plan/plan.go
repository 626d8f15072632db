package plan

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"clipforge/internal/preset"
	"clipforge/internal/vad"
)

// ErrEmptyPlan indicates no speech survives the clip window
var ErrEmptyPlan = fmt.Errorf("empty plan: no speech in clip window")

// overrideMatchToleranceS is how close a silence override's source time must
// be to a detected silence start to apply to it
const overrideMatchToleranceS = 0.100

// KeptSegment is a contiguous source range that survives silence trimming.
// Fades describe the crossfade with the previous/next kept segment; the first
// segment has LeadFadeS = 0 and the last has TrailFadeS = 0.
type KeptSegment struct {
	SrcStart   float64 `json:"src_start"`
	SrcEnd     float64 `json:"src_end"`
	LeadFadeS  float64 `json:"lead_fade_s"`
	TrailFadeS float64 `json:"trail_fade_s"`
}

// Duration returns the source-time length of the segment
func (k KeptSegment) Duration() float64 {
	return k.SrcEnd - k.SrcStart
}

// SilenceDecision records what the planner did with one detected silence
type SilenceDecision struct {
	SrcStart   float64 `json:"src_start"`
	DurationS  float64 `json:"duration_s"`
	KeptS      float64 `json:"kept_s"`
	Overridden bool    `json:"overridden"`
}

// Summary describes a plan for reporting on the export result
type Summary struct {
	SegmentCount int               `json:"segment_count"`
	Decisions    []SilenceDecision `json:"decisions"`
	RemovedS     float64           `json:"removed_s"`
}

// EditPlan is the single edit decision shared by audio assembly, caption
// timing, and the renderer. All three consume the same kept segments and the
// same timeline map; none may snap times to frames.
type EditPlan struct {
	ClipStart               float64       `json:"clip_start"`
	ClipEnd                 float64       `json:"clip_end"`
	Preset                  string        `json:"preset"`
	KeptSegments            []KeptSegment `json:"kept_segments"`
	Timeline                *TimelineMap  `json:"timeline"`
	EstimatedOutputDuration float64       `json:"estimated_output_duration"`
	Summary                 Summary       `json:"summary"`
}

// Planner turns a VAD analysis plus a clip request into an EditPlan
type Planner struct {
	logger *zap.Logger
}

// NewPlanner creates a new Planner instance
func NewPlanner() *Planner {
	return &Planner{logger: zap.NewNop()}
}

// NewPlannerWithLogger creates a new Planner instance with custom logger
func NewPlannerWithLogger(logger *zap.Logger) *Planner {
	p := NewPlanner()
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Plan computes the kept segments and timeline for [clipStart, clipEnd).
// adjustments may be nil. The plan stays in floating-point source-time
// throughout; frame snapping is a renderer concern only.
func (p *Planner) Plan(analysis *vad.Analysis, clipStart, clipEnd float64, adjustments *preset.Adjustments) (*EditPlan, error) {
	cfg := analysis.Config
	maxKept := cfg.MaxKeptSilenceS
	if adjustments != nil && adjustments.MaxKeptSilenceS != nil {
		maxKept = *adjustments.MaxKeptSilenceS
	}

	// Intersect speech with the clip window
	speech := make([]vad.Segment, 0, len(analysis.Speech))
	for _, s := range analysis.Speech {
		start := math.Max(s.Start, clipStart)
		end := math.Min(s.End, clipEnd)
		if end > start {
			speech = append(speech, vad.Segment{Start: start, End: end})
		}
	}
	if len(speech) == 0 {
		return nil, ErrEmptyPlan
	}

	// Pad speech into the surrounding silence, clamped to the clip window.
	// Padded neighbours that would overlap split the overlap at its midpoint.
	padded := make([]vad.Segment, len(speech))
	for i, s := range speech {
		padded[i] = vad.Segment{
			Start: math.Max(clipStart, s.Start-cfg.SpeechPaddingS),
			End:   math.Min(clipEnd, s.End+cfg.SpeechPaddingS),
		}
	}
	for i := 0; i < len(padded)-1; i++ {
		if padded[i].End > padded[i+1].Start {
			mid := (padded[i+1].Start + padded[i].End) / 2
			padded[i].End = mid
			padded[i+1].Start = mid
		}
	}

	decide := func(gap, origStart float64) (float64, bool) {
		if adjustments != nil {
			for _, ov := range adjustments.Silences {
				if math.Abs(ov.SrcStart-origStart) < overrideMatchToleranceS {
					keep := float64(ov.KeepMS) / 1000
					return math.Min(math.Max(keep, 0), gap), true
				}
			}
		}
		if gap < cfg.MinSilenceS {
			return gap, false
		}
		return math.Min(gap, maxKept), false
	}

	var segments []KeptSegment
	var decisions []SilenceDecision

	// Leading silence: a trim keeps only the half adjacent to the first speech
	cursor := padded[0].Start
	if gap := padded[0].Start - clipStart; gap > 0 {
		keep, overridden := decide(gap, clipStart)
		decisions = append(decisions, SilenceDecision{
			SrcStart: clipStart, DurationS: gap, KeptS: keep, Overridden: overridden,
		})
		if keep >= gap {
			cursor = clipStart
		} else {
			cursor = padded[0].Start - keep/2
		}
	}

	for i := 0; i < len(padded)-1; i++ {
		gap := padded[i+1].Start - padded[i].End
		if gap <= 0 {
			continue
		}
		// Overrides reference the detected silence start, before padding
		keep, overridden := decide(gap, speech[i].End)
		decisions = append(decisions, SilenceDecision{
			SrcStart: speech[i].End, DurationS: gap, KeptS: keep, Overridden: overridden,
		})
		if keep >= gap {
			continue
		}
		// Cut centred in the removal: half the kept silence stays on each side
		segments = append(segments, KeptSegment{SrcStart: cursor, SrcEnd: padded[i].End + keep/2})
		cursor = padded[i+1].Start - keep/2
	}

	// Trailing silence, mirror of the leading case
	runEnd := padded[len(padded)-1].End
	if gap := clipEnd - runEnd; gap > 0 {
		keep, overridden := decide(gap, speech[len(speech)-1].End)
		decisions = append(decisions, SilenceDecision{
			SrcStart: speech[len(speech)-1].End, DurationS: gap, KeptS: keep, Overridden: overridden,
		})
		if keep >= gap {
			runEnd = clipEnd
		} else {
			runEnd += keep / 2
		}
	}
	segments = append(segments, KeptSegment{SrcStart: cursor, SrcEnd: runEnd})

	// Crossfades at every interior join only
	for i := 0; i < len(segments)-1; i++ {
		segments[i].TrailFadeS = cfg.CrossfadeS
		segments[i+1].LeadFadeS = cfg.CrossfadeS
	}

	timeline := NewTimelineMap(segments)

	kept := 0.0
	for _, s := range segments {
		kept += s.Duration()
	}

	plan := &EditPlan{
		ClipStart:               clipStart,
		ClipEnd:                 clipEnd,
		Preset:                  cfg.Name,
		KeptSegments:            segments,
		Timeline:                timeline,
		EstimatedOutputDuration: timeline.OutputDuration(),
		Summary: Summary{
			SegmentCount: len(segments),
			Decisions:    decisions,
			RemovedS:     (clipEnd - clipStart) - kept,
		},
	}

	p.logger.Info("edit plan computed",
		zap.String("preset", cfg.Name),
		zap.Int("segments", len(segments)),
		zap.Float64("clip_duration", clipEnd-clipStart),
		zap.Float64("output_duration", plan.EstimatedOutputDuration))

	return plan, nil
}
