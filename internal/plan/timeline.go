package plan

// Span is one affine piece of the timeline map, slope 1 from source-time to
// output-time over [SrcStart, SrcEnd).
type Span struct {
	SrcStart float64 `json:"src_start"`
	SrcEnd   float64 `json:"src_end"`
	OutStart float64 `json:"out_start"`
	OutEnd   float64 `json:"out_end"`
}

// TimelineMap is the monotone piecewise-affine function from source-time to
// output-time induced by an ordered kept-segment list. Crossfades cost no
// output time: at a faded join the next span starts one fade length before
// the previous span ends, and the two pieces overlap on that window.
type TimelineMap struct {
	SpanList []Span `json:"spans"`
}

// NewTimelineMap builds the map for ordered kept segments
func NewTimelineMap(segments []KeptSegment) *TimelineMap {
	spans := make([]Span, len(segments))
	out := 0.0
	for i, seg := range segments {
		start := out
		if i > 0 && seg.LeadFadeS > 0 {
			start = out - seg.LeadFadeS
		}
		end := start + seg.Duration()
		spans[i] = Span{SrcStart: seg.SrcStart, SrcEnd: seg.SrcEnd, OutStart: start, OutEnd: end}
		out = end
	}
	return &TimelineMap{SpanList: spans}
}

// ToOutput maps a source-time instant to output-time. It returns false when
// the instant falls in removed material. On the crossfade overlap the later
// affine piece wins, keeping the mapping monotone.
func (m *TimelineMap) ToOutput(srcT float64) (float64, bool) {
	outT := 0.0
	found := false
	for _, sp := range m.SpanList {
		if srcT >= sp.SrcStart && srcT < sp.SrcEnd {
			outT = sp.OutStart + (srcT - sp.SrcStart)
			found = true
		}
	}
	return outT, found
}

// OutputDuration returns the total output duration of the mapped plan
func (m *TimelineMap) OutputDuration() float64 {
	if len(m.SpanList) == 0 {
		return 0
	}
	return m.SpanList[len(m.SpanList)-1].OutEnd
}
