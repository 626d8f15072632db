package captions

import (
	"math"

	"go.uber.org/zap"

	"clipforge/internal/plan"
)

// Word is a transcript word with source-time boundaries
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript carries the word-level timings supplied by the caller
type Transcript struct {
	Words []Word `json:"words"`
}

// ChunkWord is a word rebased into output-time
type ChunkWord struct {
	Text     string  `json:"text"`
	OutStart float64 `json:"out_start"`
	OutEnd   float64 `json:"out_end"`
}

// Chunk is one caption line, all times in output-time
type Chunk struct {
	Words    []ChunkWord `json:"words"`
	OutStart float64     `json:"out_start"`
	OutEnd   float64     `json:"out_end"`
}

// Style controls word grouping and karaoke appearance
type Style struct {
	MaxWordsPerChunk  int
	MaxIntraChunkGapS float64
	MaxChunkDurationS float64
	FontName          string
	FontSize          int
	FadeInMS          int
	FadeOutMS         int
}

// DefaultStyle returns the chunking and appearance defaults
func DefaultStyle() Style {
	return Style{
		MaxWordsPerChunk:  6,
		MaxIntraChunkGapS: 0.700,
		MaxChunkDurationS: 3.0,
		FontName:          "Inter",
		FontSize:          78,
		FadeInMS:          50,
		FadeOutMS:         50,
	}
}

// Timer rebases transcript words through an edit plan's timeline so captions
// stay aligned with speech after silences are removed
type Timer struct {
	logger *zap.Logger
}

// NewTimer creates a new Timer instance
func NewTimer() *Timer {
	return &Timer{logger: zap.NewNop()}
}

// NewTimerWithLogger creates a new Timer instance with custom logger
func NewTimerWithLogger(logger *zap.Logger) *Timer {
	t := NewTimer()
	if logger != nil {
		t.logger = logger
	}
	return t
}

// Rebase maps transcript words into output-time and groups them into caption
// chunks. Words whose midpoint falls in removed material are dropped.
func (t *Timer) Rebase(transcript *Transcript, p *plan.EditPlan, style Style) []Chunk {
	if transcript == nil || len(transcript.Words) == 0 {
		return []Chunk{}
	}

	rebased := make([]ChunkWord, 0, len(transcript.Words))
	dropped := 0
	for _, w := range transcript.Words {
		if w.End <= p.ClipStart || w.Start >= p.ClipEnd {
			continue
		}
		mid := (w.Start + w.End) / 2
		span, ok := spanContaining(p.Timeline, mid)
		if !ok {
			dropped++
			continue
		}
		outStart := span.OutStart + (math.Max(w.Start, span.SrcStart) - span.SrcStart)
		outEnd := span.OutStart + (math.Min(w.End, span.SrcEnd) - span.SrcStart)
		if outEnd <= outStart {
			dropped++
			continue
		}
		rebased = append(rebased, ChunkWord{Text: w.Text, OutStart: outStart, OutEnd: outEnd})
	}

	chunks := groupWords(rebased, style)

	t.logger.Debug("rebased captions",
		zap.Int("words_in", len(transcript.Words)),
		zap.Int("words_kept", len(rebased)),
		zap.Int("words_dropped", dropped),
		zap.Int("chunks", len(chunks)))
	return chunks
}

// spanContaining finds the timeline piece covering srcT, preferring the later
// piece on crossfade overlaps like the timeline map itself does
func spanContaining(m *plan.TimelineMap, srcT float64) (plan.Span, bool) {
	var found plan.Span
	ok := false
	for _, sp := range m.SpanList {
		if srcT >= sp.SrcStart && srcT < sp.SrcEnd {
			found = sp
			ok = true
		}
	}
	return found, ok
}

// groupWords packs rebased words greedily into chunks, breaking on word
// budget, intra-chunk gap, or chunk duration
func groupWords(words []ChunkWord, style Style) []Chunk {
	if len(words) == 0 {
		return []Chunk{}
	}

	maxWords := style.MaxWordsPerChunk
	if maxWords <= 0 {
		maxWords = 6
	}

	var chunks []Chunk
	cur := []ChunkWord{words[0]}
	for _, w := range words[1:] {
		breakChunk := len(cur) >= maxWords ||
			w.OutStart-cur[len(cur)-1].OutEnd > style.MaxIntraChunkGapS ||
			w.OutEnd-cur[0].OutStart > style.MaxChunkDurationS
		if breakChunk {
			chunks = append(chunks, finishChunk(cur))
			cur = nil
		}
		cur = append(cur, w)
	}
	chunks = append(chunks, finishChunk(cur))

	// Successive chunks must not overlap in output-time, and every word must
	// stay inside its clamped chunk
	for i := 1; i < len(chunks); i++ {
		if chunks[i-1].OutEnd > chunks[i].OutStart {
			chunks[i-1].OutEnd = chunks[i].OutStart
			for j := range chunks[i-1].Words {
				w := &chunks[i-1].Words[j]
				if w.OutEnd > chunks[i-1].OutEnd {
					w.OutEnd = chunks[i-1].OutEnd
				}
				if w.OutStart > w.OutEnd {
					w.OutStart = w.OutEnd
				}
			}
		}
	}
	return chunks
}

func finishChunk(words []ChunkWord) Chunk {
	return Chunk{
		Words:    words,
		OutStart: words[0].OutStart,
		OutEnd:   words[len(words)-1].OutEnd,
	}
}
