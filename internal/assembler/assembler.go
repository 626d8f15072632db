package assembler

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"

	"clipforge/internal/extractor"
	"clipforge/internal/plan"
)

// ErrIOFailure indicates the assembler could not read or write PCM data
var ErrIOFailure = fmt.Errorf("io failure")

// Assembler concatenates kept segments from decoded PCM, applying equal-power
// crossfades at every interior join. It consumes the same decoded bytes the
// VAD analyzed, so segment boundaries land on the same samples.
type Assembler struct {
	logger *zap.Logger
}

// NewAssembler creates a new Assembler instance
func NewAssembler() *Assembler {
	return &Assembler{logger: zap.NewNop()}
}

// NewAssemblerWithLogger creates a new Assembler instance with custom logger
func NewAssemblerWithLogger(logger *zap.Logger) *Assembler {
	a := NewAssembler()
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Assemble writes the edited audio for the plan to outPath as raw s16le PCM.
// pcmPath must cover the full source starting at time zero.
func (a *Assembler) Assemble(pcmPath string, p *plan.EditPlan, outPath string) error {
	data, err := os.ReadFile(pcmPath)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrIOFailure, pcmPath, err)
	}
	source := BytesToSamples(data)

	out := AssembleSamples(source, p.KeptSegments)

	if err := os.WriteFile(outPath, SamplesToBytes(out), 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIOFailure, outPath, err)
	}

	a.logger.Info("assembled audio",
		zap.Int("segments", len(p.KeptSegments)),
		zap.Int("samples", len(out)),
		zap.Float64("duration_s", float64(len(out))/extractor.SampleRate))
	return nil
}

// AssembleSamples concatenates the kept segments of source with equal-power
// crossfades. The outgoing tail is shaped by cos(π/2·t/L) and the incoming
// head by sin(π/2·t/L); the two occupy the same output samples, so fades
// consume no output time. A fade never exceeds half of either joined segment.
func AssembleSamples(source []int16, segments []plan.KeptSegment) []int16 {
	var out []int16
	prevLen := 0
	for i, seg := range segments {
		s0 := sampleIndex(seg.SrcStart, len(source))
		s1 := sampleIndex(seg.SrcEnd, len(source))
		if s1 <= s0 {
			continue
		}
		cur := source[s0:s1]

		fade := 0
		if i > 0 && seg.LeadFadeS > 0 {
			fade = int(math.Round(seg.LeadFadeS * extractor.SampleRate))
			fade = minInt(fade, len(cur)/2, prevLen/2, len(out))
		}

		if fade > 0 {
			l := float64(fade)
			base := len(out) - fade
			for t := 0; t < fade; t++ {
				theta := math.Pi / 2 * float64(t) / l
				mixed := float64(out[base+t])*math.Cos(theta) + float64(cur[t])*math.Sin(theta)
				out[base+t] = clampSample(mixed)
			}
		}
		out = append(out, cur[fade:]...)
		prevLen = len(cur)
	}
	return out
}

// BytesToSamples reinterprets raw s16le bytes as samples
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/extractor.BytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// SamplesToBytes serializes samples as raw s16le bytes
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*extractor.BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

func sampleIndex(t float64, n int) int {
	idx := int(math.Round(t * extractor.SampleRate))
	if idx < 0 {
		return 0
	}
	if idx > n {
		return n
	}
	return idx
}

func clampSample(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(math.Round(v))
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
