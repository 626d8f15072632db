package captions

import (
	"fmt"
	"strings"
)

// RenderSpec is the per-format geometry for caption rendering
type RenderSpec struct {
	PlayResX int
	PlayResY int
	MarginV  int
}

// RenderASS emits an Advanced SubStation Alpha document with karaoke word
// highlighting for the given chunks. The \kf tag fills each word from the
// left over its duration, which reads more smoothly than a hard \k switch.
func RenderASS(chunks []Chunk, style Style, spec RenderSpec) string {
	var b strings.Builder
	writeHeader(&b, style, spec)
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, c := range chunks {
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(c.OutStart))
		b.WriteString(",")
		b.WriteString(assTime(c.OutEnd))
		b.WriteString(",Caption,,0,0,0,,")
		if style.FadeInMS > 0 || style.FadeOutMS > 0 {
			fmt.Fprintf(&b, "{\\fad(%d,%d)}", style.FadeInMS, style.FadeOutMS)
		}
		for i, w := range c.Words {
			cs := int((w.OutEnd - w.OutStart) * 100)
			if cs < 1 {
				cs = 1
			}
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "{\\kf%d}%s", cs, sanitizeASS(w.Text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeHeader(b *strings.Builder, style Style, spec RenderSpec) {
	fmt.Fprintf(b, `[Script Info]
ScriptType: v4.00+
WrapStyle: 0
ScaledBorderAndShadow: yes
PlayResX: %d
PlayResY: %d

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Caption, %s, %d, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,6,2,2, 80,80,%d,1
`, spec.PlayResX, spec.PlayResY, style.FontName, style.FontSize, spec.MarginV)
}

// assTime formats seconds as the ASS h:mm:ss.cc timestamp
func assTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	cs := int(seconds*100 + 0.5)
	h := cs / 360000
	cs -= h * 360000
	m := cs / 6000
	cs -= m * 6000
	s := cs / 100
	cs -= s * 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

// sanitizeASS strips characters that would open ASS override blocks
func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}
