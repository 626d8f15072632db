package renderer

import (
	"fmt"
	"math"
	"strings"

	"clipforge/internal/export"
	"clipforge/internal/plan"
)

// BuildFilterGraph emits the single filter_complex string for one export.
// Kept segments become trim filters in source-time order, concatenated when
// there is more than one, then scaled and cropped, with subtitles burned in
// last when assPath is set. The final video label is [vout].
//
// The crop region arrives in source pixels; the graph scales the source so
// the region lands exactly on the format's output resolution, then crops at
// the scaled coordinates.
func BuildFilterGraph(p *plan.EditPlan, srcW, srcH int, region export.CropRegion, f export.Format, assPath string) string {
	var filters []string

	n := len(p.KeptSegments)
	label := "edited"
	if n == 1 {
		filters = append(filters, fmt.Sprintf("[0:v]%s[edited]", trimFilter(p.KeptSegments[0])))
	} else {
		var split strings.Builder
		fmt.Fprintf(&split, "[0:v]split=%d", n)
		for i := 0; i < n; i++ {
			fmt.Fprintf(&split, "[s%d]", i)
		}
		filters = append(filters, split.String())

		for i, seg := range p.KeptSegments {
			filters = append(filters, fmt.Sprintf("[s%d]%s[seg%d]", i, trimFilter(seg), i))
		}

		var concat strings.Builder
		for i := 0; i < n; i++ {
			fmt.Fprintf(&concat, "[seg%d]", i)
		}
		fmt.Fprintf(&concat, "concat=n=%d:v=1:a=0[edited]", n)
		filters = append(filters, concat.String())
	}

	factor := float64(f.Width) / float64(region.W)
	scaledW := int(math.Round(float64(srcW) * factor))
	scaledH := int(math.Round(float64(srcH) * factor))
	cropX := clampInt(int(math.Round(float64(region.X)*factor)), 0, scaledW-f.Width)
	cropY := clampInt(int(math.Round(float64(region.Y)*factor)), 0, scaledH-f.Height)

	filters = append(filters, fmt.Sprintf("[%s]scale=%d:%d[scaled]", label, scaledW, scaledH))
	filters = append(filters, fmt.Sprintf("[scaled]crop=%d:%d:%d:%d[cropped]", f.Width, f.Height, cropX, cropY))

	if assPath != "" {
		filters = append(filters, fmt.Sprintf("[cropped]subtitles='%s'[vout]", escapeFilterPath(assPath)))
	} else {
		last := filters[len(filters)-1]
		filters[len(filters)-1] = strings.Replace(last, "[cropped]", "[vout]", 1)
	}

	return strings.Join(filters, ";")
}

func trimFilter(seg plan.KeptSegment) string {
	return fmt.Sprintf("trim=start=%.6f:end=%.6f,setpts=PTS-STARTPTS", seg.SrcStart, seg.SrcEnd)
}

// escapeFilterPath quotes a path for use inside a filter option value
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, `\`, `\\`)
	path = strings.ReplaceAll(path, `'`, `\'`)
	path = strings.ReplaceAll(path, `:`, `\:`)
	return path
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
