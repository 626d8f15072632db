package export

import (
	"math"

	"clipforge/internal/vision"
)

// reviewConfidence is the subject confidence below which the crop is flagged
// for manual review
const reviewConfidence = 0.70

// CropRegion is an integer rectangle in source pixels
type CropRegion struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// ComputeCrop returns the largest rectangle of the format's aspect that fits
// the source, positioned so the subject lands on the format's anchor point
// and clamped to the frame. The second result reports whether the crop needs
// manual review because subject confidence was low.
func ComputeCrop(srcW, srcH int, f Format, subject vision.Position) (CropRegion, bool) {
	// Snapping to the reduced aspect ratio keeps the rectangle integral with
	// zero aspect error
	aw, ah := reduceRatio(f.AspectW, f.AspectH)
	cropH := srcH / ah * ah
	cropW := cropH / ah * aw
	if cropW > srcW {
		cropW = srcW / aw * aw
		cropH = cropW / aw * ah
	}

	subjectX := subject.NX * float64(srcW)
	subjectY := subject.NY * float64(srcH)

	x := subjectX - f.SubjectAnchorX*float64(cropW)
	y := subjectY - f.SubjectAnchorY*float64(cropH)
	x = math.Max(0, math.Min(x, float64(srcW-cropW)))
	y = math.Max(0, math.Min(y, float64(srcH-cropH)))

	region := CropRegion{
		X: int(math.Round(x)),
		Y: int(math.Round(y)),
		W: cropW,
		H: cropH,
	}

	// Rounding the position must not push the rectangle outside the frame
	if region.X+region.W > srcW {
		region.X = srcW - region.W
	}
	if region.Y+region.H > srcH {
		region.Y = srcH - region.H
	}

	return region, subject.Confidence < reviewConfidence
}

func reduceRatio(a, b int) (int, int) {
	g := gcd(a, b)
	return a / g, b / g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// NeedsUpscale reports whether rendering the crop at the format's output
// resolution requires enlarging the source pixels
func NeedsUpscale(region CropRegion, f Format) bool {
	return region.W < f.Width || region.H < f.Height
}
