// Package pose derives head tilt, scale and orientation from resolved
// anchors.
//
// Flat estimation works in detector (image) space. Mesh estimation
// first maps keypoints into engine space (origin at the frame centre,
// y up, depth scaled by DepthStrength) and measures there.
package pose

import (
	"math"

	"github.com/banshee-data/faceoverlay/internal/anchors"
	"gonum.org/v1/gonum/spatial/r2"
)

// Reference constants.
const (
	BaseFaceWidth      = 200.0
	BaseEarDistanceSum = 200.0
	DepthStrength      = 100.0
	DepthRange         = 100.0
	NoseLift           = 10.0
	DefaultMinScale    = 0.01
)

// degenerate is the distance below which an anchor pair is treated as
// coincident.
const degenerate = 1e-9

// Params holds the tunable reference values. The zero value is not
// usable; start from DefaultParams.
type Params struct {
	BaseFaceWidth      float64
	BaseEarDistanceSum float64
	DepthStrength      float64
	DepthRange         float64
	NoseLift           float64
	MinScale           float64
}

// DefaultParams returns the reference values the built-in variant
// tables are tuned against.
func DefaultParams() Params {
	return Params{
		BaseFaceWidth:      BaseFaceWidth,
		BaseEarDistanceSum: BaseEarDistanceSum,
		DepthStrength:      DepthStrength,
		DepthRange:         DepthRange,
		NoseLift:           NoseLift,
		MinScale:           DefaultMinScale,
	}
}

// Roll is the in-plane tilt of the line from left to right, in (−π, π].
func Roll(right, left r2.Vec) float64 {
	a := math.Atan2(right.Y-left.Y, right.X-left.X)
	if a == -math.Pi {
		// atan2(−0, x<0) is −π; fold onto the principal value.
		a = math.Pi
	}
	return a
}

// guard keeps a scale strictly positive and finite. When s is unusable
// the previous frame's scale is reused, falling back to floor.
func guard(s, previous, floor float64, degenerateInput bool) (float64, bool) {
	if !degenerateInput && s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s) {
		return s, false
	}
	if previous > 0 && !math.IsInf(previous, 0) && !math.IsNaN(previous) {
		return previous, true
	}
	return floor, true
}

// Flat is the result of flat (2D) estimation.
type Flat struct {
	Angle     float64
	FaceWidth float64
	Scale     float64
	// Guarded is set when Scale was substituted for a degenerate width.
	Guarded bool
}

// EstimateFlat computes eye-line tilt and a scale that normalises the
// ear-to-ear width to BaseFaceWidth. previous is the last good scale,
// or zero.
func (p Params) EstimateFlat(a anchors.FlatAnchors, previous float64) Flat {
	width := r2.Norm(r2.Sub(a.RightEar, a.LeftEar))
	var raw float64
	if width >= degenerate {
		raw = p.BaseFaceWidth / width
	}
	scale, guarded := guard(raw, previous, p.MinScale, width < degenerate)
	return Flat{
		Angle:     Roll(a.RightEye, a.LeftEye),
		FaceWidth: width,
		Scale:     scale,
		Guarded:   guarded,
	}
}
