// Package placement turns anchors and an estimated pose into the final
// transform handed to the renderer: Affine2D for flat sprites, Rigid3D for
// mesh planes. It also owns the manual nudge offset and its sign rules.
package placement

import (
	"fmt"
	"math"

	"github.com/banshee-data/faceoverlay/internal/anchors"
	"github.com/banshee-data/faceoverlay/internal/pose"
	"github.com/banshee-data/faceoverlay/internal/variants"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Affine2D places a flat sprite in detector (un-mirrored) space.
type Affine2D struct {
	X, Y  float64
	Scale float64
	Angle float64
}

// Position returns the placement point.
func (a Affine2D) Position() r2.Vec { return r2.Vec{X: a.X, Y: a.Y} }

// Rigid3D places a textured plane in engine space.
type Rigid3D struct {
	Position    r3.Vec
	Orientation r3.Rotation
	Scale       r3.Vec
}

// ComposeAffine places a flat variant. The variant offset is measured in
// lengths of the RefA→RefB pair, the manual offset is added in pixels,
// and the sum is rotated by the head tilt before being added to Base.
func ComposeAffine(a anchors.FlatAnchors, p pose.Flat, v variants.Variant, off ManualOffset) Affine2D {
	dist := r2.Norm(r2.Sub(a.RefB, a.RefA))
	o := r2.Vec{
		X: dist*v.OffsetRatioX + off.DX,
		Y: dist*v.OffsetRatioY + off.DY,
	}
	pos := r2.Add(a.Base, r2.Rotate(o, p.Angle, r2.Vec{}))
	return Affine2D{
		X:     pos.X,
		Y:     pos.Y,
		Scale: v.BaseScale * p.Scale,
		Angle: p.Angle,
	}
}

// Capture describes the camera feeding the detector; it selects how far
// the mesh plane is pulled toward the camera.
type Capture string

const (
	CaptureDefault     Capture = "default"
	CaptureMobileFront Capture = "mobile-front"
)

// Z pull toward the camera, in engine units.
const (
	ZOffsetNear = 300.0
	ZOffsetFar  = 100.0
)

// ParseCapture validates a capture mode name. Empty means CaptureDefault.
func ParseCapture(s string) (Capture, error) {
	switch c := Capture(s); c {
	case "":
		return CaptureDefault, nil
	case CaptureDefault, CaptureMobileFront:
		return c, nil
	}
	return "", fmt.Errorf("unknown capture mode %q", s)
}

// ZOffset returns the z pull for c.
func (c Capture) ZOffset() float64 {
	if c == CaptureMobileFront {
		return ZOffsetNear
	}
	return ZOffsetFar
}

// ComposeRigid places a mesh variant.
//
// The plane's origin sits at its bottom edge, so after scaling the
// position is lifted by half the scaled height and then corrected for
// the roll so the plane turns about its centre.
func ComposeRigid(a anchors.MeshAnchors, space pose.EngineSpace, m pose.Mesh, v variants.Variant, off ManualOffset, zOffset float64) Rigid3D {
	base := space.Map(a.Base)
	pos := r3.Add(base, r3.Vec{
		X: off.DX + v.XFix,
		Y: off.DY + v.YFix,
		Z: -zOffset,
	})

	s := v.BaseScale * m.Scale
	half := s / 2
	pos.Y += half
	sin := math.Sin(m.Roll)
	shift := half * sin
	pos.X += shift
	pos.Y -= shift * sin

	return Rigid3D{
		Position:    pos,
		Orientation: pose.Compose(m.Facing, pose.RollRotation(m.Roll)),
		Scale:       r3.Vec{X: s, Y: -s, Z: 1},
	}
}
