package pose

import (
	"math"

	"github.com/banshee-data/faceoverlay/internal/anchors"
	"github.com/banshee-data/faceoverlay/internal/landmarks"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Forward is the canonical facing axis of an unrotated overlay plane.
var Forward = r3.Vec{Z: 1}

// EngineSpace maps detector-space keypoints into the scene's frame:
// x re-centred, y inverted, depth rescaled.
type EngineSpace struct {
	Width, Height float64
	DepthStrength float64
	DepthRange    float64
}

// Space returns the engine space for a width×height frame.
func (p Params) Space(width, height float64) EngineSpace {
	return EngineSpace{Width: width, Height: height, DepthStrength: p.DepthStrength, DepthRange: p.DepthRange}
}

// Map converts k into engine coordinates.
func (s EngineSpace) Map(k landmarks.Keypoint) r3.Vec {
	return r3.Vec{
		X: k.X - s.Width/2,
		Y: -k.Y + s.Height/2,
		Z: (-k.Z/s.DepthRange + 1) * s.DepthStrength,
	}
}

// Mesh is the result of mesh (3D) estimation.
type Mesh struct {
	// Normal is the unit face normal in engine space.
	Normal r3.Vec
	// Facing rotates Forward onto Normal.
	Facing r3.Rotation
	// Roll is the ear-line tilt in the engine's x/y plane.
	Roll float64
	// EarDistanceSum is |nose−rightEar| + |nose−leftEar|.
	EarDistanceSum float64
	Scale          float64
	Guarded        bool
}

// EstimateMesh computes the face normal, its facing rotation, the roll
// and the turn-invariant scale.
//
// The scale uses the sum of nose-to-ear distances rather than the
// ear-to-ear width. Under yaw the projected width shrinks with the cosine
// of the turn; the two nose-to-ear legs do not.
func (p Params) EstimateMesh(a anchors.MeshAnchors, space EngineSpace, previous float64) Mesh {
	nose := space.Map(a.NoseTip)
	right := space.Map(a.RightEar)
	left := space.Map(a.LeftEar)

	normal := FaceNormal(nose, space.Map(a.RightNoseWing), space.Map(a.LeftNoseWing), p.NoseLift)

	sum := r3.Norm(r3.Sub(nose, right)) + r3.Norm(r3.Sub(nose, left))
	raw := sum / p.BaseEarDistanceSum
	scale, guarded := guard(raw, previous, p.MinScale, sum < degenerate)

	return Mesh{
		Normal:         normal,
		Facing:         FacingRotation(normal),
		Roll:           Roll(r2.Vec{X: right.X, Y: right.Y}, r2.Vec{X: left.X, Y: left.Y}),
		EarDistanceSum: sum,
		Scale:          scale,
		Guarded:        guarded,
	}
}

// FaceNormal returns unit(noseTip − P), where P is the nose-wing midpoint
// moved down by lift along the engine's y axis. A degenerate input
// returns Forward.
func FaceNormal(noseTip, rightWing, leftWing r3.Vec, lift float64) r3.Vec {
	mid := r3.Scale(0.5, r3.Add(rightWing, leftWing))
	p := r3.Sub(mid, r3.Vec{Y: lift})
	d := r3.Sub(noseTip, p)
	if r3.Norm(d) < degenerate {
		return Forward
	}
	return r3.Unit(d)
}

// FacingRotation is the shortest-arc rotation taking Forward onto n.
// n need not be unit length. Identity for n along +Z; for n along −Z
// any half-turn about an axis perpendicular to Z is valid and the one
// about Y is used.
func FacingRotation(n r3.Vec) r3.Rotation {
	if r3.Norm(n) < degenerate {
		return Identity()
	}
	to := r3.Unit(n)
	w := r3.Dot(Forward, to) + 1

	var q quat.Number
	if w < 1e-6 {
		// Opposite vectors: half-turn about Y.
		q = quat.Number{Jmag: -1}
	} else {
		c := r3.Cross(Forward, to)
		q = quat.Number{Real: w, Imag: c.X, Jmag: c.Y, Kmag: c.Z}
	}
	return r3.Rotation(quat.Scale(1/quat.Abs(q), q))
}

// RollRotation turns by angle about the local view axis.
func RollRotation(angle float64) r3.Rotation {
	return r3.NewRotation(angle, Forward)
}

// Compose returns the rotation that applies inner first, then outer.
func Compose(outer, inner r3.Rotation) r3.Rotation {
	return r3.Rotation(quat.Mul(quat.Number(outer), quat.Number(inner)))
}

// Identity is the no-op rotation.
func Identity() r3.Rotation { return r3.Rotation{Real: 1} }

// AngleBetween returns the angle in radians between a and b.
func AngleBetween(a, b r3.Vec) float64 {
	c := r3.Cos(a, b)
	return math.Acos(math.Max(-1, math.Min(1, c)))
}
