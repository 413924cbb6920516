package landmarks

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Layout selects which keypoint layout a Synthetic source emits.
type Layout int

const (
	// LayoutNamed emits the six named face-detector keypoints.
	LayoutNamed Layout = iota
	// LayoutMesh emits a MeshVertexCount-long indexed list.
	LayoutMesh
)

// HeadPose is a head orientation in radians. Yaw turns about the
// vertical axis, Pitch nods about the horizontal axis and Roll tilts in
// the image plane.
type HeadPose struct {
	Yaw, Pitch, Roll float64
}

// Head model in model units: x right, y up, z toward the camera, origin
// at the centre of the head. Both ears sit at the same 3D distance from
// the nose tip.
var (
	modelNoseTip   = r3.Vec{X: 0, Y: 0, Z: 40}
	modelNoseWingR = r3.Vec{X: -14, Y: 10, Z: 25}
	modelNoseWingL = r3.Vec{X: 14, Y: 10, Z: 25}
	modelMeshEarR  = r3.Vec{X: -75, Y: 10, Z: -30}
	modelMeshEarL  = r3.Vec{X: 75, Y: 10, Z: -30}
	modelUpperLip  = r3.Vec{X: 0, Y: -18, Z: 30}
	modelLipTop    = r3.Vec{X: 0, Y: -22, Z: 30}

	modelNamed = []struct {
		name string
		p    r3.Vec
	}{
		{RightEye, r3.Vec{X: 30, Y: 25, Z: 10}},
		{LeftEye, r3.Vec{X: -30, Y: 25, Z: 10}},
		{NoseTip, modelNoseTip},
		{MouthCenter, r3.Vec{X: 0, Y: -30, Z: 25}},
		{RightEarTragion, r3.Vec{X: 75, Y: 10, Z: -30}},
		{LeftEarTragion, r3.Vec{X: -75, Y: 10, Z: -30}},
	}
)

// Synthetic generates faces from a rigid head model under orthographic
// projection. It is the source used by demos and by the turn-invariance
// checks, where the true head pose must be known.
type Synthetic struct {
	Layout Layout
	Width  float64
	Height float64

	// CenterX/CenterY place the head origin in the image. Zero values
	// mean the frame centre.
	CenterX, CenterY float64

	// Scale converts model units to pixels. Zero means 1.
	Scale float64

	// Pose returns the head pose for frame seq. Nil means frontal.
	Pose func(seq uint64) HeadPose

	// Clock stamps frames. Nil means time.Now.
	Clock func() time.Time

	seq uint64
}

// NewSynthetic returns a frontal synthetic source for a width×height feed.
func NewSynthetic(layout Layout, width, height float64) *Synthetic {
	return &Synthetic{Layout: layout, Width: width, Height: height}
}

// YawSweep oscillates yaw between ±maxYaw over period frames with a
// fixed roll.
func YawSweep(maxYaw, roll float64, period uint64) func(uint64) HeadPose {
	if period == 0 {
		period = 1
	}
	return func(seq uint64) HeadPose {
		phase := 2 * math.Pi * float64(seq%period) / float64(period)
		return HeadPose{Yaw: maxYaw * math.Sin(phase), Roll: roll}
	}
}

// Estimate returns the next synthetic frame. It never fails except on a
// cancelled context.
func (g *Synthetic) Estimate(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.seq++
	pose := HeadPose{}
	if g.Pose != nil {
		pose = g.Pose(g.seq)
	}
	now := time.Now
	if g.Clock != nil {
		now = g.Clock
	}
	return &Frame{
		Seq:       g.seq,
		Width:     g.Width,
		Height:    g.Height,
		Timestamp: now(),
		Faces:     []FaceDetection{g.Face(pose)},
	}, nil
}

// Face projects the head model at pose into detector space.
func (g *Synthetic) Face(pose HeadPose) FaceDetection {
	project := g.projector(pose)
	if g.Layout == LayoutNamed {
		kps := make([]Keypoint, 0, len(modelNamed))
		for _, m := range modelNamed {
			k := project(m.p)
			k.Name = m.name
			kps = append(kps, k)
		}
		return FaceDetection{Keypoints: kps, Score: 1}
	}

	kps := make([]Keypoint, MeshVertexCount)
	origin := project(r3.Vec{})
	for i := range kps {
		kps[i] = origin
	}
	kps[MeshNoseTip] = project(modelNoseTip)
	kps[MeshRightNoseWing] = project(modelNoseWingR)
	kps[MeshLeftNoseWing] = project(modelNoseWingL)
	kps[MeshRightEar] = project(modelMeshEarR)
	kps[MeshLeftEar] = project(modelMeshEarL)
	kps[MeshUpperLip] = project(modelUpperLip)
	kps[MeshLipTop] = project(modelLipTop)
	return FaceDetection{Keypoints: kps, Score: 1}
}

func (g *Synthetic) projector(pose HeadPose) func(r3.Vec) Keypoint {
	cx, cy := g.CenterX, g.CenterY
	if cx == 0 && cy == 0 {
		cx, cy = g.Width/2, g.Height/2
	}
	s := g.Scale
	if s == 0 {
		s = 1
	}
	pitch := r3.NewRotation(pose.Pitch, r3.Vec{X: 1})
	yaw := r3.NewRotation(pose.Yaw, r3.Vec{Y: 1})
	roll := r3.NewRotation(pose.Roll, r3.Vec{Z: 1})
	return func(p r3.Vec) Keypoint {
		p = roll.Rotate(yaw.Rotate(pitch.Rotate(p)))
		// Image space is y-down; detector depth grows away from the camera.
		return Keypoint{X: cx + s*p.X, Y: cy - s*p.Y, Z: -s * p.Z}
	}
}
