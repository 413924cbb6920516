package pose

import (
	"math"
	"testing"

	"github.com/banshee-data/faceoverlay/internal/anchors"
	"github.com/banshee-data/faceoverlay/internal/landmarks"
	"github.com/banshee-data/faceoverlay/internal/variants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRoll(t *testing.T) {
	tests := []struct {
		name        string
		right, left r2.Vec
		want        float64
	}{
		{"level", r2.Vec{X: 100, Y: 100}, r2.Vec{X: 50, Y: 100}, 0},
		{"right eye lower", r2.Vec{X: 100, Y: 150}, r2.Vec{X: 50, Y: 100}, math.Pi / 4},
		{"upside down", r2.Vec{X: 50, Y: 100}, r2.Vec{X: 100, Y: 100}, math.Pi},
		{"negative zero folds", r2.Vec{X: 50, Y: math.Copysign(0, -1)}, r2.Vec{X: 100}, math.Pi},
		{"vertical", r2.Vec{X: 0, Y: -10}, r2.Vec{}, -math.Pi / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Roll(tt.right, tt.left)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.Greater(t, got, -math.Pi)
			assert.LessOrEqual(t, got, math.Pi)
		})
	}
}

func TestEstimateFlat(t *testing.T) {
	p := DefaultParams()
	a := anchors.FlatAnchors{
		RightEye: r2.Vec{X: 100, Y: 100},
		LeftEye:  r2.Vec{X: 50, Y: 100},
		RightEar: r2.Vec{X: 120, Y: 110},
		LeftEar:  r2.Vec{X: 30, Y: 110},
	}
	got := p.EstimateFlat(a, 0)
	assert.InDelta(t, 0, got.Angle, 1e-12)
	assert.InDelta(t, 90, got.FaceWidth, 1e-12)
	assert.InDelta(t, 200.0/90, got.Scale, 1e-12)
	assert.False(t, got.Guarded)
}

func TestEstimateFlat_ScaleNormalisesWidth(t *testing.T) {
	p := DefaultParams()
	for _, w := range []float64{0.5, 12, 90, 333.3, 4000} {
		a := anchors.FlatAnchors{RightEar: r2.Vec{X: w, Y: 3}, LeftEar: r2.Vec{Y: 3}}
		got := p.EstimateFlat(a, 0)
		assert.InDelta(t, BaseFaceWidth, got.Scale*got.FaceWidth, 1e-9, "width %v", w)
	}
}

func TestEstimateFlat_DegenerateWidth(t *testing.T) {
	p := DefaultParams()
	coincident := anchors.FlatAnchors{RightEar: r2.Vec{X: 7, Y: 7}, LeftEar: r2.Vec{X: 7, Y: 7}}

	got := p.EstimateFlat(coincident, 1.5)
	assert.True(t, got.Guarded)
	assert.Equal(t, 1.5, got.Scale, "previous scale reused")

	got = p.EstimateFlat(coincident, 0)
	assert.True(t, got.Guarded)
	assert.Equal(t, DefaultMinScale, got.Scale)

	got = p.EstimateFlat(coincident, math.Inf(1))
	assert.Equal(t, DefaultMinScale, got.Scale)
	assert.False(t, math.IsInf(got.Scale, 0))
}

func TestEngineSpace_Map(t *testing.T) {
	s := DefaultParams().Space(640, 480)
	got := s.Map(landmarks.Keypoint{X: 320, Y: 240, Z: 0})
	assert.Equal(t, r3.Vec{X: 0, Y: 0, Z: 100}, got)

	got = s.Map(landmarks.Keypoint{X: 0, Y: 0, Z: 100})
	assert.Equal(t, r3.Vec{X: -320, Y: 240, Z: 0}, got)
}

func TestFacingRotation(t *testing.T) {
	t.Run("identity for forward", func(t *testing.T) {
		q := FacingRotation(r3.Vec{Z: 5})
		assert.InDelta(t, 1, q.Real, 1e-12)
		assert.InDelta(t, 0, q.Imag, 1e-12)
		assert.InDelta(t, 0, q.Jmag, 1e-12)
		assert.InDelta(t, 0, q.Kmag, 1e-12)
	})
	t.Run("half turn for backward", func(t *testing.T) {
		q := FacingRotation(r3.Vec{Z: -1})
		got := q.Rotate(Forward)
		assert.InDelta(t, -1, got.Z, 1e-12)
		assert.InDelta(t, 0, q.Real, 1e-12)
	})
	t.Run("zero normal", func(t *testing.T) {
		assert.Equal(t, Identity(), FacingRotation(r3.Vec{}))
	})
	t.Run("maps forward onto normal", func(t *testing.T) {
		for _, n := range []r3.Vec{
			{X: 1},
			{X: 0.3, Y: -0.2, Z: 0.9},
			{X: -2, Y: 1, Z: -1},
			{Y: 1, Z: -0.001},
		} {
			q := FacingRotation(n)
			got := q.Rotate(Forward)
			want := r3.Unit(n)
			assert.InDelta(t, 0, r3.Norm(r3.Sub(got, want)), 1e-9, "normal %v", n)
		}
	})
}

func TestCompose_AppliesInnerFirst(t *testing.T) {
	facing := FacingRotation(r3.Vec{X: 1})
	roll := RollRotation(math.Pi / 2)
	q := Compose(facing, roll)

	// Forward is unaffected by roll about itself.
	assert.InDelta(t, 0, r3.Norm(r3.Sub(q.Rotate(Forward), r3.Vec{X: 1})), 1e-12)

	x := r3.Vec{X: 1}
	want := facing.Rotate(roll.Rotate(x))
	assert.InDelta(t, 0, r3.Norm(r3.Sub(q.Rotate(x), want)), 1e-12)
}

func meshAnchorsAt(t *testing.T, g *landmarks.Synthetic, hp landmarks.HeadPose) anchors.MeshAnchors {
	t.Helper()
	a, err := anchors.ResolveMesh(g.Face(hp), variants.DefaultMesh().Default())
	require.NoError(t, err)
	return a
}

func TestEstimateMesh_Frontal(t *testing.T) {
	p := DefaultParams()
	g := landmarks.NewSynthetic(landmarks.LayoutMesh, 640, 480)
	m := p.EstimateMesh(meshAnchorsAt(t, g, landmarks.HeadPose{}), p.Space(640, 480), 0)

	assert.InDelta(t, 0, AngleBetween(m.Normal, Forward), 1e-9)
	assert.InDelta(t, 1, m.Facing.Real, 1e-9)
	// The right-ear vertex sits on the image left, so the ear line points
	// toward −x.
	assert.InDelta(t, math.Pi, math.Abs(m.Roll), 1e-9)
	assert.InDelta(t, 2*math.Sqrt(75*75+10*10+70*70)/BaseEarDistanceSum, m.Scale, 1e-9)
	assert.False(t, m.Guarded)
}

func TestEstimateMesh_NormalFollowsYaw(t *testing.T) {
	p := DefaultParams()
	g := landmarks.NewSynthetic(landmarks.LayoutMesh, 640, 480)
	for _, yaw := range []float64{-0.9, -0.4, 0.2, 0.7} {
		m := p.EstimateMesh(meshAnchorsAt(t, g, landmarks.HeadPose{Yaw: yaw}), p.Space(640, 480), 0)
		assert.InDelta(t, math.Abs(yaw), AngleBetween(m.Normal, Forward), 1e-9, "yaw %v", yaw)
		assert.InDelta(t, 0, r3.Norm(r3.Sub(m.Facing.Rotate(Forward), m.Normal)), 1e-9)
	}
}

func TestEstimateMesh_ScaleIsTurnInvariant(t *testing.T) {
	p := DefaultParams()
	g := landmarks.NewSynthetic(landmarks.LayoutMesh, 640, 480)
	space := p.Space(640, 480)

	frontal := p.EstimateMesh(meshAnchorsAt(t, g, landmarks.HeadPose{}), space, 0)
	frontalWidth := earWidth(meshAnchorsAt(t, g, landmarks.HeadPose{}))

	for _, yaw := range []float64{0.2, 0.5, 0.8} {
		a := meshAnchorsAt(t, g, landmarks.HeadPose{Yaw: yaw})
		m := p.EstimateMesh(a, space, 0)
		assert.InDelta(t, frontal.Scale, m.Scale, 1e-9, "distance-sum scale at yaw %v", yaw)

		// The ear-to-ear width falls off with the turn.
		shrink := earWidth(a) / frontalWidth
		assert.InDelta(t, math.Cos(yaw), shrink, 1e-9)
		assert.Less(t, shrink, 1.0)
	}
}

func TestEstimateMesh_RollInImagePlane(t *testing.T) {
	p := DefaultParams()
	g := landmarks.NewSynthetic(landmarks.LayoutMesh, 640, 480)
	space := p.Space(640, 480)
	level := p.EstimateMesh(meshAnchorsAt(t, g, landmarks.HeadPose{}), space, 0)
	tilted := p.EstimateMesh(meshAnchorsAt(t, g, landmarks.HeadPose{Roll: 0.3}), space, 0)

	d := math.Remainder(tilted.Roll-level.Roll, 2*math.Pi)
	assert.InDelta(t, 0.3, d, 1e-9)
	assert.InDelta(t, level.Scale, tilted.Scale, 1e-9)
}

func TestEstimateMesh_Degenerate(t *testing.T) {
	p := DefaultParams()
	k := landmarks.Keypoint{X: 10, Y: 10}
	a := anchors.MeshAnchors{NoseTip: k, RightNoseWing: k, LeftNoseWing: k, RightEar: k, LeftEar: k, Base: k}
	m := p.EstimateMesh(a, p.Space(640, 480), 0.8)

	assert.True(t, m.Guarded)
	assert.Equal(t, 0.8, m.Scale)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(m.Normal, r3.Vec{Y: 1})), 1e-12, "nose above the lifted wing midpoint")
}

func earWidth(a anchors.MeshAnchors) float64 {
	return math.Hypot(a.RightEar.X-a.LeftEar.X, a.RightEar.Y-a.LeftEar.Y)
}
