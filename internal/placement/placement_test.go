package placement

import (
	"math"
	"testing"

	"github.com/banshee-data/faceoverlay/internal/anchors"
	"github.com/banshee-data/faceoverlay/internal/landmarks"
	"github.com/banshee-data/faceoverlay/internal/pose"
	"github.com/banshee-data/faceoverlay/internal/variants"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func scenarioAnchors(t *testing.T, id string) (anchors.FlatAnchors, variants.Variant) {
	t.Helper()
	v, err := variants.DefaultFlat().Lookup(id)
	require.NoError(t, err)
	d := landmarks.FaceDetection{Keypoints: []landmarks.Keypoint{
		{Name: landmarks.RightEye, X: 100, Y: 100},
		{Name: landmarks.LeftEye, X: 50, Y: 100},
		{Name: landmarks.NoseTip, X: 75, Y: 130},
		{Name: landmarks.MouthCenter, X: 75, Y: 160},
		{Name: landmarks.RightEarTragion, X: 120, Y: 110},
		{Name: landmarks.LeftEarTragion, X: 30, Y: 110},
	}}
	a, err := anchors.ResolveFlat(d, v)
	require.NoError(t, err)
	return a, v
}

func TestComposeAffine_Scenario(t *testing.T) {
	a, hige := scenarioAnchors(t, "hige")
	p := pose.DefaultParams().EstimateFlat(a, 0)
	require.InDelta(t, 0, p.Angle, 1e-12)
	require.InDelta(t, 90, p.FaceWidth, 1e-12)
	require.InDelta(t, 2.222, p.Scale, 1e-3)

	got := ComposeAffine(a, p, hige, ManualOffset{})
	// nose (75,130) + 30·(0.15, −0.5)
	want := Affine2D{X: 79.5, Y: 115, Scale: 4 * 200.0 / 90, Angle: 0}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("ComposeAffine() mismatch (-want +got):\n%s", diff)
	}
}

func TestComposeAffine_RotatesOffset(t *testing.T) {
	a := anchors.FlatAnchors{
		Base: r2.Vec{X: 10, Y: 10},
		RefA: r2.Vec{},
		RefB: r2.Vec{X: 0, Y: 20},
	}
	v := variants.Variant{ID: "probe", BaseScale: 2, OffsetRatioX: 0.5}
	p := pose.Flat{Angle: math.Pi / 2, Scale: 3}

	got := ComposeAffine(a, p, v, ManualOffset{DX: 5, DY: 1})
	// (10+5, 1) rotated a quarter turn is (−1, 15).
	want := Affine2D{X: 9, Y: 25, Scale: 6, Angle: math.Pi / 2}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("ComposeAffine() mismatch (-want +got):\n%s", diff)
	}
}

func TestComposeAffine_ManualOffsetAddsAtZeroAngle(t *testing.T) {
	a, v := scenarioAnchors(t, "rabbit")
	p := pose.DefaultParams().EstimateFlat(a, 0)
	plain := ComposeAffine(a, p, v, ManualOffset{})
	moved := ComposeAffine(a, p, v, ManualOffset{DX: 10, DY: -5})
	assert.InDelta(t, plain.X+10, moved.X, 1e-9)
	assert.InDelta(t, plain.Y-5, moved.Y, 1e-9)
}

func TestManualOffset_Nudge(t *testing.T) {
	tests := []struct {
		mode variants.Mode
		dir  Direction
		want ManualOffset
	}{
		{variants.ModeFlat, Up, ManualOffset{DY: 15}},
		{variants.ModeFlat, Down, ManualOffset{DY: -15}},
		{variants.ModeFlat, Right, ManualOffset{DX: 15}},
		{variants.ModeFlat, Left, ManualOffset{DX: -15}},
		{variants.ModeMesh, Up, ManualOffset{DY: 15}},
		{variants.ModeMesh, Down, ManualOffset{DY: -15}},
		{variants.ModeMesh, Right, ManualOffset{DX: -15}},
		{variants.ModeMesh, Left, ManualOffset{DX: 15}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode)+"/"+string(tt.dir), func(t *testing.T) {
			t.Parallel()
			var o ManualOffset
			for i := 0; i < 3; i++ {
				o.Nudge(tt.dir, tt.mode, NudgeStep)
			}
			assert.Equal(t, tt.want, o)

			o.Reset()
			assert.True(t, o.IsZero())
		})
	}
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("left")
	require.NoError(t, err)
	assert.Equal(t, Left, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestCapture(t *testing.T) {
	c, err := ParseCapture("")
	require.NoError(t, err)
	assert.Equal(t, ZOffsetFar, c.ZOffset())

	c, err = ParseCapture("mobile-front")
	require.NoError(t, err)
	assert.Equal(t, ZOffsetNear, c.ZOffset())

	_, err = ParseCapture("rear")
	assert.Error(t, err)
}

func TestComposeRigid_Frontal(t *testing.T) {
	params := pose.DefaultParams()
	space := params.Space(640, 480)
	g := landmarks.NewSynthetic(landmarks.LayoutMesh, 640, 480)
	hige, err := variants.DefaultMesh().Lookup("hige")
	require.NoError(t, err)

	a, err := anchors.ResolveMesh(g.Face(landmarks.HeadPose{}), hige)
	require.NoError(t, err)
	m := params.EstimateMesh(a, space, 0)

	got := ComposeRigid(a, space, m, hige, ManualOffset{}, ZOffsetFar)

	s := 30 * m.Scale
	// Upper lip at model (0,−18,30) maps to engine (0,−18,130).
	want := r3.Vec{X: 5, Y: -18 - 20 + s/2, Z: 30}
	assert.InDelta(t, 0, r3.Norm(r3.Sub(want, got.Position)), 1e-9)
	assert.Equal(t, r3.Vec{X: s, Y: -s, Z: 1}, got.Scale)

	// Forward stays on the view axis; only the roll about it remains.
	fwd := got.Orientation.Rotate(pose.Forward)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(fwd, pose.Forward)), 1e-9)
}

func TestComposeRigid_RollPivot(t *testing.T) {
	space := pose.DefaultParams().Space(640, 480)
	centre := landmarks.Keypoint{X: 320, Y: 240}
	a := anchors.MeshAnchors{Base: centre}
	m := pose.Mesh{Facing: pose.Identity(), Roll: math.Pi / 2, Scale: 1}
	v := variants.Variant{ID: "probe", BaseScale: 20}

	got := ComposeRigid(a, space, m, v, ManualOffset{}, ZOffsetFar)
	// half height 10: lifted by 10, then shifted right 10 and back down 10.
	want := r3.Vec{X: 10, Y: 0, Z: 0}
	assert.InDelta(t, 0, r3.Norm(r3.Sub(want, got.Position)), 1e-9)

	x := got.Orientation.Rotate(r3.Vec{X: 1})
	assert.InDelta(t, 0, r3.Norm(r3.Sub(x, r3.Vec{Y: 1})), 1e-9, "quarter roll about the view axis")
}

func TestComposeRigid_OffsetsAndNudges(t *testing.T) {
	space := pose.DefaultParams().Space(640, 480)
	a := anchors.MeshAnchors{Base: landmarks.Keypoint{X: 320, Y: 240}}
	m := pose.Mesh{Facing: pose.Identity(), Scale: 1}
	v := variants.Variant{ID: "probe", BaseScale: 10, XFix: 5, YFix: -30}

	var off ManualOffset
	off.Nudge(Right, variants.ModeMesh, NudgeStep)
	off.Nudge(Up, variants.ModeMesh, NudgeStep)

	got := ComposeRigid(a, space, m, v, off, ZOffsetNear)
	want := r3.Vec{X: -5 + 5, Y: 5 - 30 + 5, Z: 100 - 300}
	assert.InDelta(t, 0, r3.Norm(r3.Sub(want, got.Position)), 1e-9)
}
