package anchors

import (
	"testing"

	"github.com/banshee-data/faceoverlay/internal/landmarks"
	"github.com/banshee-data/faceoverlay/internal/variants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func scenarioDetection() landmarks.FaceDetection {
	return landmarks.FaceDetection{Keypoints: []landmarks.Keypoint{
		{Name: landmarks.RightEye, X: 100, Y: 100},
		{Name: landmarks.LeftEye, X: 50, Y: 100},
		{Name: landmarks.NoseTip, X: 75, Y: 130},
		{Name: landmarks.MouthCenter, X: 75, Y: 160},
		{Name: landmarks.RightEarTragion, X: 120, Y: 110},
		{Name: landmarks.LeftEarTragion, X: 30, Y: 110},
	}}
}

func TestResolveFlat(t *testing.T) {
	hige, err := variants.DefaultFlat().Lookup("hige")
	require.NoError(t, err)

	a, err := ResolveFlat(scenarioDetection(), hige)
	require.NoError(t, err)

	assert.Equal(t, r2.Vec{X: 100, Y: 100}, a.RightEye)
	assert.Equal(t, r2.Vec{X: 30, Y: 110}, a.LeftEar)
	assert.Equal(t, r2.Vec{X: 75, Y: 130}, a.Base)
	assert.Equal(t, r2.Vec{X: 75, Y: 130}, a.RefA)
	assert.Equal(t, r2.Vec{X: 75, Y: 160}, a.RefB)
}

func TestResolveFlat_MissingLandmark(t *testing.T) {
	rabbit := variants.DefaultFlat().Default()

	tests := []struct {
		name    string
		det     landmarks.FaceDetection
		missing string
	}{
		{"empty detection", landmarks.FaceDetection{}, "empty detection"},
		{"no ears", dropName(scenarioDetection(), landmarks.LeftEarTragion), landmarks.LeftEarTragion},
		{"no nose", dropName(scenarioDetection(), landmarks.NoseTip), landmarks.NoseTip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveFlat(tt.det, rabbit)
			require.ErrorIs(t, err, ErrMissingLandmark)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestResolveMesh(t *testing.T) {
	g := landmarks.NewSynthetic(landmarks.LayoutMesh, 640, 480)
	face := g.Face(landmarks.HeadPose{})
	hige, err := variants.DefaultMesh().Lookup("hige")
	require.NoError(t, err)

	a, err := ResolveMesh(face, hige)
	require.NoError(t, err)
	assert.Equal(t, face.Keypoints[landmarks.MeshUpperLip], a.Base)
	assert.Equal(t, face.Keypoints[landmarks.MeshNoseTip], a.NoseTip)
	assert.Equal(t, face.Keypoints[landmarks.MeshLeftEar], a.LeftEar)
}

func TestResolveMesh_Truncated(t *testing.T) {
	face := landmarks.FaceDetection{Keypoints: make([]landmarks.Keypoint, 200)}
	_, err := ResolveMesh(face, variants.DefaultMesh().Default())
	require.ErrorIs(t, err, ErrMissingLandmark)
	assert.Contains(t, err.Error(), "vertex 279")

	_, err = ResolveMesh(landmarks.FaceDetection{}, variants.DefaultMesh().Default())
	assert.ErrorIs(t, err, ErrMissingLandmark)
}

func dropName(d landmarks.FaceDetection, name string) landmarks.FaceDetection {
	out := landmarks.FaceDetection{Score: d.Score}
	for _, k := range d.Keypoints {
		if k.Name != name {
			out.Keypoints = append(out.Keypoints, k)
		}
	}
	return out
}
