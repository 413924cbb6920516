// Package anchors extracts, from one face detection, the keypoints the
// active overlay variant is attached to.
//
// Resolution either yields every required point or fails with
// ErrMissingLandmark. The failure is frame-local: callers skip the
// overlay for that frame and carry on.
package anchors

import (
	"errors"
	"fmt"

	"github.com/banshee-data/faceoverlay/internal/landmarks"
	"github.com/banshee-data/faceoverlay/internal/variants"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrMissingLandmark is returned when the detection is empty or lacks a
// keypoint the variant needs.
var ErrMissingLandmark = errors.New("missing landmark")

// FlatAnchors are the screen-space points a flat variant needs.
type FlatAnchors struct {
	RightEye, LeftEye r2.Vec
	RightEar, LeftEar r2.Vec

	// Base is the point the sprite is offset from; RefA→RefB is the
	// pair whose length scales that offset.
	Base, RefA, RefB r2.Vec
}

// MeshAnchors are the dense-mesh vertices a mesh variant needs, still in
// detector space.
type MeshAnchors struct {
	NoseTip       landmarks.Keypoint
	RightNoseWing landmarks.Keypoint
	LeftNoseWing  landmarks.Keypoint
	RightEar      landmarks.Keypoint
	LeftEar       landmarks.Keypoint
	Base          landmarks.Keypoint
}

// ResolveFlat looks up the named keypoints for a flat variant.
func ResolveFlat(d landmarks.FaceDetection, v variants.Variant) (FlatAnchors, error) {
	if d.Empty() {
		return FlatAnchors{}, fmt.Errorf("%w: empty detection", ErrMissingLandmark)
	}
	var (
		a   FlatAnchors
		err error
	)
	get := func(name string) r2.Vec {
		if err != nil {
			return r2.Vec{}
		}
		k, ok := d.ByName(name)
		if !ok {
			err = fmt.Errorf("%w: %s", ErrMissingLandmark, name)
			return r2.Vec{}
		}
		return r2.Vec{X: k.X, Y: k.Y}
	}
	a.RightEye = get(landmarks.RightEye)
	a.LeftEye = get(landmarks.LeftEye)
	a.RightEar = get(landmarks.RightEarTragion)
	a.LeftEar = get(landmarks.LeftEarTragion)
	a.Base = get(v.Anchor.Base)
	a.RefA = get(v.Anchor.RefA)
	a.RefB = get(v.Anchor.RefB)
	if err != nil {
		return FlatAnchors{}, err
	}
	return a, nil
}

// ResolveMesh looks up the mesh vertices for a mesh variant.
func ResolveMesh(d landmarks.FaceDetection, v variants.Variant) (MeshAnchors, error) {
	if d.Empty() {
		return MeshAnchors{}, fmt.Errorf("%w: empty detection", ErrMissingLandmark)
	}
	var (
		a   MeshAnchors
		err error
	)
	get := func(i int) landmarks.Keypoint {
		if err != nil {
			return landmarks.Keypoint{}
		}
		k, ok := d.ByIndex(i)
		if !ok {
			err = fmt.Errorf("%w: mesh vertex %d (detection has %d)", ErrMissingLandmark, i, len(d.Keypoints))
		}
		return k
	}
	a.NoseTip = get(landmarks.MeshNoseTip)
	a.RightNoseWing = get(landmarks.MeshRightNoseWing)
	a.LeftNoseWing = get(landmarks.MeshLeftNoseWing)
	a.RightEar = get(landmarks.MeshRightEar)
	a.LeftEar = get(landmarks.MeshLeftEar)
	a.Base = get(v.Anchor.BaseIndex)
	if err != nil {
		return MeshAnchors{}, err
	}
	return a, nil
}
