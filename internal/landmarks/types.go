// Package landmarks defines the per-frame face detection model consumed
// by the overlay pipeline and the Detector contract that produces it.
//
// Two keypoint layouts are in use. The short-range face detector
// reports six named points; the dense face mesh reports an ordered list
// whose position in the list is the vertex index. FaceDetection serves
// both: ByName for the former, ByIndex for the latter.
package landmarks

import "time"

// Named keypoints reported by the face detector.
const (
	NoseTip         = "noseTip"
	RightEye        = "rightEye"
	LeftEye         = "leftEye"
	MouthCenter     = "mouthCenter"
	RightEarTragion = "rightEarTragion"
	LeftEarTragion  = "leftEarTragion"
)

// Dense mesh vertex indices used by the mesh overlays.
const (
	MeshLipTop        = 0
	MeshNoseTip       = 1
	MeshRightNoseWing = 49
	MeshRightEar      = 127
	MeshUpperLip      = 164
	MeshLeftNoseWing  = 279
	MeshLeftEar       = 356

	// MeshVertexCount is the size of a full face mesh.
	MeshVertexCount = 468
)

// Keypoint is one detector-reported location in detector-native space
// (pixels, y down). Z is relative depth where the detector provides it;
// smaller is closer to the camera.
type Keypoint struct {
	Name string  `json:"name,omitempty"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z,omitempty"`
}

// FaceDetection is one face in one frame. It must not be retained past
// the frame that produced it.
type FaceDetection struct {
	Keypoints []Keypoint `json:"keypoints"`
	Score     float64    `json:"score,omitempty"`
}

// ByName returns the first keypoint with the given name.
func (d FaceDetection) ByName(name string) (Keypoint, bool) {
	for _, k := range d.Keypoints {
		if k.Name == name {
			return k, true
		}
	}
	return Keypoint{}, false
}

// ByIndex returns the mesh vertex at position i.
func (d FaceDetection) ByIndex(i int) (Keypoint, bool) {
	if i < 0 || i >= len(d.Keypoints) {
		return Keypoint{}, false
	}
	return d.Keypoints[i], true
}

// Empty reports whether the detection carries no keypoints.
func (d FaceDetection) Empty() bool { return len(d.Keypoints) == 0 }

// Frame is one detector result: zero or more faces plus the dimensions
// of the image they were found in.
type Frame struct {
	Seq       uint64          `json:"seq"`
	Width     float64         `json:"width"`
	Height    float64         `json:"height"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
	Faces     []FaceDetection `json:"faces"`
}
