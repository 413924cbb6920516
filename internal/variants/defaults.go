package variants

import "github.com/banshee-data/faceoverlay/internal/landmarks"

// DefaultID is the variant selected when a session starts.
const DefaultID = "rabbit"

// DefaultFlat returns the built-in sprite table for the face-detector
// keypoints (six named points).
func DefaultFlat() *Table {
	nose, mouth, eye := landmarks.NoseTip, landmarks.MouthCenter, landmarks.RightEye
	t, err := NewTable(ModeFlat, DefaultID,
		Variant{ID: "hige", BaseScale: 4, Anchor: AnchorSpec{Base: nose, RefA: nose, RefB: mouth}, OffsetRatioX: 0.15, OffsetRatioY: -0.5},
		Variant{ID: "rabbit", BaseScale: 3.2, Anchor: AnchorSpec{Base: eye, RefA: eye, RefB: nose}, OffsetRatioX: -0.6, OffsetRatioY: 1},
		Variant{ID: "ribbon", BaseScale: 3.5, Anchor: AnchorSpec{Base: nose, RefA: nose, RefB: mouth}, OffsetRatioX: 0.3, OffsetRatioY: 0.05},
		Variant{ID: "cat02", BaseScale: 3.5, Anchor: AnchorSpec{Base: eye, RefA: eye, RefB: nose}, OffsetRatioX: -0.5, OffsetRatioY: 0.3},
		Variant{ID: "cat03", BaseScale: 3.5, Anchor: AnchorSpec{Base: eye, RefA: eye, RefB: nose}, OffsetRatioX: -0.5, OffsetRatioY: 0.8},
		Variant{ID: "bear01", BaseScale: 3.5, Anchor: AnchorSpec{Base: eye, RefA: eye, RefB: nose}, OffsetRatioX: -0.5, OffsetRatioY: 0.75},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultMesh returns the built-in plane table for the dense face mesh.
// BaseScale is in engine units at a turn-invariant scale of 1.
func DefaultMesh() *Table {
	t, err := NewTable(ModeMesh, DefaultID,
		Variant{ID: "hige", BaseScale: 30, Anchor: AnchorSpec{BaseIndex: landmarks.MeshUpperLip}, XFix: 5, YFix: -20},
		Variant{ID: "rabbit", BaseScale: 280, Anchor: AnchorSpec{BaseIndex: landmarks.MeshNoseTip}, XFix: 5, YFix: -30},
		Variant{ID: "ribbon", BaseScale: 70, Anchor: AnchorSpec{BaseIndex: landmarks.MeshLipTop}, XFix: 5, YFix: -5},
		Variant{ID: "cat02", BaseScale: 210, Anchor: AnchorSpec{BaseIndex: landmarks.MeshNoseTip}, XFix: 5, YFix: -20},
		Variant{ID: "cat03", BaseScale: 190, Anchor: AnchorSpec{BaseIndex: landmarks.MeshNoseTip}},
		Variant{ID: "bear01", BaseScale: 180, Anchor: AnchorSpec{BaseIndex: landmarks.MeshNoseTip}},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the built-in table for mode.
func Default(mode Mode) (*Table, error) {
	switch mode {
	case ModeFlat:
		return DefaultFlat(), nil
	case ModeMesh:
		return DefaultMesh(), nil
	}
	_, err := ParseMode(string(mode))
	return nil, err
}
