package render

import (
	"fmt"
	"time"

	"github.com/banshee-data/faceoverlay/internal/placement"
	"github.com/banshee-data/faceoverlay/internal/variants"
	"gonum.org/v1/gonum/spatial/r3"
	"google.golang.org/protobuf/types/known/structpb"
)

// EncodeOutput converts out into the wire message streamed to remote
// renderers. Vectors are encoded as [x, y, z] lists and the orientation
// as [w, x, y, z].
func EncodeOutput(out *Output) (*structpb.Struct, error) {
	m := map[string]interface{}{
		"session_id":      out.SessionID,
		"seq":             float64(out.Seq),
		"timestamp":       out.Timestamp.UTC().Format(time.RFC3339Nano),
		"width":           out.Width,
		"height":          out.Height,
		"mode":            string(out.Mode),
		"variant_id":      out.VariantID,
		"sprite":          out.Sprite,
		"variant_changed": out.VariantChanged,
	}
	if len(out.Sprites) > 0 {
		sprites := make([]interface{}, 0, len(out.Sprites))
		for _, s := range out.Sprites {
			sprites = append(sprites, map[string]interface{}{
				"x":     s.X,
				"y":     s.Y,
				"scale": s.Scale,
				"angle": s.Angle,
			})
		}
		m["sprites"] = sprites
	}
	if out.Mesh != nil {
		q := out.Mesh.Orientation
		m["mesh"] = map[string]interface{}{
			"position":    vecList(out.Mesh.Position),
			"orientation": []interface{}{q.Real, q.Imag, q.Jmag, q.Kmag},
			"scale":       vecList(out.Mesh.Scale),
		}
	}
	return structpb.NewStruct(m)
}

func vecList(v r3.Vec) []interface{} { return []interface{}{v.X, v.Y, v.Z} }

// DecodeOutput is the inverse of EncodeOutput.
func DecodeOutput(s *structpb.Struct) (*Output, error) {
	f := s.GetFields()
	out := &Output{
		SessionID:      f["session_id"].GetStringValue(),
		Seq:            uint64(f["seq"].GetNumberValue()),
		Width:          f["width"].GetNumberValue(),
		Height:         f["height"].GetNumberValue(),
		Mode:           variants.Mode(f["mode"].GetStringValue()),
		VariantID:      f["variant_id"].GetStringValue(),
		Sprite:         f["sprite"].GetStringValue(),
		VariantChanged: f["variant_changed"].GetBoolValue(),
	}
	if ts := f["timestamp"].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", ts, err)
		}
		out.Timestamp = t
	}
	for i, v := range f["sprites"].GetListValue().GetValues() {
		sf := v.GetStructValue().GetFields()
		if sf == nil {
			return nil, fmt.Errorf("sprite %d: not an object", i)
		}
		out.Sprites = append(out.Sprites, placement.Affine2D{
			X:     sf["x"].GetNumberValue(),
			Y:     sf["y"].GetNumberValue(),
			Scale: sf["scale"].GetNumberValue(),
			Angle: sf["angle"].GetNumberValue(),
		})
	}
	if mv := f["mesh"].GetStructValue(); mv != nil {
		mf := mv.GetFields()
		pos, err := numbers(mf["position"], 3)
		if err != nil {
			return nil, fmt.Errorf("mesh position: %w", err)
		}
		rot, err := numbers(mf["orientation"], 4)
		if err != nil {
			return nil, fmt.Errorf("mesh orientation: %w", err)
		}
		scale, err := numbers(mf["scale"], 3)
		if err != nil {
			return nil, fmt.Errorf("mesh scale: %w", err)
		}
		out.Mesh = &placement.Rigid3D{
			Position:    r3.Vec{X: pos[0], Y: pos[1], Z: pos[2]},
			Orientation: r3.Rotation{Real: rot[0], Imag: rot[1], Jmag: rot[2], Kmag: rot[3]},
			Scale:       r3.Vec{X: scale[0], Y: scale[1], Z: scale[2]},
		}
	}
	return out, nil
}

func numbers(v *structpb.Value, n int) ([]float64, error) {
	vals := v.GetListValue().GetValues()
	if len(vals) != n {
		return nil, fmt.Errorf("want %d numbers, got %d", n, len(vals))
	}
	out := make([]float64, n)
	for i, x := range vals {
		if _, ok := x.GetKind().(*structpb.Value_NumberValue); !ok {
			return nil, fmt.Errorf("element %d is not a number", i)
		}
		out[i] = x.GetNumberValue()
	}
	return out, nil
}
