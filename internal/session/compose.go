package session

import (
	"github.com/banshee-data/faceoverlay/internal/anchors"
	"github.com/banshee-data/faceoverlay/internal/landmarks"
	"github.com/banshee-data/faceoverlay/internal/placement"
	"github.com/banshee-data/faceoverlay/internal/pose"
	"github.com/banshee-data/faceoverlay/internal/render"
	"github.com/banshee-data/faceoverlay/internal/variants"
)

// Composer runs anchors → pose → placement for one frame. It holds only
// configuration; all state comes in through the Session.
type Composer struct {
	Params  pose.Params
	ZOffset float64
}

// frameResult summarises one composed frame.
type frameResult struct {
	out      *render.Output
	resolved int
	missing  int
	guarded  int
	lastErr  error
}

// compose builds the output for f from snap. Faces whose anchors cannot
// be resolved are skipped; the returned output has no placements when
// none resolved.
func (c Composer) compose(s *Session, f *landmarks.Frame, snap Snapshot) frameResult {
	out := &render.Output{
		SessionID:      s.ID(),
		Seq:            f.Seq,
		Timestamp:      f.Timestamp,
		Width:          f.Width,
		Height:         f.Height,
		Mode:           s.Mode(),
		VariantID:      snap.Variant.ID,
		Sprite:         snap.Variant.SpriteHandle(),
		VariantChanged: snap.VariantChanged,
	}
	res := frameResult{out: out}

	switch s.Mode() {
	case variants.ModeFlat:
		for i, face := range f.Faces {
			a, err := anchors.ResolveFlat(face, snap.Variant)
			if err != nil {
				res.missing++
				res.lastErr = err
				continue
			}
			p := c.Params.EstimateFlat(a, s.previousScale(i))
			if p.Guarded {
				res.guarded++
			} else {
				s.rememberScale(i, p.Scale)
			}
			out.Sprites = append(out.Sprites, placement.ComposeAffine(a, p, snap.Variant, snap.Offset))
			res.resolved++
		}

	case variants.ModeMesh:
		if len(f.Faces) == 0 {
			break
		}
		a, err := anchors.ResolveMesh(f.Faces[0], snap.Variant)
		if err != nil {
			res.missing++
			res.lastErr = err
			break
		}
		space := c.Params.Space(f.Width, f.Height)
		m := c.Params.EstimateMesh(a, space, s.previousScale(0))
		if m.Guarded {
			res.guarded++
		} else {
			s.rememberScale(0, m.Scale)
		}
		rigid := placement.ComposeRigid(a, space, m, snap.Variant, snap.Offset, c.ZOffset)
		out.Mesh = &rigid
		res.resolved++
	}
	return res
}
