package render

import (
	"github.com/banshee-data/faceoverlay/internal/placement"
	"gonum.org/v1/gonum/spatial/r2"
)

// Mirror maps an x coordinate onto a horizontally flipped feed of the
// given width.
func Mirror(x, frameWidth float64) float64 { return frameWidth - x }

// Unmirror is the inverse of Mirror.
func Unmirror(x, frameWidth float64) float64 { return frameWidth - x }

// Quad is a sprite ready to draw on the mirrored canvas: centred on
// (CenterX, CenterY), rotated by Rotation radians, then flipped.
type Quad struct {
	CenterX, CenterY float64
	Width, Height    float64
	Rotation         float64
	FlipX, FlipY     bool
}

// SpriteQuad converts a flat placement into draw parameters for a sprite
// of the given native size. The canvas shows the feed mirrored, so x is
// mirrored and the rotation reversed; the sprite is flipped on both axes
// to undo the canvas transform applied to the video.
func SpriteQuad(a placement.Affine2D, nativeW, nativeH, frameWidth float64) Quad {
	w, h := nativeW, nativeH
	if a.Scale > 0 {
		w, h = nativeW/a.Scale, nativeH/a.Scale
	}
	return Quad{
		CenterX:  Mirror(a.X, frameWidth),
		CenterY:  a.Y,
		Width:    w,
		Height:   h,
		Rotation: -a.Angle,
		FlipX:    true,
		FlipY:    true,
	}
}

// Corners returns the quad's corners on the canvas, starting top-left
// and going clockwise before flipping.
func (q Quad) Corners() [4]r2.Vec {
	c := r2.Vec{X: q.CenterX, Y: q.CenterY}
	hw, hh := q.Width/2, q.Height/2
	local := [4]r2.Vec{
		{X: -hw, Y: -hh},
		{X: hw, Y: -hh},
		{X: hw, Y: hh},
		{X: -hw, Y: hh},
	}
	var out [4]r2.Vec
	for i, p := range local {
		if q.FlipX {
			p.X = -p.X
		}
		if q.FlipY {
			p.Y = -p.Y
		}
		out[i] = r2.Add(c, r2.Rotate(p, q.Rotation, r2.Vec{}))
	}
	return out
}
