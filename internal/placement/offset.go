package placement

import (
	"fmt"

	"github.com/banshee-data/faceoverlay/internal/variants"
)

// NudgeStep is the default distance one nudge command moves the overlay.
const NudgeStep = 5.0

// Direction is a nudge direction.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// ParseDirection validates a direction name.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Up, Down, Left, Right:
		return d, nil
	}
	return "", fmt.Errorf("unknown nudge direction %q", s)
}

// ManualOffset is the user's accumulated adjustment on top of the
// computed placement. It survives across frames and is cleared on every
// variant switch.
type ManualOffset struct {
	DX, DY float64
}

// Nudge moves the offset one step in dir.
//
// The horizontal sign depends on mode. Flat sprites are drawn on a
// mirrored canvas and mesh planes in an un-mirrored scene, so "right"
// increases DX for flat and decreases it for mesh. Vertical is the same
// for both.
func (o *ManualOffset) Nudge(dir Direction, mode variants.Mode, step float64) {
	sx := 1.0
	if mode == variants.ModeMesh {
		sx = -1
	}
	switch dir {
	case Up:
		o.DY += step
	case Down:
		o.DY -= step
	case Right:
		o.DX += sx * step
	case Left:
		o.DX -= sx * step
	}
}

// Reset clears the offset.
func (o *ManualOffset) Reset() { *o = ManualOffset{} }

// IsZero reports whether no nudge is in effect.
func (o ManualOffset) IsZero() bool { return o.DX == 0 && o.DY == 0 }
