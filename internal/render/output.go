// Package render defines what the frame loop hands to a renderer and the
// sinks that consume it.
//
// The core never draws. It produces one Output per processed frame and
// passes it to a Sink; concrete sinks forward it to remote renderers over
// gRPC, journal it, or chart it.
package render

import (
	"errors"
	"time"

	"github.com/banshee-data/faceoverlay/internal/placement"
	"github.com/banshee-data/faceoverlay/internal/variants"
)

// Output is the placement result for one frame.
type Output struct {
	SessionID string
	Seq       uint64
	Timestamp time.Time

	// Width and Height are the detector frame dimensions.
	Width, Height float64

	Mode      variants.Mode
	VariantID string
	Sprite    string

	// VariantChanged is set on the first output after a variant switch so
	// renderers can swap textures.
	VariantChanged bool

	// Sprites holds one placement per face that resolved, flat mode only.
	Sprites []placement.Affine2D

	// Mesh is the plane placement for the first face, mesh mode only.
	Mesh *placement.Rigid3D
}

// Empty reports whether nothing should be drawn this frame.
func (o *Output) Empty() bool {
	return o == nil || (len(o.Sprites) == 0 && o.Mesh == nil)
}

// Clone returns a deep copy of o.
func (o *Output) Clone() *Output {
	cp := *o
	if o.Sprites != nil {
		cp.Sprites = append([]placement.Affine2D(nil), o.Sprites...)
	}
	if o.Mesh != nil {
		m := *o.Mesh
		cp.Mesh = &m
	}
	return &cp
}

// Sink receives placements. Draw must not retain out after returning.
type Sink interface {
	Draw(out *Output) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(out *Output) error

// Draw calls f(out).
func (f SinkFunc) Draw(out *Output) error { return f(out) }

// Fanout draws to every sink in order. A failing sink does not stop the
// rest; all errors are joined.
type Fanout []Sink

// Draw implements Sink.
func (f Fanout) Draw(out *Output) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Draw(out); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
