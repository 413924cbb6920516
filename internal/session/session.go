// Package session owns everything that changes while an overlay runs:
// the active variant, the manual offset and the last good scales. A
// Session is created at startup and driven by exactly one Loop; commands
// reach it only through that loop.
package session

import (
	"fmt"

	"github.com/banshee-data/faceoverlay/internal/placement"
	"github.com/banshee-data/faceoverlay/internal/variants"
	"github.com/google/uuid"
)

// Session is the mutable overlay state. It is not safe for concurrent
// use; Loop serialises all access.
type Session struct {
	id     string
	table  *variants.Table
	active variants.Variant
	offset placement.ManualOffset
	step   float64

	// changed is set by SelectVariant and cleared once an output carrying
	// the new variant has been drawn.
	changed bool

	// prevScales holds the last good scale per face index, used when a
	// frame's anchors are degenerate.
	prevScales []float64
}

// Snapshot is the state the composer reads for one frame.
type Snapshot struct {
	Variant        variants.Variant
	Offset         placement.ManualOffset
	VariantChanged bool
}

// New starts a session on table with the given initial variant; an empty
// id selects the table default.
func New(table *variants.Table, initial string) (*Session, error) {
	s := &Session{
		id:      uuid.NewString(),
		table:   table,
		active:  table.Default(),
		step:    placement.NudgeStep,
		changed: true,
	}
	if initial != "" {
		v, err := table.Lookup(initial)
		if err != nil {
			return nil, err
		}
		s.active = v
	}
	return s, nil
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Mode returns the rendering mode of the session's table.
func (s *Session) Mode() variants.Mode { return s.table.Mode() }

// Table returns the variant table.
func (s *Session) Table() *variants.Table { return s.table }

// Active returns the active variant.
func (s *Session) Active() variants.Variant { return s.active }

// Offset returns the current manual offset.
func (s *Session) Offset() placement.ManualOffset { return s.offset }

// SetNudgeStep changes the distance one nudge moves.
func (s *Session) SetNudgeStep(step float64) error {
	if !(step > 0) {
		return fmt.Errorf("nudge step must be positive, got %v", step)
	}
	s.step = step
	return nil
}

// SelectVariant switches the active variant and clears the manual
// offset, including when id is already active. An unknown id leaves the
// session untouched.
func (s *Session) SelectVariant(id string) error {
	v, err := s.table.Lookup(id)
	if err != nil {
		return err
	}
	s.active = v
	s.offset.Reset()
	s.changed = true
	return nil
}

// Nudge moves the manual offset one step using the session mode's sign
// convention.
func (s *Session) Nudge(dir placement.Direction) {
	s.offset.Nudge(dir, s.table.Mode(), s.step)
}

// Snapshot captures the active variant and offset together.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{Variant: s.active, Offset: s.offset, VariantChanged: s.changed}
}

func (s *Session) ackVariantChange() { s.changed = false }

func (s *Session) previousScale(face int) float64 {
	if face < len(s.prevScales) {
		return s.prevScales[face]
	}
	return 0
}

func (s *Session) rememberScale(face int, scale float64) {
	for len(s.prevScales) <= face {
		s.prevScales = append(s.prevScales, 0)
	}
	s.prevScales[face] = scale
}
