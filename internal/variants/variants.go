// Package variants holds the overlay variant table: one static
// configuration record per selectable sticker, keyed by id.
//
// Frame processing never branches on a variant id. Every variant of a
// mode is consumed by the same compute routine; the record carries all
// of the per-sticker differences.
package variants

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

// Mode selects the rendering path a table belongs to.
type Mode string

const (
	// ModeFlat places screen-space sprites (Affine2D).
	ModeFlat Mode = "flat"
	// ModeMesh places a textured plane in a 3D scene (Rigid3D).
	ModeMesh Mode = "mesh"
)

// ParseMode converts a flag or config value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFlat, ModeMesh:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeFlat, ModeMesh)
}

var (
	// ErrUnknownVariant is returned when an id is not in the table.
	ErrUnknownVariant = errors.New("unknown overlay variant")
	// ErrInvalidVariant wraps validation failures.
	ErrInvalidVariant = errors.New("invalid overlay variant")
)

// AnchorSpec names the landmarks a variant is attached to.
//
// Flat variants use named keypoints: Base is the point the sprite is
// offset from and RefA/RefB form the pair whose length scales that
// offset. Mesh variants use BaseIndex, a dense-mesh vertex.
type AnchorSpec struct {
	Base      string `json:"base,omitempty"`
	RefA      string `json:"ref_a,omitempty"`
	RefB      string `json:"ref_b,omitempty"`
	BaseIndex int    `json:"base_index,omitempty" validate:"gte=0"`
}

// Variant is the static configuration of one overlay.
type Variant struct {
	ID        string     `json:"id" validate:"required"`
	Sprite    string     `json:"sprite,omitempty"`
	BaseScale float64    `json:"base_scale" validate:"gt=0"`
	Anchor    AnchorSpec `json:"anchor"`

	// Flat offset, as a fraction of the reference pair's length.
	OffsetRatioX float64 `json:"offset_ratio_x,omitempty"`
	OffsetRatioY float64 `json:"offset_ratio_y,omitempty"`

	// Mesh offset, in engine units.
	XFix float64 `json:"x_fix,omitempty"`
	YFix float64 `json:"y_fix,omitempty"`
}

// SpriteHandle returns the asset name the renderer should draw.
func (v Variant) SpriteHandle() string {
	if v.Sprite != "" {
		return v.Sprite
	}
	return v.ID
}

var validate = validator.New()

func (v Variant) validateFor(mode Mode) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidVariant, v.ID, err)
	}
	if mode == ModeFlat && (v.Anchor.Base == "" || v.Anchor.RefA == "" || v.Anchor.RefB == "") {
		return fmt.Errorf("%w %q: flat variants need base, ref_a and ref_b anchors", ErrInvalidVariant, v.ID)
	}
	return nil
}

// Table maps variant ids to configuration for a single mode.
type Table struct {
	mode     Mode
	fallback string
	byID     map[string]Variant
}

// NewTable validates vs and builds a table. def is the variant a new
// session starts with; it must be one of vs.
func NewTable(mode Mode, def string, vs ...Variant) (*Table, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if len(vs) == 0 {
		return nil, fmt.Errorf("%w: table is empty", ErrInvalidVariant)
	}
	t := &Table{mode: mode, fallback: def, byID: make(map[string]Variant, len(vs))}
	for _, v := range vs {
		if err := v.validateFor(mode); err != nil {
			return nil, err
		}
		if _, dup := t.byID[v.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidVariant, v.ID)
		}
		t.byID[v.ID] = v
	}
	if _, ok := t.byID[def]; !ok {
		return nil, fmt.Errorf("default %q: %w", def, ErrUnknownVariant)
	}
	return t, nil
}

// Mode reports which rendering path the table drives.
func (t *Table) Mode() Mode { return t.mode }

// Default returns the variant a session starts with.
func (t *Table) Default() Variant { return t.byID[t.fallback] }

// Lookup returns the variant for id.
func (t *Table) Lookup(id string) (Variant, error) {
	v, ok := t.byID[id]
	if !ok {
		return Variant{}, fmt.Errorf("%q: %w", id, ErrUnknownVariant)
	}
	return v, nil
}

// IDs returns the known ids in sorted order.
func (t *Table) IDs() []string {
	ids := make([]string, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
