package session

import (
	"testing"

	"github.com/banshee-data/faceoverlay/internal/placement"
	"github.com/banshee-data/faceoverlay/internal/variants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s, err := New(variants.DefaultFlat(), "")
	require.NoError(t, err)
	assert.Equal(t, variants.DefaultID, s.Active().ID)
	assert.NotEmpty(t, s.ID())
	assert.True(t, s.Snapshot().VariantChanged, "first output announces the variant")

	s, err = New(variants.DefaultMesh(), "cat03")
	require.NoError(t, err)
	assert.Equal(t, "cat03", s.Active().ID)
	assert.Equal(t, variants.ModeMesh, s.Mode())

	_, err = New(variants.DefaultFlat(), "unicorn")
	assert.ErrorIs(t, err, variants.ErrUnknownVariant)
}

func TestSession_SelectVariantResetsOffset(t *testing.T) {
	s, err := New(variants.DefaultFlat(), "hige")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		s.Nudge(placement.Up)
	}
	s.Nudge(placement.Right)
	assert.Equal(t, placement.ManualOffset{DX: 5, DY: 20}, s.Offset())

	s.ackVariantChange()
	require.NoError(t, s.SelectVariant("hige"), "re-selecting the active id still resets")
	assert.True(t, s.Offset().IsZero())
	assert.True(t, s.Snapshot().VariantChanged)

	s.Nudge(placement.Down)
	require.ErrorIs(t, s.SelectVariant("nope"), variants.ErrUnknownVariant)
	assert.Equal(t, "hige", s.Active().ID)
	assert.Equal(t, placement.ManualOffset{DY: -5}, s.Offset(), "rejected switch leaves offset alone")
}

func TestSession_NudgeFollowsModeSigns(t *testing.T) {
	flat, err := New(variants.DefaultFlat(), "")
	require.NoError(t, err)
	mesh, err := New(variants.DefaultMesh(), "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		flat.Nudge(placement.Right)
		mesh.Nudge(placement.Right)
	}
	assert.Equal(t, 15.0, flat.Offset().DX)
	assert.Equal(t, -15.0, mesh.Offset().DX)
}

func TestSession_SetNudgeStep(t *testing.T) {
	s, err := New(variants.DefaultFlat(), "")
	require.NoError(t, err)
	require.NoError(t, s.SetNudgeStep(2))
	s.Nudge(placement.Left)
	assert.Equal(t, -2.0, s.Offset().DX)

	assert.Error(t, s.SetNudgeStep(0))
	assert.Error(t, s.SetNudgeStep(-1))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantErr bool
	}{
		{line: "select hige", want: SelectVariant{ID: "hige"}},
		{line: "  variant   cat02 ", want: SelectVariant{ID: "cat02"}},
		{line: "nudge up", want: Nudge{Direction: placement.Up}},
		{line: "MOVE Left", want: Nudge{Direction: placement.Left}},
		{line: "down", want: Nudge{Direction: placement.Down}},
		{line: "", wantErr: true},
		{line: "nudge", wantErr: true},
		{line: "nudge sideways", wantErr: true},
		{line: "select a b", wantErr: true},
		{line: "zoom in", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommand_KindArg(t *testing.T) {
	assert.Equal(t, "select", SelectVariant{ID: "x"}.Kind())
	assert.Equal(t, "x", SelectVariant{ID: "x"}.Arg())
	assert.Equal(t, "nudge", Nudge{Direction: placement.Up}.Kind())
	assert.Equal(t, "up", Nudge{Direction: placement.Up}.Arg())

	s, err := New(variants.DefaultFlat(), "")
	require.NoError(t, err)
	assert.Error(t, Nudge{Direction: "diagonal"}.apply(s))
	assert.True(t, s.Offset().IsZero())
}
