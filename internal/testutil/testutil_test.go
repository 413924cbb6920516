package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/banshee-data/faceoverlay/internal/landmarks"
	"github.com/banshee-data/faceoverlay/internal/render"
)

func TestScriptedDetector(t *testing.T) {
	boom := errors.New("boom")
	d := NewScriptedDetector(
		Step{Frame: ScenarioFrame(1, ScenarioDetection())},
		Step{Err: boom},
	)
	ctx := context.Background()

	f, err := d.Estimate(ctx)
	if err != nil || f.Seq != 1 || len(f.Faces) != 1 {
		t.Fatalf("step 1: frame=%+v err=%v", f, err)
	}
	if _, err := d.Estimate(ctx); !errors.Is(err, boom) {
		t.Errorf("step 2: err = %v, want boom", err)
	}
	if _, err := d.Estimate(ctx); !errors.Is(err, landmarks.ErrStreamEnded) {
		t.Errorf("after script: err = %v, want ErrStreamEnded", err)
	}
	if d.Calls() != 3 || d.MaxInFlight() != 1 {
		t.Errorf("calls=%d maxInFlight=%d", d.Calls(), d.MaxInFlight())
	}
}

func TestScriptedDetector_WaitHonoursContext(t *testing.T) {
	d := NewScriptedDetector(Step{Wait: make(chan struct{})})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Estimate(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRecordingSink(t *testing.T) {
	s := &RecordingSink{}
	out := &render.Output{Seq: 4}
	if err := s.Draw(out); err != nil {
		t.Fatal(err)
	}
	out.Seq = 5
	if got := s.Outputs(); len(got) != 1 || got[0].Seq != 4 {
		t.Errorf("Outputs() = %+v, want a copy with seq 4", got)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d", s.Len())
	}
}
