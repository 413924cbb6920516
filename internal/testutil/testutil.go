// Package testutil provides shared test fixtures: canned detections, a
// scripted detector and a recording sink.
package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/banshee-data/faceoverlay/internal/landmarks"
	"github.com/banshee-data/faceoverlay/internal/render"
)

// ScenarioDetection is the reference face: level eyes 50px apart, ears
// 90px apart, nose-to-mouth 30px.
func ScenarioDetection() landmarks.FaceDetection {
	return landmarks.FaceDetection{Score: 0.98, Keypoints: []landmarks.Keypoint{
		{Name: landmarks.RightEye, X: 100, Y: 100},
		{Name: landmarks.LeftEye, X: 50, Y: 100},
		{Name: landmarks.NoseTip, X: 75, Y: 130},
		{Name: landmarks.MouthCenter, X: 75, Y: 160},
		{Name: landmarks.RightEarTragion, X: 120, Y: 110},
		{Name: landmarks.LeftEarTragion, X: 30, Y: 110},
	}}
}

// ScenarioFrame wraps faces in a 640×480 frame.
func ScenarioFrame(seq uint64, faces ...landmarks.FaceDetection) *landmarks.Frame {
	return &landmarks.Frame{
		Seq:       seq,
		Width:     640,
		Height:    480,
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, int(seq)*int(time.Millisecond), time.UTC),
		Faces:     faces,
	}
}

// Step is one scripted detector response.
type Step struct {
	Frame *landmarks.Frame
	Err   error
	// Wait, when non-nil, holds the response until it is closed.
	Wait <-chan struct{}
	// Panic makes Estimate panic with this value.
	Panic interface{}
}

// ScriptedDetector replays steps, then reports the stream ended.
type ScriptedDetector struct {
	mu    sync.Mutex
	steps []Step
	next  int

	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

// NewScriptedDetector returns a detector replaying steps in order.
func NewScriptedDetector(steps ...Step) *ScriptedDetector {
	return &ScriptedDetector{steps: steps}
}

// Frames is a convenience for a script of plain frames.
func Frames(frames ...*landmarks.Frame) []Step {
	steps := make([]Step, len(frames))
	for i, f := range frames {
		steps[i] = Step{Frame: f}
	}
	return steps
}

// Estimate implements landmarks.Detector.
func (d *ScriptedDetector) Estimate(ctx context.Context) (*landmarks.Frame, error) {
	d.calls.Add(1)
	n := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		m := d.maxInFlight.Load()
		if n <= m || d.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	d.mu.Lock()
	if d.next >= len(d.steps) {
		d.mu.Unlock()
		return nil, landmarks.ErrStreamEnded
	}
	step := d.steps[d.next]
	d.next++
	d.mu.Unlock()

	if step.Wait != nil {
		select {
		case <-step.Wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if step.Panic != nil {
		panic(step.Panic)
	}
	return step.Frame, step.Err
}

// Calls returns how many times Estimate was called.
func (d *ScriptedDetector) Calls() int { return int(d.calls.Load()) }

// MaxInFlight returns the largest number of concurrent Estimate calls seen.
func (d *ScriptedDetector) MaxInFlight() int { return int(d.maxInFlight.Load()) }

// RecordingSink keeps a copy of every output drawn.
type RecordingSink struct {
	mu   sync.Mutex
	outs []render.Output
	// Err is returned from every Draw.
	Err error
}

// Draw implements render.Sink.
func (s *RecordingSink) Draw(out *render.Output) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outs = append(s.outs, *out.Clone())
	return s.Err
}

// Outputs returns the recorded outputs.
func (s *RecordingSink) Outputs() []render.Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]render.Output(nil), s.outs...)
}

// Len returns the number of recorded outputs.
func (s *RecordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outs)
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}
