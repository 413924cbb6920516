package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/banshee-data/faceoverlay/internal/landmarks"
	"github.com/banshee-data/faceoverlay/internal/placement"
	"github.com/banshee-data/faceoverlay/internal/pose"
	"github.com/banshee-data/faceoverlay/internal/render"
	"github.com/banshee-data/faceoverlay/internal/timeutil"
)

// ErrLoopStopped is returned by Submit once Run has returned.
var ErrLoopStopped = errors.New("frame loop stopped")

// Config controls a Loop.
type Config struct {
	Params        pose.Params
	Capture       placement.Capture
	FrameInterval time.Duration

	// Clock paces the loop. Nil means the real clock.
	Clock timeutil.Clock

	// CommandBuffer is the number of commands Submit can queue without
	// blocking. Zero means 16.
	CommandBuffer int
}

// DefaultConfig returns a 60 fps loop with the default pose parameters.
func DefaultConfig() Config {
	return Config{
		Params:        pose.DefaultParams(),
		Capture:       placement.CaptureDefault,
		FrameInterval: timeutil.FrameInterval(60),
	}
}

// Applied describes a command after the loop applied it.
type Applied struct {
	Command Command
	// AfterSeq is the sequence number of the last frame processed before
	// the command took effect.
	AfterSeq uint64
	Variant  string
	Offset   placement.ManualOffset
	At       time.Time
	Err      error
}

// Loop is the frame loop. Each cycle requests one detection, applies any
// queued commands while that request is outstanding, then composes and
// draws synchronously. At most one detection is in flight at a time and
// commands never interleave with composition.
type Loop struct {
	session  *Session
	detector landmarks.Detector
	sink     render.Sink
	composer Composer
	clock    timeutil.Clock
	interval time.Duration

	cmds      chan Command
	done      chan struct{}
	onCommand func(Applied)
	lastSeq   uint64

	stats loopCounters
}

// NewLoop wires a session to a detector and a sink.
func NewLoop(s *Session, d landmarks.Detector, sink render.Sink, cfg Config) *Loop {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = timeutil.FrameInterval(60)
	}
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = 16
	}
	if cfg.Capture == "" {
		cfg.Capture = placement.CaptureDefault
	}
	return &Loop{
		session:  s,
		detector: d,
		sink:     sink,
		composer: Composer{Params: cfg.Params, ZOffset: cfg.Capture.ZOffset()},
		clock:    cfg.Clock,
		interval: cfg.FrameInterval,
		cmds:     make(chan Command, cfg.CommandBuffer),
		done:     make(chan struct{}),
	}
}

// OnCommand registers fn to be called, on the loop goroutine, after each
// command is applied. It must be set before Run.
func (l *Loop) OnCommand(fn func(Applied)) { l.onCommand = fn }

// Submit queues cmd for the loop. It blocks while the queue is full.
func (l *Loop) Submit(ctx context.Context, cmd Command) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}
	select {
	case l.cmds <- cmd:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

type estimate struct {
	frame *landmarks.Frame
	err   error
}

// Run drives the loop until ctx is cancelled, the detector's stream ends
// (both return nil) or the detector becomes unavailable (returned,
// wrapping landmarks.ErrDetectorUnavailable). Frame-local failures never
// end the loop.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	opsf("session %s started: mode=%s variant=%s", l.session.ID(), l.session.Mode(), l.session.Active().ID)
	for {
		frame, err := l.await(ctx)
		switch {
		case ctx.Err() != nil:
			opsf("session %s stopped", l.session.ID())
			return nil
		case errors.Is(err, landmarks.ErrStreamEnded):
			opsf("session %s: detection stream ended after %d frames", l.session.ID(), l.stats.frames.Load())
			return nil
		case errors.Is(err, landmarks.ErrDetectorUnavailable):
			return fmt.Errorf("session %s: %w", l.session.ID(), err)
		case err != nil:
			l.stats.detectorErrors.Add(1)
			diagf("frame skipped: %v", err)
		case frame != nil:
			l.process(frame)
		}

		select {
		case <-ticker.C():
		case <-ctx.Done():
			opsf("session %s stopped", l.session.ID())
			return nil
		}
	}
}

// await issues one detection request and applies queued commands until
// it resolves.
func (l *Loop) await(ctx context.Context) (*landmarks.Frame, error) {
	result := make(chan estimate, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- estimate{err: fmt.Errorf("detector panic: %v", r)}
			}
		}()
		f, err := l.detector.Estimate(ctx)
		result <- estimate{frame: f, err: err}
	}()

	for {
		select {
		case r := <-result:
			return r.frame, r.err
		case cmd := <-l.cmds:
			l.apply(cmd)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *Loop) apply(cmd Command) {
	err := cmd.apply(l.session)
	l.stats.commands.Add(1)
	if err != nil {
		l.stats.rejectedCommands.Add(1)
		opsf("command %s %s rejected: %v", cmd.Kind(), cmd.Arg(), err)
	} else {
		tracef("command %s %s applied: variant=%s offset=%+v", cmd.Kind(), cmd.Arg(), l.session.Active().ID, l.session.Offset())
	}
	if l.onCommand != nil {
		l.onCommand(Applied{
			Command:  cmd,
			AfterSeq: l.lastSeq,
			Variant:  l.session.Active().ID,
			Offset:   l.session.Offset(),
			At:       l.clock.Now(),
			Err:      err,
		})
	}
}

// process runs the synchronous phase for one frame.
func (l *Loop) process(f *landmarks.Frame) {
	defer func() {
		if r := recover(); r != nil {
			l.stats.panics.Add(1)
			opsf("frame %d skipped after panic: %v", f.Seq, r)
		}
	}()

	l.stats.frames.Add(1)
	l.lastSeq = f.Seq
	if f.Timestamp.IsZero() {
		f.Timestamp = l.clock.Now()
	}

	snap := l.session.Snapshot()
	res := l.composer.compose(l.session, f, snap)
	if res.guarded > 0 {
		l.stats.guarded.Add(uint64(res.guarded))
	}
	if res.missing > 0 {
		l.stats.missingLandmarks.Add(uint64(res.missing))
		tracef("frame %d: %d face(s) skipped: %v", f.Seq, res.missing, res.lastErr)
	}
	if res.out.Empty() {
		l.stats.skipped.Add(1)
		return
	}

	if err := l.sink.Draw(res.out); err != nil {
		l.stats.sinkErrors.Add(1)
		diagf("frame %d: draw failed: %v", f.Seq, err)
	}
	l.stats.drawn.Add(1)
	if snap.VariantChanged {
		l.session.ackVariantChange()
	}
}

type loopCounters struct {
	frames           atomic.Uint64
	drawn            atomic.Uint64
	skipped          atomic.Uint64
	missingLandmarks atomic.Uint64
	guarded          atomic.Uint64
	detectorErrors   atomic.Uint64
	sinkErrors       atomic.Uint64
	commands         atomic.Uint64
	rejectedCommands atomic.Uint64
	panics           atomic.Uint64
}

// Stats is a snapshot of the loop counters.
type Stats struct {
	Frames           uint64 `json:"frames"`
	Drawn            uint64 `json:"drawn"`
	Skipped          uint64 `json:"skipped"`
	MissingLandmarks uint64 `json:"missing_landmarks"`
	Guarded          uint64 `json:"guarded"`
	DetectorErrors   uint64 `json:"detector_errors"`
	SinkErrors       uint64 `json:"sink_errors"`
	Commands         uint64 `json:"commands"`
	RejectedCommands uint64 `json:"rejected_commands"`
	Panics           uint64 `json:"panics"`
}

// Stats returns the current counters. Safe to call from any goroutine.
func (l *Loop) Stats() Stats {
	return Stats{
		Frames:           l.stats.frames.Load(),
		Drawn:            l.stats.drawn.Load(),
		Skipped:          l.stats.skipped.Load(),
		MissingLandmarks: l.stats.missingLandmarks.Load(),
		Guarded:          l.stats.guarded.Load(),
		DetectorErrors:   l.stats.detectorErrors.Load(),
		SinkErrors:       l.stats.sinkErrors.Load(),
		Commands:         l.stats.commands.Load(),
		RejectedCommands: l.stats.rejectedCommands.Load(),
		Panics:           l.stats.panics.Load(),
	}
}
