package landmarks

import (
	"context"
	"errors"
)

var (
	// ErrDetectorUnavailable means the detector (or the capture device
	// behind it) cannot produce frames. It ends the session; there is no
	// automatic retry.
	ErrDetectorUnavailable = errors.New("landmark detector unavailable")

	// ErrStreamEnded means a finite source (a replay file) is exhausted.
	ErrStreamEnded = errors.New("landmark stream ended")
)

// Detector produces one detection result per call.
//
// Estimate blocks until the next result is ready. A Frame with no faces
// is a valid "nothing to overlay" result, not an error. Implementations
// are called from a single goroutine and need not be safe for
// concurrent use.
type Detector interface {
	Estimate(ctx context.Context) (*Frame, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context) (*Frame, error)

// Estimate calls f(ctx).
func (f DetectorFunc) Estimate(ctx context.Context) (*Frame, error) { return f(ctx) }
