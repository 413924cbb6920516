package landmarks

import (
	"bufio"
	"context"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxLineBytes bounds one encoded frame. A full mesh with three faces is
// well under 256 KiB.
const maxLineBytes = 1 << 20

// JSONLSource replays detector output recorded as one JSON Frame per line.
type JSONLSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	seq     uint64
	line    int
}

// NewJSONLSource reads frames from r. If r is an io.Closer it is closed
// by Close.
func NewJSONLSource(r io.Reader) *JSONLSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	s := &JSONLSource{scanner: sc}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Estimate returns the next recorded frame. Blank lines are skipped.
// Frames without a sequence number are numbered in read order.
func (s *JSONLSource) Estimate(ctx context.Context) (*Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("%w: read line %d: %v", ErrDetectorUnavailable, s.line+1, err)
			}
			return nil, ErrStreamEnded
		}
		s.line++
		raw := s.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("failed to decode frame on line %d: %w", s.line, err)
		}
		s.seq++
		if f.Seq == 0 {
			f.Seq = s.seq
		}
		return &f, nil
	}
}

// Close releases the underlying reader.
func (s *JSONLSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// EncodeFrame writes f as a single JSONL record.
func EncodeFrame(w io.Writer, f *Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode frame %d: %w", f.Seq, err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
