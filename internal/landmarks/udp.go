package landmarks

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

// udpPollInterval bounds how long a read blocks before ctx is rechecked.
const udpPollInterval = 250 * time.Millisecond

// UDPSource receives frames from an external detector process, one JSON
// Frame per datagram.
type UDPSource struct {
	conn   net.PacketConn
	buf    []byte
	seq    uint64
	closed atomic.Bool

	packets   atomic.Uint64
	malformed atomic.Uint64
}

// ListenUDP binds addr (e.g. ":5005") and returns a source reading from it.
func ListenUDP(addr string) (*UDPSource, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: listen %s: %v", ErrDetectorUnavailable, addr, err)
	}
	return NewUDPSource(conn), nil
}

// NewUDPSource wraps an already bound connection.
func NewUDPSource(conn net.PacketConn) *UDPSource {
	return &UDPSource{conn: conn, buf: make([]byte, 65536)}
}

// Addr is the bound local address.
func (s *UDPSource) Addr() net.Addr { return s.conn.LocalAddr() }

// Estimate blocks until a datagram arrives or ctx is done. Datagrams
// that do not decode are counted and skipped.
func (s *UDPSource) Estimate(ctx context.Context) (*Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.conn.SetReadDeadline(time.Now().Add(udpPollInterval)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
		}
		n, _, err := s.conn.ReadFrom(s.buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if s.closed.Load() {
				return nil, ErrStreamEnded
			}
			return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
		}
		s.packets.Add(1)

		var f Frame
		if err := json.Unmarshal(s.buf[:n], &f); err != nil {
			if s.malformed.Add(1) == 1 {
				opsf("first malformed datagram from detector (%d bytes): %v", n, err)
			} else {
				tracef("dropping malformed datagram (%d bytes): %v", n, err)
			}
			continue
		}
		s.seq++
		if f.Seq == 0 {
			f.Seq = s.seq
		}
		return &f, nil
	}
}

// Stats reports datagram counters.
func (s *UDPSource) Stats() (packets, malformed uint64) {
	return s.packets.Load(), s.malformed.Load()
}

// Close unbinds the socket; a blocked Estimate returns ErrStreamEnded.
func (s *UDPSource) Close() error {
	s.closed.Store(true)
	return s.conn.Close()
}
