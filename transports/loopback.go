package transports

import (
	"slices"
	"sync"
	"time"
)

// Loopback implements Transport without hardware. Each written frame is
// handed to Responder and whatever it returns is queued for reading, so a
// simulated bus can answer exactly like real servos would.
type Loopback struct {
	Responder func(frame []byte) []byte

	mu      sync.Mutex
	pending []byte
	frames  [][]byte
	closed  bool
	timeout time.Duration
}

// NewLoopback returns a Loopback answering through responder.
func NewLoopback(responder func(frame []byte) []byte) *Loopback {
	return &Loopback{Responder: responder, timeout: DefaultTimeout}
}

// Read returns queued reply bytes. An empty queue reads as (0, nil), like a
// serial port whose read timeout expired.
func (l *Loopback) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, ErrClosed
	}
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}

func (l *Loopback) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, ErrClosed
	}
	frame := slices.Clone(p)
	l.frames = append(l.frames, frame)
	if l.Responder != nil {
		l.pending = append(l.pending, l.Responder(frame)...)
	}
	return len(p), nil
}

// Frames returns a copy of every frame written so far.
func (l *Loopback) Frames() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.frames))
	for i, f := range l.frames {
		out[i] = slices.Clone(f)
	}
	return out
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *Loopback) SetReadTimeout(timeout time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timeout = timeout
	return nil
}

// Flush discards reply bytes nobody read.
func (l *Loopback) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = nil
	return nil
}
