package transports

import (
	"io"
	"slices"
	"sync"
	"time"
)

// MockTransport implements Transport for testing. Every Write is recorded as
// one frame; reads are served from ReadData or ReadFunc.
type MockTransport struct {
	ReadData    []byte
	ReadErr     error
	WriteErr    error
	Closed      bool
	ReadTimeout time.Duration
	Flushes     int

	// ShortWrite makes Write report one byte less than given.
	ShortWrite bool

	// ReadFunc allows custom read behavior for complex tests
	ReadFunc func(p []byte) (int, error)

	mu     sync.Mutex
	frames [][]byte
}

func (m *MockTransport) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ReadFunc != nil {
		return m.ReadFunc(p)
	}
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	n := copy(p, m.ReadData)
	m.ReadData = m.ReadData[n:]
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (m *MockTransport) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	m.frames = append(m.frames, slices.Clone(p))
	if m.ShortWrite && len(p) > 0 {
		return len(p) - 1, nil
	}
	return len(p), nil
}

// Queue appends bytes to be returned by later reads.
func (m *MockTransport) Queue(data ...[]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range data {
		m.ReadData = append(m.ReadData, d...)
	}
}

// Frames returns a copy of every frame written so far.
func (m *MockTransport) Frames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.frames))
	for i, f := range m.frames {
		out[i] = slices.Clone(f)
	}
	return out
}

// WriteData returns every byte written so far.
func (m *MockTransport) WriteData() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Concat(m.frames...)
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

func (m *MockTransport) SetReadTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadTimeout = timeout
	return nil
}

func (m *MockTransport) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Flushes++
	// Don't clear ReadData - tests need to preserve mock response data
	return nil
}
