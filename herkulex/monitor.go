package herkulex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClubRobotInsat/herkulex-go/drs"
)

// Sample is one telemetry reading of a motor.
type Sample struct {
	ID          byte
	At          time.Time
	Temperature int
	Status      drs.Status
	Err         error
}

// Monitor polls the temperature and status of a set of motors on a fixed
// interval. Polling goes through the shared channel like any other command,
// so it can run in the background while other goroutines drive the motors.
type Monitor struct {
	motors   []*Motor
	interval time.Duration
	handler  func(Sample)
	logger   *slog.Logger
}

// NewMonitor creates a monitor calling handler with every sample taken.
func NewMonitor(interval time.Duration, handler func(Sample), motors ...*Motor) *Monitor {
	return &Monitor{
		motors:   motors,
		interval: interval,
		handler:  handler,
		logger:   slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger used to report failed samples.
func (m *Monitor) SetLogger(l *slog.Logger) {
	m.logger = l
}

// Poll takes one sample from every motor, in order.
func (m *Monitor) Poll(ctx context.Context) []Sample {
	samples := make([]Sample, 0, len(m.motors))
	for _, motor := range m.motors {
		s := Sample{ID: motor.ID(), At: time.Now()}

		s.Temperature, s.Err = motor.Temperature(ctx)
		if s.Err == nil {
			s.Status, s.Err = motor.Status(ctx)
		}
		if s.Err != nil {
			m.logger.Warn("telemetry sample failed", "motor", motor.ID(), "error", s.Err)
		}

		samples = append(samples, s)
		if m.handler != nil {
			m.handler(s)
		}
	}
	return samples
}

// Run polls until ctx is done and returns ctx.Err(). A non-positive
// interval fails with ErrInvalidParameter before any poll.
func (m *Monitor) Run(ctx context.Context) error {
	if m.interval <= 0 {
		return fmt.Errorf("%w: monitor interval %s", ErrInvalidParameter, m.interval)
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.Poll(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
