// Package herkulex drives Herkulex DRS servomotors daisy-chained on one
// serial bus. A Motors registry owns the bus and hands out Motor handles;
// all handles share one Channel that runs their commands one at a time.
package herkulex

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ClubRobotInsat/herkulex-go/transports"
)

// Motors owns the Channel of one bus and creates Motor handles on it.
type Motors struct {
	ch     *Channel
	proto  Protocol
	logger *slog.Logger
}

// New wraps transport in a Channel. It never touches the bus.
func New(transport Transport, opts ...Option) *Motors {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Motors{
		ch:     newChannel(transport, o),
		proto:  o.protocol,
		logger: o.logger,
	}
}

// Open opens the serial port described by cfg and wraps it in a registry.
func Open(cfg transports.SerialConfig, opts ...Option) (*Motors, error) {
	t, err := transports.OpenSerial(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open servo bus: %w", err)
	}
	return New(t, opts...), nil
}

// NewMotor returns a handle for the servo at id. The id is not checked
// against the servos actually present on the bus.
func (m *Motors) NewMotor(id byte) *Motor {
	return &Motor{id: id, ch: m.ch, proto: m.proto}
}

// Group returns a handle driving the servos at ids with one frame per call.
func (m *Motors) Group(ids ...byte) *Group {
	return newGroup(m.ch, m.proto, ids)
}

// Monitor returns a telemetry monitor over motors, logging through the
// registry logger.
func (m *Motors) Monitor(interval time.Duration, handler func(Sample), motors ...*Motor) *Monitor {
	mon := NewMonitor(interval, handler, motors...)
	mon.SetLogger(m.logger)
	return mon
}

// Channel returns the shared channel, for callers that need to batch raw
// frames inside one transaction.
func (m *Motors) Channel() *Channel {
	return m.ch
}

// Close closes the underlying transport.
func (m *Motors) Close() error {
	return m.ch.Close()
}
