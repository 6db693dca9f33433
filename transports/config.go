// Package transports provides byte transports for a servo bus: a serial port,
// a scripted mock and a loopback wired to a responder.
package transports

import (
	"errors"
	"time"
)

// ErrClosed is returned by in-memory transports after Close.
var ErrClosed = errors.New("transport closed")

// Herkulex servos ship configured for 115200 baud.
const (
	DefaultBaudRate = 115200
	DefaultTimeout  = 100 * time.Millisecond
)

// SerialConfig holds configuration for opening a serial port.
type SerialConfig struct {
	Port     string
	BaudRate int
	Timeout  time.Duration
}

func (c SerialConfig) withDefaults() SerialConfig {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// PortInfo describes a serial port found on the host.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}
