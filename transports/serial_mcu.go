//go:build baremetal

package transports

import (
	"errors"
	"fmt"
	"machine"
	"time"
)

// MCUTransport implements Transport on a microcontroller UART.
type MCUTransport struct {
	uart    *machine.UART
	timeout time.Duration
}

// OpenSerial configures UART "0" or "1" with the given configuration.
func OpenSerial(cfg SerialConfig) (*MCUTransport, error) {
	if cfg.Port == "" {
		return nil, errors.New("serial port path is required")
	}
	cfg = cfg.withDefaults()

	var uart *machine.UART
	switch cfg.Port {
	case "0":
		uart = machine.UART0
	case "1":
		uart = machine.UART1
	default:
		return nil, fmt.Errorf("unknown UART %s", cfg.Port)
	}

	if err := uart.Configure(machine.UARTConfig{BaudRate: uint32(cfg.BaudRate)}); err != nil {
		return nil, fmt.Errorf("failed to configure UART %s: %w", cfg.Port, err)
	}

	return &MCUTransport{uart: uart, timeout: cfg.Timeout}, nil
}

// Read waits up to the read timeout for the first byte, then returns what
// the UART buffered.
func (t *MCUTransport) Read(p []byte) (int, error) {
	deadline := time.Now().Add(t.timeout)
	for t.uart.Buffered() == 0 {
		if time.Now().After(deadline) {
			return 0, nil
		}
		time.Sleep(100 * time.Microsecond)
	}
	return t.uart.Read(p)
}

func (t *MCUTransport) Write(p []byte) (int, error) {
	return t.uart.Write(p)
}

func (t *MCUTransport) Close() error {
	return nil
}

func (t *MCUTransport) SetReadTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return nil
}

func (t *MCUTransport) Flush() error {
	for t.uart.Buffered() > 0 {
		if _, err := t.uart.ReadByte(); err != nil {
			return err
		}
	}
	return nil
}
