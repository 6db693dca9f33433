package herkulex

import (
	"io"
	"time"

	"github.com/ClubRobotInsat/herkulex-go/drs"
)

// Transport is the interface for low-level communication with the servo bus.
// This abstraction allows for testing with mock implementations.
type Transport interface {
	io.ReadWriteCloser

	// SetReadTimeout sets the read timeout duration.
	SetReadTimeout(timeout time.Duration) error

	// Flush discards any buffered input data.
	Flush() error
}

// Protocol turns logical operations into frames and acks back into values.
// The channel and motors never look inside a frame.
type Protocol interface {
	// Encode builds the frame for cmd. Parameters outside the documented
	// range are rejected with drs.ErrOutOfRange, and queries that would get
	// no ack with drs.ErrNoAck, before anything is sent.
	Encode(cmd drs.Command) ([]byte, error)

	// ResponseLength returns the ack length for cmd, 0 when none is sent.
	ResponseLength(cmd drs.Command) int

	// Decode parses the ack received for cmd.
	Decode(cmd drs.Command, frame []byte) (drs.Response, error)
}

var _ Protocol = (*drs.Protocol)(nil)
