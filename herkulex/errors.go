package herkulex

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrResourceBusy     = errors.New("channel busy")
	ErrTransport        = errors.New("transport failure")
	ErrTimeout          = errors.New("communication timeout")
	ErrNoResponse       = errors.New("no response from servo")
	ErrProtocol         = errors.New("protocol error")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrTxClosed         = errors.New("transaction already ended")
	ErrClosed           = errors.New("channel is closed")
)

// TransportError wraps a failure reported by the Transport.
type TransportError struct {
	Op  string // "write", "read" or "flush"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// ProtocolError wraps a frame the protocol could not decode, or a fault
// reported in the servo status byte.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

// MotorError represents an error from an operation on a specific motor.
type MotorError struct {
	ID  byte   // Motor bus id
	Op  string // Operation that failed
	Err error
}

func (e *MotorError) Error() string {
	return fmt.Sprintf("motor %d %s failed: %v", e.ID, e.Op, e.Err)
}

func (e *MotorError) Unwrap() error {
	return e.Err
}

// IsBusy returns true if the error means the channel could not be acquired.
func IsBusy(err error) bool {
	return errors.Is(err, ErrResourceBusy)
}

// IsTimeout returns true if the error is a timeout error.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsNoResponse returns true if the error indicates no byte was received.
func IsNoResponse(err error) bool {
	return errors.Is(err, ErrNoResponse)
}

// IsProtocol returns true if a response could not be decoded.
func IsProtocol(err error) bool {
	return errors.Is(err, ErrProtocol)
}

// GetMotorError extracts a MotorError from an error chain, if present.
func GetMotorError(err error) (*MotorError, bool) {
	var motorErr *MotorError
	if errors.As(err, &motorErr) {
		return motorErr, true
	}
	return nil, false
}
