package drs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the frame codec.
var (
	ErrShortFrame        = errors.New("frame too short")
	ErrBadHeader         = errors.New("frame header not found")
	ErrChecksum          = errors.New("checksum mismatch")
	ErrUnexpectedCommand = errors.New("unexpected ack command")
	ErrIDMismatch        = errors.New("ack from wrong servo")
	ErrOutOfRange        = errors.New("parameter out of range")
	ErrUnknownOperation  = errors.New("unknown operation")
	ErrNoAck             = errors.New("query would get no ack")
)

// StatusError is the status error byte reported by a servo in every ack.
type StatusError byte

const (
	ErrVoltage       StatusError = 1 << 0 // Exceed input voltage limit
	ErrPotLimit      StatusError = 1 << 1 // Exceed allowed POT limit
	ErrTemperature   StatusError = 1 << 2 // Exceed temperature limit
	ErrInvalidPacket StatusError = 1 << 3
	ErrOverload      StatusError = 1 << 4
	ErrDriverFault   StatusError = 1 << 5
	ErrEEPDistorted  StatusError = 1 << 6
)

var statusErrorNames = []struct {
	bit  StatusError
	name string
}{
	{ErrVoltage, "voltage"},
	{ErrPotLimit, "pot limit"},
	{ErrTemperature, "temperature"},
	{ErrInvalidPacket, "invalid packet"},
	{ErrOverload, "overload"},
	{ErrDriverFault, "driver fault"},
	{ErrEEPDistorted, "eep distorted"},
}

func (e StatusError) Error() string {
	if e == 0 {
		return "no error"
	}

	var msgs []string
	for _, n := range statusErrorNames {
		if e&n.bit != 0 {
			msgs = append(msgs, n.name)
		}
	}
	return fmt.Sprintf("servo status error: %s", strings.Join(msgs, ", "))
}

// HasError returns true if any error flag is set.
func (e StatusError) HasError() bool {
	return e != 0
}

// StatusDetail is the status detail byte reported alongside StatusError.
type StatusDetail byte

const (
	DetailMoving         StatusDetail = 1 << 0
	DetailInposition     StatusDetail = 1 << 1
	DetailChecksumError  StatusDetail = 1 << 2
	DetailUnknownCommand StatusDetail = 1 << 3
	DetailExceedRegRange StatusDetail = 1 << 4
	DetailGarbage        StatusDetail = 1 << 5
	DetailMotorOn        StatusDetail = 1 << 6
)

// Status groups the two status bytes of an ack.
type Status struct {
	Error  StatusError
	Detail StatusDetail
}

// Moving reports whether the servo is currently moving.
func (s Status) Moving() bool { return s.Detail&DetailMoving != 0 }

// InPosition reports whether the servo reached its goal.
func (s Status) InPosition() bool { return s.Detail&DetailInposition != 0 }

// TorqueOn reports whether the motor is powered.
func (s Status) TorqueOn() bool { return s.Detail&DetailMotorOn != 0 }

func (s Status) String() string {
	return fmt.Sprintf("error=0x%02X detail=0x%02X", byte(s.Error), byte(s.Detail))
}
