package herkulex

import (
	"context"
	"errors"
	"fmt"

	"github.com/ClubRobotInsat/herkulex-go/drs"
)

// Motor is a handle on one servo of the bus. It holds no hardware state and
// can be copied or dropped freely; every call runs one transaction on the
// shared channel. Nothing is retried: a failed command is reported to the
// caller as is.
type Motor struct {
	id    byte
	ch    *Channel
	proto Protocol
}

// ID returns the bus id this handle addresses.
func (m *Motor) ID() byte {
	return m.id
}

// Reboot restarts the servo. No reply is expected.
func (m *Motor) Reboot(ctx context.Context) error {
	_, err := m.do(ctx, drs.Command{Op: drs.OpReboot})
	return err
}

// EnableTorque powers the motor so it holds and follows jogs.
func (m *Motor) EnableTorque(ctx context.Context) error {
	_, err := m.do(ctx, drs.Command{Op: drs.OpTorqueOn})
	return err
}

// DisableTorque lets the output shaft turn freely.
func (m *Motor) DisableTorque(ctx context.Context) error {
	_, err := m.do(ctx, drs.Command{Op: drs.OpTorqueOff})
	return err
}

// SetPosition commands the servo to move to target. Torque must have been
// enabled for the servo to move; this is not checked.
func (m *Motor) SetPosition(ctx context.Context, target uint16) error {
	_, err := m.do(ctx, drs.Command{Op: drs.OpSetPosition, Position: target})
	return err
}

// SetSpeed switches the servo to continuous rotation at speed in direction.
func (m *Motor) SetSpeed(ctx context.Context, speed uint16, direction drs.Rotation) error {
	_, err := m.do(ctx, drs.Command{Op: drs.OpSetSpeed, Speed: speed, Rotation: direction})
	return err
}

// Temperature reads the raw temperature value reported by the servo.
func (m *Motor) Temperature(ctx context.Context) (int, error) {
	resp, err := m.do(ctx, drs.Command{Op: drs.OpReadTemperature})
	if err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// Position reads the calibrated position.
func (m *Motor) Position(ctx context.Context) (uint16, error) {
	resp, err := m.do(ctx, drs.Command{Op: drs.OpReadPosition})
	if err != nil {
		return 0, err
	}
	return uint16(resp.Value), nil
}

// Status reads the status error and detail bytes. A servo fault is reported
// in the returned Status, not as an error.
func (m *Motor) Status(ctx context.Context) (drs.Status, error) {
	resp, err := m.do(ctx, drs.Command{Op: drs.OpStatus})
	if err != nil {
		return drs.Status{}, err
	}
	return resp.Status, nil
}

// ClearErrors resets the status registers. A servo in fault refuses torque
// until its errors are cleared.
func (m *Motor) ClearErrors(ctx context.Context) error {
	_, err := m.do(ctx, drs.Command{Op: drs.OpClearErrors})
	return err
}

// SetIDEEP writes newID to the servo's EEP memory. It takes effect after the
// next reboot, and this handle keeps addressing the old id. If no servo
// answers at the current id the write is silently lost; use
// SetIDEEPConfirmed to detect that.
func (m *Motor) SetIDEEP(ctx context.Context, newID byte) error {
	_, err := m.do(ctx, drs.Command{Op: drs.OpSetIDEEP, NewID: newID})
	return err
}

// SetIDEEPConfirmed writes newID like SetIDEEP, then reads the EEP id back
// and fails when the servo does not answer or reports another value.
func (m *Motor) SetIDEEPConfirmed(ctx context.Context, newID byte) error {
	// Refuse before writing when the read-back cannot be answered.
	readBack := drs.Command{Op: drs.OpReadIDEEP, ID: m.id}
	if m.proto.ResponseLength(readBack) == 0 {
		return &MotorError{ID: m.id, Op: "confirm eep id",
			Err: fmt.Errorf("%w: %w", ErrInvalidParameter, drs.ErrNoAck)}
	}

	if err := m.SetIDEEP(ctx, newID); err != nil {
		return err
	}

	resp, err := m.do(ctx, drs.Command{Op: drs.OpReadIDEEP})
	if err != nil {
		return err
	}
	if byte(resp.Value) != newID {
		return &MotorError{ID: m.id, Op: "confirm eep id",
			Err: fmt.Errorf("%w: servo stores %d, wrote %d", ErrProtocol, resp.Value, newID)}
	}
	return nil
}

// do runs one encode, transact, decode cycle.
func (m *Motor) do(ctx context.Context, cmd drs.Command) (drs.Response, error) {
	cmd.ID = m.id
	op := cmd.Op.String()

	frame, err := m.proto.Encode(cmd)
	if err != nil {
		return drs.Response{}, &MotorError{ID: m.id, Op: op, Err: encodeError(err)}
	}

	replyLen := m.proto.ResponseLength(cmd)
	if replyLen == 0 && cmd.Op.IsQuery() {
		return drs.Response{}, &MotorError{ID: m.id, Op: op,
			Err: fmt.Errorf("%w: %w", ErrInvalidParameter, drs.ErrNoAck)}
	}
	reply, err := m.ch.exchange(ctx, frame, replyLen)
	if err != nil {
		return drs.Response{}, &MotorError{ID: m.id, Op: op, Err: err}
	}
	if replyLen == 0 {
		return drs.Response{ID: m.id}, nil
	}

	resp, err := m.proto.Decode(cmd, reply)
	if err != nil {
		return resp, &MotorError{ID: m.id, Op: op, Err: &ProtocolError{Err: err}}
	}
	return resp, nil
}

func encodeError(err error) error {
	if errors.Is(err, drs.ErrOutOfRange) || errors.Is(err, drs.ErrNoAck) {
		return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	return err
}
