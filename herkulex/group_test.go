package herkulex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClubRobotInsat/herkulex-go/drs"
)

func TestGroupSetPositions(t *testing.T) {
	bus := newSimBus(t, drs.AckAll, 1, 2, 3)
	group := bus.motors.Group(1, 2, 3)

	err := group.SetPositions(context.Background(), map[byte]uint16{2: 900, 1: 100})
	require.NoError(t, err)

	// One broadcast frame and no ack even with AckAll.
	frames := bus.link.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, drs.BroadcastID, frames[0][3])
	assert.Equal(t, drs.CmdSJog, frames[0][4])
	// playtime + 2 targets of 4 bytes, ordered by group id.
	assert.Equal(t, []byte{drs.DefaultPlaytime, 100, 0, 0, 1, 0x84, 0x03, 0, 2}, frames[0][7:])

	s1, _ := bus.sim.Servo(1)
	s2, _ := bus.sim.Servo(2)
	s3, _ := bus.sim.Servo(3)
	assert.Equal(t, uint16(100), s1.Position)
	assert.Equal(t, uint16(900), s2.Position)
	assert.Equal(t, uint16(0), s3.Position)
}

func TestGroupSetSpeeds(t *testing.T) {
	bus := newSimBus(t, drs.AckReads, 4, 5)
	group := bus.motors.Group(4, 5)

	err := group.SetSpeeds(context.Background(), map[byte]Speed{
		4: {Value: 300, Rotation: drs.Clockwise},
		5: {Value: 300, Rotation: drs.CounterClockwise},
	})
	require.NoError(t, err)

	s4, _ := bus.sim.Servo(4)
	s5, _ := bus.sim.Servo(5)
	assert.True(t, s4.SpeedMode)
	assert.Equal(t, drs.Clockwise, s4.Rotation)
	assert.Equal(t, uint16(300), s5.Speed)
	assert.Equal(t, drs.CounterClockwise, s5.Rotation)
}

func TestGroupRejectsBadTargets(t *testing.T) {
	bus := newSimBus(t, drs.AckReads, 1, 2)
	group := bus.motors.Group(1, 2)
	ctx := context.Background()

	err := group.SetPositions(ctx, map[byte]uint16{7: 10})
	require.ErrorIs(t, err, ErrInvalidParameter)

	err = group.SetPositions(ctx, map[byte]uint16{1: 5000})
	require.ErrorIs(t, err, ErrInvalidParameter)

	err = group.SetSpeeds(ctx, map[byte]Speed{2: {Value: 2000}})
	require.ErrorIs(t, err, ErrInvalidParameter)

	require.NoError(t, group.SetPositions(ctx, nil))
	assert.Empty(t, bus.link.Frames())
}

func TestGroupIDsAreCopied(t *testing.T) {
	ids := []byte{1, 2}
	bus := newSimBus(t, drs.AckReads)
	group := bus.motors.Group(ids...)

	ids[0] = 9
	got := group.IDs()
	got[1] = 9
	assert.Equal(t, []byte{1, 2}, group.IDs())
}
