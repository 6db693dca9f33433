package herkulex

import (
	"context"
	"fmt"
	"slices"

	"github.com/ClubRobotInsat/herkulex-go/drs"
)

// Speed is a continuous rotation target.
type Speed struct {
	Value    uint16
	Rotation drs.Rotation
}

// Group drives several servos with a single synchronised jog frame, so they
// start moving together.
type Group struct {
	ch    *Channel
	proto Protocol
	ids   []byte
}

func newGroup(ch *Channel, proto Protocol, ids []byte) *Group {
	return &Group{ch: ch, proto: proto, ids: slices.Clone(ids)}
}

// IDs returns the servo ids in this group.
func (g *Group) IDs() []byte {
	return slices.Clone(g.ids)
}

// SetPositions moves the servos listed in positions. Servos of the group not
// in the map are left alone.
func (g *Group) SetPositions(ctx context.Context, positions map[byte]uint16) error {
	if len(positions) == 0 {
		return nil
	}
	if err := checkMembers(g.ids, positions); err != nil {
		return err
	}

	targets := make([]drs.Target, 0, len(positions))
	for _, id := range g.ids {
		if pos, ok := positions[id]; ok {
			targets = append(targets, drs.Target{ID: id, Mode: drs.JogPosition, Value: pos})
		}
	}
	return g.jog(ctx, "set positions", targets)
}

// SetSpeeds switches the servos listed in speeds to continuous rotation.
func (g *Group) SetSpeeds(ctx context.Context, speeds map[byte]Speed) error {
	if len(speeds) == 0 {
		return nil
	}
	if err := checkMembers(g.ids, speeds); err != nil {
		return err
	}

	targets := make([]drs.Target, 0, len(speeds))
	for _, id := range g.ids {
		if s, ok := speeds[id]; ok {
			targets = append(targets, drs.Target{ID: id, Mode: drs.JogSpeed, Value: s.Value, Rotation: s.Rotation})
		}
	}
	return g.jog(ctx, "set speeds", targets)
}

func (g *Group) jog(ctx context.Context, op string, targets []drs.Target) error {
	cmd := drs.Command{Op: drs.OpSyncJog, ID: drs.BroadcastID, Targets: targets}

	frame, err := g.proto.Encode(cmd)
	if err != nil {
		return fmt.Errorf("group %s: %w", op, encodeError(err))
	}

	if _, err := g.ch.exchange(ctx, frame, 0); err != nil {
		return fmt.Errorf("group %s: %w", op, err)
	}
	return nil
}

func checkMembers[V any](ids []byte, values map[byte]V) error {
	for id := range values {
		if !slices.Contains(ids, id) {
			return fmt.Errorf("%w: servo id %d not in group", ErrInvalidParameter, id)
		}
	}
	return nil
}
