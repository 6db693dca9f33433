package herkulex

import (
	"testing"
	"time"

	"github.com/ClubRobotInsat/herkulex-go/drs"
	"github.com/ClubRobotInsat/herkulex-go/transports"
)

// simBus is a registry wired to simulated servos through a loopback.
type simBus struct {
	motors *Motors
	sim    *drs.Simulator
	link   *transports.Loopback
}

func newSimBus(t *testing.T, ack drs.AckPolicy, ids ...byte) *simBus {
	t.Helper()

	sim := drs.NewSimulator(drs.DRS0101, ids...)
	sim.Ack = ack
	link := transports.NewLoopback(sim.Respond)
	m := New(link,
		WithProtocol(drs.New(drs.DRS0101).WithAckPolicy(ack)),
		WithMinCommandGap(0),
		WithReadTimeout(20*time.Millisecond),
	)
	t.Cleanup(func() { m.Close() })

	return &simBus{motors: m, sim: sim, link: link}
}

func newMockBus(t *testing.T, opts ...Option) (*Motors, *transports.MockTransport) {
	t.Helper()

	mock := &transports.MockTransport{}
	opts = append([]Option{WithMinCommandGap(0), WithReadTimeout(20 * time.Millisecond)}, opts...)
	return New(mock, opts...), mock
}
