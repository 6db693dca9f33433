package herkulex

import (
	"log/slog"
	"time"

	"github.com/ClubRobotInsat/herkulex-go/drs"
)

// Defaults used when an option is not given.
const (
	DefaultReadTimeout   = 100 * time.Millisecond
	DefaultLockTimeout   = 500 * time.Millisecond
	DefaultMinCommandGap = time.Millisecond
)

type options struct {
	protocol    Protocol
	logger      *slog.Logger
	readTimeout time.Duration
	lockTimeout time.Duration
	minCmdGap   time.Duration
}

func defaultOptions() options {
	return options{
		protocol:    drs.New(drs.DRS0101),
		logger:      slog.New(slog.DiscardHandler),
		readTimeout: DefaultReadTimeout,
		lockTimeout: DefaultLockTimeout,
		minCmdGap:   DefaultMinCommandGap,
	}
}

// Option configures a Motors registry and its Channel.
type Option func(*options)

// WithProtocol sets the frame codec. Default is drs.New(drs.DRS0101).
func WithProtocol(p Protocol) Option {
	return func(o *options) {
		if p != nil {
			o.protocol = p
		}
	}
}

// WithLogger sets the logger used by the channel. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithReadTimeout bounds how long Receive waits for a full ack.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.readTimeout = d
		}
	}
}

// WithLockTimeout bounds how long Begin waits for a busy channel.
// Zero makes Begin fail with ErrResourceBusy at once.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.lockTimeout = d
		}
	}
}

// WithMinCommandGap sets the minimum time between two frames on the wire.
func WithMinCommandGap(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.minCmdGap = d
		}
	}
}
