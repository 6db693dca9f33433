package herkulex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
)

// turnaround is the pause after a write before the line is read back.
const turnaround = 100 * time.Microsecond

// Channel serialises all traffic on one servo bus. At most one transaction
// (Begin, Send, optional Receive, End) is in flight at any time; callers on
// other goroutines wait at most the lock timeout for their turn.
type Channel struct {
	transport Transport
	logger    *slog.Logger

	readTimeout time.Duration
	lockTimeout time.Duration
	minCmdGap   time.Duration

	// sem holds one token while a transaction is open.
	sem    chan struct{}
	closed atomic.Bool

	// Only touched while sem is held.
	lastCmdTime time.Time
}

func newChannel(t Transport, o options) *Channel {
	return &Channel{
		transport:   t,
		logger:      o.logger,
		readTimeout: o.readTimeout,
		lockTimeout: o.lockTimeout,
		minCmdGap:   o.minCmdGap,
		sem:         make(chan struct{}, 1),
		lastCmdTime: time.Now(),
	}
}

// Begin acquires exclusive access to the bus. When another transaction is
// open it waits up to the lock timeout, then fails with ErrResourceBusy.
// The returned Tx must be ended with End.
func (c *Channel) Begin(ctx context.Context) (*Tx, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	if err := c.acquire(ctx); err != nil {
		c.logger.Warn("channel busy", "lock_timeout", c.lockTimeout, "error", err)
		return nil, err
	}

	if c.closed.Load() {
		c.release()
		return nil, ErrClosed
	}

	c.logger.Debug("transaction begin")
	return &Tx{ch: c}, nil
}

// Transact runs fn inside a transaction. The channel is released when fn
// returns, fails or panics.
func (c *Channel) Transact(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := c.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.End()

	return fn(tx)
}

// Busy reports whether a transaction is currently open.
func (c *Channel) Busy() bool {
	return len(c.sem) > 0
}

// Close waits up to the lock timeout for the open transaction, if any, and
// closes the transport. A transaction still open after that is cut off: the
// transport is closed anyway and the error wraps ErrResourceBusy. Later
// calls to Begin fail with ErrClosed.
func (c *Channel) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	if err := c.acquire(context.Background()); err != nil {
		c.logger.Warn("closing with a transaction still open", "error", err)
		return errors.Join(fmt.Errorf("transaction left open: %w", err), c.transport.Close())
	}
	defer c.release()

	c.logger.Debug("channel closed")
	return c.transport.Close()
}

func (c *Channel) acquire(ctx context.Context) error {
	select {
	case c.sem <- struct{}{}:
		return nil
	default:
	}

	if c.lockTimeout <= 0 {
		return ErrResourceBusy
	}

	timer := time.NewTimer(c.lockTimeout)
	defer timer.Stop()

	select {
	case c.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: waited %s", ErrResourceBusy, c.lockTimeout)
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrResourceBusy, ctx.Err())
	}
}

func (c *Channel) release() {
	<-c.sem
}

// exchange sends frame and, when replyLen > 0, reads the reply, all inside
// one transaction.
func (c *Channel) exchange(ctx context.Context, frame []byte, replyLen int) ([]byte, error) {
	var reply []byte
	err := c.Transact(ctx, func(tx *Tx) error {
		if err := tx.Send(frame); err != nil {
			return err
		}
		if replyLen == 0 {
			return nil
		}
		var err error
		reply, err = tx.Receive(ctx, replyLen)
		return err
	})
	return reply, err
}

func (c *Channel) enforceCommandGap() {
	elapsed := time.Since(c.lastCmdTime)
	if elapsed < c.minCmdGap {
		time.Sleep(c.minCmdGap - elapsed)
	}
}

// Tx is an open transaction on a Channel. A Tx is not safe for concurrent
// use; it belongs to the goroutine that called Begin.
type Tx struct {
	ch    *Channel
	ended bool
}

// Send writes frame to the bus.
func (tx *Tx) Send(frame []byte) error {
	if tx.ended {
		return ErrTxClosed
	}
	c := tx.ch

	c.enforceCommandGap()

	// Drop stale bytes so the next Receive only sees the reply to this frame.
	if err := c.transport.Flush(); err != nil {
		c.logger.Debug("flush failed", "error", err)
	}

	n, err := c.transport.Write(frame)
	if err != nil {
		c.logger.Debug("write failed", "error", err)
		return &TransportError{Op: "write", Err: err}
	}
	if n != len(frame) {
		return &TransportError{Op: "write", Err: fmt.Errorf("%w: %d of %d bytes", io.ErrShortWrite, n, len(frame))}
	}

	c.lastCmdTime = time.Now()
	c.logger.Debug("frame sent", "bytes", len(frame))

	time.Sleep(turnaround)
	return nil
}

// Receive reads exactly n bytes within the read timeout. On timeout the
// partial buffer is discarded and the error wraps ErrTimeout; when not a
// single byte arrived it also wraps ErrNoResponse, otherwise ErrProtocol
// since the ack arrived truncated.
func (tx *Tx) Receive(ctx context.Context, n int) ([]byte, error) {
	if tx.ended {
		return nil, ErrTxClosed
	}
	c := tx.ch

	buffer := make([]byte, n)
	totalRead := 0
	deadline := time.Now().Add(c.readTimeout)

	for totalRead < n {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if time.Now().After(deadline) {
			if totalRead == 0 {
				c.logger.Warn("no response", "expected", n, "timeout", c.readTimeout)
				return nil, fmt.Errorf("%w: %w", ErrTimeout, ErrNoResponse)
			}
			c.logger.Warn("incomplete response discarded", "read", totalRead, "expected", n)
			return nil, fmt.Errorf("%w: %w: truncated ack, read %d of %d expected bytes", ErrTimeout, ErrProtocol, totalRead, n)
		}

		remaining := max(time.Until(deadline), 10*time.Millisecond)
		if err := c.transport.SetReadTimeout(remaining); err != nil {
			return nil, &TransportError{Op: "read", Err: err}
		}

		m, err := c.transport.Read(buffer[totalRead:])
		totalRead += m
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, &TransportError{Op: "read", Err: err}
		}
		if m == 0 {
			time.Sleep(time.Millisecond)
		}
	}

	c.logger.Debug("frame received", "bytes", totalRead)
	return buffer, nil
}

// End releases the channel. Calling End more than once is a no-op.
func (tx *Tx) End() {
	if tx.ended {
		return
	}
	tx.ended = true
	tx.ch.release()
	tx.ch.logger.Debug("transaction end")
}
