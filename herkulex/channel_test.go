package herkulex

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelBeginEnd(t *testing.T) {
	m, _ := newMockBus(t)
	ch := m.Channel()

	tx, err := ch.Begin(context.Background())
	require.NoError(t, err)
	assert.True(t, ch.Busy())

	tx.End()
	assert.False(t, ch.Busy())

	// A second End must not release someone else's transaction.
	tx2, err := ch.Begin(context.Background())
	require.NoError(t, err)
	tx.End()
	assert.True(t, ch.Busy())
	tx2.End()
}

func TestChannelBusyWithoutWait(t *testing.T) {
	m, mock := newMockBus(t, WithLockTimeout(0))
	ch := m.Channel()

	tx, err := ch.Begin(context.Background())
	require.NoError(t, err)
	defer tx.End()

	_, err = ch.Begin(context.Background())
	require.ErrorIs(t, err, ErrResourceBusy)
	assert.True(t, IsBusy(err))

	// Motor commands fail the same way and put nothing on the wire.
	err = m.NewMotor(1).EnableTorque(context.Background())
	require.ErrorIs(t, err, ErrResourceBusy)
	assert.Empty(t, mock.Frames())
}

func TestChannelBoundedWait(t *testing.T) {
	m, _ := newMockBus(t, WithLockTimeout(time.Second))
	ch := m.Channel()

	tx, err := ch.Begin(context.Background())
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		tx.End()
	}()

	start := time.Now()
	tx2, err := ch.Begin(context.Background())
	require.NoError(t, err)
	defer tx2.End()
	assert.Less(t, time.Since(start), time.Second)
}

func TestChannelWaitTimesOut(t *testing.T) {
	m, _ := newMockBus(t, WithLockTimeout(30*time.Millisecond))
	ch := m.Channel()

	tx, err := ch.Begin(context.Background())
	require.NoError(t, err)
	defer tx.End()

	start := time.Now()
	_, err = ch.Begin(context.Background())
	require.ErrorIs(t, err, ErrResourceBusy)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestChannelWaitCancelled(t *testing.T) {
	m, _ := newMockBus(t, WithLockTimeout(5*time.Second))
	ch := m.Channel()

	tx, err := ch.Begin(context.Background())
	require.NoError(t, err)
	defer tx.End()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = ch.Begin(ctx)
	require.ErrorIs(t, err, ErrResourceBusy)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannelTransactReleasesOnError(t *testing.T) {
	m, _ := newMockBus(t, WithLockTimeout(0))
	ch := m.Channel()
	boom := errors.New("boom")

	err := ch.Transact(context.Background(), func(tx *Tx) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, ch.Busy())
}

func TestChannelTransactReleasesOnPanic(t *testing.T) {
	m, _ := newMockBus(t, WithLockTimeout(0))
	ch := m.Channel()

	assert.Panics(t, func() {
		_ = ch.Transact(context.Background(), func(tx *Tx) error {
			panic("handler crashed")
		})
	})
	assert.False(t, ch.Busy())

	require.NoError(t, ch.Transact(context.Background(), func(tx *Tx) error { return nil }))
}

func TestTxAfterEnd(t *testing.T) {
	m, mock := newMockBus(t)

	tx, err := m.Channel().Begin(context.Background())
	require.NoError(t, err)
	tx.End()

	require.ErrorIs(t, tx.Send([]byte{0x01}), ErrTxClosed)
	_, err = tx.Receive(context.Background(), 1)
	require.ErrorIs(t, err, ErrTxClosed)
	assert.Empty(t, mock.Frames())
}

func TestTxReceive(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		m, mock := newMockBus(t)
		mock.Queue([]byte{1, 2, 3}, []byte{4, 5})

		err := m.Channel().Transact(context.Background(), func(tx *Tx) error {
			data, err := tx.Receive(context.Background(), 5)
			require.NoError(t, err)
			assert.Equal(t, []byte{1, 2, 3, 4, 5}, data)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("nothing arrives", func(t *testing.T) {
		m, _ := newMockBus(t)

		err := m.Channel().Transact(context.Background(), func(tx *Tx) error {
			_, err := tx.Receive(context.Background(), 9)
			return err
		})
		require.ErrorIs(t, err, ErrTimeout)
		assert.True(t, IsNoResponse(err))
		assert.False(t, m.Channel().Busy())
	})

	t.Run("partial reply", func(t *testing.T) {
		m, mock := newMockBus(t)
		mock.Queue([]byte{0xFF, 0xFF, 0x09, 0x01})

		err := m.Channel().Transact(context.Background(), func(tx *Tx) error {
			_, err := tx.Receive(context.Background(), 9)
			return err
		})
		require.ErrorIs(t, err, ErrTimeout)
		assert.ErrorIs(t, err, ErrProtocol)
		assert.False(t, IsNoResponse(err))
	})

	t.Run("read failure", func(t *testing.T) {
		m, mock := newMockBus(t)
		mock.ReadErr = errors.New("device unplugged")

		err := m.Channel().Transact(context.Background(), func(tx *Tx) error {
			_, err := tx.Receive(context.Background(), 9)
			return err
		})
		require.ErrorIs(t, err, ErrTransport)

		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "read", te.Op)
	})
}

func TestTxSendFailures(t *testing.T) {
	t.Run("write error", func(t *testing.T) {
		m, mock := newMockBus(t)
		mock.WriteErr = errors.New("device unplugged")

		err := m.NewMotor(3).Reboot(context.Background())
		require.ErrorIs(t, err, ErrTransport)

		motorErr, ok := GetMotorError(err)
		require.True(t, ok)
		assert.Equal(t, byte(3), motorErr.ID)
		assert.Equal(t, "reboot", motorErr.Op)
	})

	t.Run("short write", func(t *testing.T) {
		m, mock := newMockBus(t)
		mock.ShortWrite = true

		err := m.NewMotor(3).Reboot(context.Background())
		require.ErrorIs(t, err, ErrTransport)
		assert.ErrorIs(t, err, io.ErrShortWrite)
	})

	t.Run("flushes before write", func(t *testing.T) {
		m, mock := newMockBus(t)

		require.NoError(t, m.NewMotor(3).Reboot(context.Background()))
		assert.Equal(t, 1, mock.Flushes)
	})
}

func TestChannelNoInterleaving(t *testing.T) {
	m, mock := newMockBus(t, WithLockTimeout(10*time.Second))
	ch := m.Channel()

	const workers, rounds = 8, 20
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				err := ch.Transact(context.Background(), func(tx *Tx) error {
					if err := tx.Send([]byte{byte(w), 0}); err != nil {
						return err
					}
					return tx.Send([]byte{byte(w), 1})
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	frames := mock.Frames()
	require.Len(t, frames, 2*workers*rounds)
	for i := 0; i < len(frames); i += 2 {
		assert.Equal(t, frames[i][0], frames[i+1][0], "transaction at frame %d was interleaved", i)
		assert.Equal(t, byte(0), frames[i][1])
		assert.Equal(t, byte(1), frames[i+1][1])
	}
}

func TestChannelClose(t *testing.T) {
	m, mock := newMockBus(t)
	ch := m.Channel()

	require.NoError(t, m.Close())
	assert.True(t, mock.Closed)

	_, err := ch.Begin(context.Background())
	require.ErrorIs(t, err, ErrClosed)

	// Closing twice is harmless.
	require.NoError(t, m.Close())
}

func TestChannelCloseWaitsForTransaction(t *testing.T) {
	m, _ := newMockBus(t)
	ch := m.Channel()

	tx, err := ch.Begin(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- ch.Close() }()

	select {
	case <-done:
		t.Fatal("Close returned while a transaction was open")
	case <-time.After(20 * time.Millisecond):
	}

	tx.End()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the transaction ended")
	}
}

func TestChannelCloseGivesUpOnLeakedTransaction(t *testing.T) {
	m, mock := newMockBus(t, WithLockTimeout(10*time.Millisecond))
	ch := m.Channel()

	_, err := ch.Begin(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- ch.Close() }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrResourceBusy)
	case <-time.After(time.Second):
		t.Fatal("Close hung on a transaction that never ended")
	}
	assert.True(t, mock.Closed)

	_, err = ch.Begin(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}
