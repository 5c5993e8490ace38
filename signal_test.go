//go:build linux || darwin

package reactor

import (
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestDispatch_SignalRaisedByTimeout(t *testing.T) {
	c := newTestContext(t)

	var (
		signalCalls int
		handle      int
	)
	sigEv, err := c.NewEvent(Full(func(ev *Event, h int, trigger Interest, args ...any) error {
		signalCalls++
		handle = h
		assert.Equal(t, Signal, trigger)
		ev.Delete()
		return nil
	}), WithSignal(int(unix.SIGUSR1)))
	require.NoError(t, err)
	require.NoError(t, sigEv.Arm())

	_, err = c.OnTimeout(10*time.Millisecond, func(args ...any) error {
		return unix.Kill(unix.Getpid(), unix.SIGUSR1)
	})
	require.NoError(t, err)

	require.NoError(t, testDispatch(t, c))

	assert.Equal(t, 1, signalCalls)
	assert.Equal(t, int(unix.SIGUSR1), handle)
	assert.Equal(t, EventDeleted, sigEv.State())
	assert.Equal(t, StopNormal, c.LastStop())
}

func TestDispatch_SignalSubscribersInOrder(t *testing.T) {
	c := newTestContext(t)

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		_, err := c.OnSignal(int(unix.SIGUSR1), func(args ...any) error {
			order = append(order, args[0].(string))
			return nil
		}, name)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, c.Pending())

	raise(t, unix.SIGUSR1)

	require.NoError(t, testDispatch(t, c))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestDispatch_SignalsAscending(t *testing.T) {
	c := newTestContext(t)

	var order []int
	record := Full(func(_ *Event, handle int, _ Interest, _ ...any) error {
		order = append(order, handle)
		return nil
	})
	for _, sig := range []unix.Signal{unix.SIGUSR2, unix.SIGUSR1} {
		ev, err := c.NewEvent(record, WithSignal(int(sig)))
		require.NoError(t, err)
		require.NoError(t, ev.Arm())
	}

	raise(t, unix.SIGUSR2)
	raise(t, unix.SIGUSR1)
	require.Eventually(t, func() bool {
		return c.signals.pending[unix.SIGUSR1].Load() && c.signals.pending[unix.SIGUSR2].Load()
	}, 5*time.Second, time.Millisecond)

	require.NoError(t, testDispatch(t, c))
	assert.Equal(t, []int{int(unix.SIGUSR1), int(unix.SIGUSR2)}, order)
}

func TestDispatch_SignalAfterDeleteIsRace(t *testing.T) {
	logger, writer := newTestLogger(logiface.LevelDebug)
	c := newTestContext(t, WithLogger(logger))

	ev, err := c.OnSignal(int(unix.SIGUSR1), func(args ...any) error { return nil })
	require.NoError(t, err)
	ev.Delete()
	assert.Equal(t, 0, c.Pending())

	// still captured, so this does not terminate the process
	raise(t, unix.SIGUSR1)
	require.Eventually(t, func() bool {
		return c.signals.pending[unix.SIGUSR1].Load()
	}, 5*time.Second, time.Millisecond)

	var fired bool
	_, err = c.OnTimeout(0, func(args ...any) error {
		fired = true
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, testDispatch(t, c))
	assert.True(t, fired)

	race := writer.find(`signal delivered with no subscriber`)
	require.NotNil(t, race)
	assert.EqualValues(t, int(unix.SIGUSR1), race.fields[`signal`])
}

func TestDispatch_SignalUndeliveredOnAbortStaysPending(t *testing.T) {
	c := newTestContext(t)

	var calls []string
	_, err := c.OnSignal(int(unix.SIGUSR1), func(args ...any) error {
		calls = append(calls, "first")
		c.Abort()
		return nil
	})
	require.NoError(t, err)
	_, err = c.OnSignal(int(unix.SIGUSR1), func(args ...any) error {
		calls = append(calls, "second")
		return nil
	})
	require.NoError(t, err)

	raise(t, unix.SIGUSR1)

	require.NoError(t, testDispatch(t, c))
	assert.Equal(t, []string{"first"}, calls)

	require.NoError(t, testDispatch(t, c))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatch_SignalUndeliveredOnAbortSkipsRearmed(t *testing.T) {
	c := newTestContext(t)

	var a, b int
	first, err := c.NewEvent(Full(func(ev *Event, fd int, trigger Interest, args ...any) error {
		a++
		c.Abort()
		return ev.Arm()
	}), WithSignal(int(unix.SIGUSR2)))
	require.NoError(t, err)
	require.NoError(t, first.Arm())
	_, err = c.OnSignal(int(unix.SIGUSR2), func(args ...any) error {
		b++
		c.Abort()
		return nil
	})
	require.NoError(t, err)

	raise(t, unix.SIGUSR2)

	require.NoError(t, testDispatch(t, c))
	assert.Equal(t, 1, a)
	assert.Equal(t, 0, b)
	assert.Equal(t, EventArmed, first.State())

	// only the subscriber not yet reached receives the delivery
	require.NoError(t, testDispatch(t, c))
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, EventArmed, first.State())

	first.Delete()
	assert.Equal(t, 0, c.Pending())
}

func TestSignalBridge_RelayBatchesAndWakes(t *testing.T) {
	woken := make(chan struct{}, 16)
	b := newSignalBridge(4, func() { woken <- struct{}{} })
	defer b.close()

	require.NoError(t, b.subscribe(int(unix.SIGUSR1), 1))
	require.NoError(t, b.subscribe(int(unix.SIGUSR2), 2))
	require.NoError(t, b.subscribe(int(unix.SIGUSR2), 3))
	assert.Equal(t, []EventID{2, 3}, b.subscribers(int(unix.SIGUSR2)))

	b.ch <- syscall.SIGUSR2
	b.ch <- syscall.SIGUSR1

	deadline := time.After(5 * time.Second)
	var sigs []int
	for len(sigs) < 2 {
		select {
		case <-woken:
		case <-deadline:
			t.Fatalf("timed out, got %v", sigs)
		}
		sigs = append(sigs, b.drain()...)
	}
	assert.ElementsMatch(t, []int{int(unix.SIGUSR1), int(unix.SIGUSR2)}, sigs)
	assert.Empty(t, b.drain())

	b.unsubscribe(int(unix.SIGUSR2), 2)
	assert.Equal(t, []EventID{3}, b.subscribers(int(unix.SIGUSR2)))
	b.unsubscribe(int(unix.SIGUSR2), 3)
	assert.Empty(t, b.subscribers(int(unix.SIGUSR2)))
	assert.NotContains(t, b.subs, int(unix.SIGUSR2))
}

func TestSignalBridge_IgnoresUnwatchable(t *testing.T) {
	b := newSignalBridge(1, func() {})
	defer b.close()

	assert.False(t, b.mark(syscall.Signal(maxSignal)))
	assert.False(t, b.mark(fakeSignal{}))
	assert.True(t, b.mark(syscall.SIGUSR1))

	// not captured, so never reported
	assert.Empty(t, b.drain())
}

func TestSignalBridge_SubscribeErrors(t *testing.T) {
	b := newSignalBridge(1, func() {})
	assert.True(t, errors.Is(b.subscribe(0, 1), ErrSignalOutOfRange))
	assert.True(t, errors.Is(b.subscribe(maxSignal, 1), ErrSignalOutOfRange))
	b.close()
	b.close()
	assert.True(t, errors.Is(b.subscribe(int(unix.SIGUSR1), 1), ErrContextClosed))
}

type fakeSignal struct{}

func (fakeSignal) String() string { return "fake" }
func (fakeSignal) Signal()        {}
