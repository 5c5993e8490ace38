//go:build linux || darwin

package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newTestMultiplexer(t *testing.T) *multiplexer {
	t.Helper()
	m, err := newMultiplexer(8)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.close() })
	return m
}

func TestTimeoutMillis(t *testing.T) {
	assert.Equal(t, -1, timeoutMillis(-1))
	assert.Equal(t, -1, timeoutMillis(-time.Hour))
	assert.Equal(t, 0, timeoutMillis(0))
	assert.Equal(t, 1, timeoutMillis(time.Nanosecond))
	assert.Equal(t, 1, timeoutMillis(time.Millisecond))
	assert.Equal(t, 2, timeoutMillis(time.Millisecond+time.Microsecond))
	assert.Equal(t, 1500, timeoutMillis(1500*time.Millisecond))
	assert.Equal(t, int(^uint32(0)>>1), timeoutMillis(time.Duration(1<<62)))
}

func TestMultiplexer_TimeoutWithNothingReady(t *testing.T) {
	m := newTestMultiplexer(t)
	r, _ := newTestPipe(t)
	require.NoError(t, m.watch(r, 1, 1, Read))

	start := time.Now()
	ready, err := m.wait(20 * time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, ready)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestMultiplexer_ReadyInRegistrationOrder(t *testing.T) {
	m := newTestMultiplexer(t)
	r, w := newTestPipe(t)

	require.NoError(t, m.watch(r, 3, 1, Read))
	require.NoError(t, m.watch(w, 4, 1, Write))
	require.NoError(t, m.watch(r, 1, 2, Read))
	assert.Equal(t, 2, m.watching())

	_, err := unix.Write(w, []byte("x"))
	require.NoError(t, err)

	ready, err := m.wait(time.Second)
	require.NoError(t, err)

	got := map[EventID]Interest{}
	var readOrder []EventID
	for _, r := range ready {
		got[r.id] = r.trigger
		if r.id == 3 || r.id == 1 {
			readOrder = append(readOrder, r.id)
		}
	}
	assert.Equal(t, map[EventID]Interest{3: Read, 1: Read, 4: Write}, got)
	assert.Equal(t, []EventID{3, 1}, readOrder)
}

func TestMultiplexer_Unwatch(t *testing.T) {
	m := newTestMultiplexer(t)
	r, w := newTestPipe(t)
	_, err := unix.Write(w, []byte("x"))
	require.NoError(t, err)

	require.NoError(t, m.watch(r, 1, 1, Read))
	require.NoError(t, m.watch(r, 2, 1, Read))
	require.NoError(t, m.unwatch(r, 1))
	require.NoError(t, m.unwatch(r, 99))

	ready, err := m.wait(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []readyEvent{{id: 2, gen: 1, trigger: Read}}, ready)

	require.NoError(t, m.unwatch(r, 2))
	assert.Equal(t, 0, m.watching())
	ready, err = m.wait(0)
	require.NoError(t, err)
	assert.Empty(t, ready)
}

func TestMultiplexer_UnwatchClosedDescriptor(t *testing.T) {
	m := newTestMultiplexer(t)
	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	defer unix.Close(fds[1])

	require.NoError(t, m.watch(fds[0], 1, 1, Read))
	require.NoError(t, unix.Close(fds[0]))
	assert.NoError(t, m.unwatch(fds[0], 1))
	assert.Equal(t, 0, m.watching())
}

func TestMultiplexer_HangupReportsWatchedInterest(t *testing.T) {
	m := newTestMultiplexer(t)
	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	defer unix.Close(fds[0])

	require.NoError(t, m.watch(fds[0], 1, 1, Read))
	require.NoError(t, unix.Close(fds[1]))

	ready, err := m.wait(time.Second)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, Read, ready[0].trigger)
}

func TestMultiplexer_Wakeup(t *testing.T) {
	m := newTestMultiplexer(t)

	done := make(chan []readyEvent, 1)
	go func() {
		ready, err := m.wait(-1)
		assert.NoError(t, err)
		done <- ready
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, m.wakeup())
	require.NoError(t, m.wakeup())

	select {
	case ready := <-done:
		assert.Empty(t, ready)
	case <-time.After(5 * time.Second):
		t.Fatal("wait was not woken")
	}

	// coalesced wakeups were drained
	ready, err := m.wait(10 * time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, ready)
	assert.False(t, m.wakePending.Load())
}

func TestMultiplexer_WatchInvalidDescriptor(t *testing.T) {
	m := newTestMultiplexer(t)
	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	require.NoError(t, unix.Close(fds[0]))
	require.NoError(t, unix.Close(fds[1]))

	err := m.watch(fds[0], 1, 1, Read)
	var mErr *MultiplexerError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "add", mErr.Op)
	assert.Equal(t, 0, m.watching())
}

func TestMultiplexer_Close(t *testing.T) {
	m, err := newMultiplexer(1)
	require.NoError(t, err)
	require.NoError(t, m.close())
	assert.ErrorIs(t, m.close(), ErrContextClosed)
	assert.ErrorIs(t, m.wakeup(), ErrContextClosed)
}

func TestEvent_ArmRollsBackOnBackendFailure(t *testing.T) {
	c := newTestContext(t)
	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	require.NoError(t, unix.Close(fds[0]))
	require.NoError(t, unix.Close(fds[1]))

	ev, err := c.NewEvent(Simple(func(args ...any) error { return nil }), WithFD(fds[0], Read))
	require.NoError(t, err)

	var mErr *MultiplexerError
	require.ErrorAs(t, ev.ArmTimeout(time.Hour), &mErr)
	assert.Equal(t, EventIdle, ev.State())
	assert.Equal(t, 0, c.Pending())
	assert.Equal(t, 0, c.registry.timers.len())
}
