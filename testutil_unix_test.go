//go:build linux || darwin

package reactor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// newTestContext creates a Context that is closed on test cleanup.
func newTestContext(t *testing.T, opts ...Option) *Context {
	t.Helper()
	c, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := c.Close(); err != nil && !errors.Is(err, ErrContextClosed) {
			t.Errorf("close failed: %v", err)
		}
	})
	return c
}

// newTestPipe returns a non-blocking pipe, closed on test cleanup.
func newTestPipe(t *testing.T) (r, w int) {
	t.Helper()
	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	for _, fd := range fds {
		require.NoError(t, unix.SetNonblock(fd, true))
	}
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

// testDispatch runs c.Dispatch, bounded by a generous timeout, so a hung
// loop fails the test rather than blocking it forever.
func testDispatch(t *testing.T, c *Context) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := c.Dispatch(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "dispatch did not stop")
	return err
}

func raise(t *testing.T, sig unix.Signal) {
	t.Helper()
	require.NoError(t, unix.Kill(unix.Getpid(), sig))
}
