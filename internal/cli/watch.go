package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/joeycumines/go-reactor"
	"github.com/spf13/cobra"
)

// WatchStdinOptions holds flags for the watch-stdin command.
type WatchStdinOptions struct {
	*RootOptions
	Idle time.Duration
}

// NewWatchStdinCommand creates the watch-stdin command.
func NewWatchStdinCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchStdinOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch-stdin",
		Short: "Report input as it becomes readable on stdin",
		Long: `Watch standard input for readability, reporting each chunk read, until
end of file, an interrupt, or (with --idle) no input for the given duration.

Example:
  tail -f app.log | reactor watch-stdin --idle 30s`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, ok := cmd.InOrStdin().(*os.File)
			if !ok {
				return errors.New("stdin must be a file")
			}
			return runWatchStdin(cmd, opts, in)
		},
	}

	cmd.Flags().DurationVar(&opts.Idle, "idle", 0, "stop after no input for this duration (0 to wait forever)")

	return cmd
}

func runWatchStdin(cmd *cobra.Command, opts *WatchStdinOptions, in *os.File) error {
	if opts.Idle < 0 {
		return fmt.Errorf("invalid idle duration: %s is negative", opts.Idle)
	}

	c, _, err := opts.newContext(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var (
		interrupt    *reactor.Event
		total, lines int
	)

	arm := func(ev *reactor.Event) error {
		if opts.Idle > 0 {
			return ev.ArmTimeout(opts.Idle)
		}
		return ev.Arm()
	}

	buf := make([]byte, 4096)
	watcher, err := c.NewEvent(reactor.Full(func(ev *reactor.Event, fd int, trigger reactor.Interest, args ...any) error {
		if trigger&reactor.Timeout != 0 {
			interrupt.Delete()
			_, err := fmt.Fprintf(out, "idle for %s after %d bytes, %d lines\n", opts.Idle, total, lines)
			return err
		}

		n, err := in.Read(buf)
		if n > 0 {
			total += n
			lines += bytes.Count(buf[:n], []byte{'\n'})
			if _, err := fmt.Fprintf(out, "read %d bytes\n", n); err != nil {
				return err
			}
		}
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			interrupt.Delete()
			_, err := fmt.Fprintf(out, "eof after %d bytes, %d lines\n", total, lines)
			return err
		}
		if err != nil {
			return err
		}
		return arm(ev)
	}), reactor.WithFD(int(in.Fd()), reactor.Read))
	if err != nil {
		_ = c.Close()
		return err
	}

	interrupt, err = c.OnSignal(int(syscall.SIGINT), func(args ...any) error {
		_, err := fmt.Fprintf(out, "interrupted after %d bytes, %d lines\n", total, lines)
		c.Abort()
		return err
	})
	if err != nil {
		_ = c.Close()
		return err
	}

	if err := arm(watcher); err != nil {
		_ = c.Close()
		return err
	}

	return dispatch(cmd, c)
}
