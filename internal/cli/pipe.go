package cli

import (
	"fmt"
	"os"

	"github.com/joeycumines/go-reactor"
	"github.com/spf13/cobra"
)

// NewPipeCommand creates the pipe command.
func NewPipeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pipe <message>",
		Short: "Send a message through a pipe",
		Long: `Create a pipe, write the message once the write end is writable, and
read it back once the read end is readable, all on one event loop.

Example:
  reactor pipe "hello world"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipe(cmd, rootOpts, []byte(args[0]))
		},
	}
}

func runPipe(cmd *cobra.Command, rootOpts *RootOptions, message []byte) error {
	r, w, err := os.Pipe()
	if err != nil {
		return err
	}
	defer r.Close()
	defer w.Close()

	c, logger, err := rootOpts.newContext(cmd)
	if err != nil {
		return err
	}

	var written int
	writer, err := c.NewEvent(reactor.Full(func(ev *reactor.Event, fd int, trigger reactor.Interest, args ...any) error {
		n, err := w.Write(message[written:])
		written += n
		if err != nil {
			return err
		}
		logger.Debug().
			Int(`fd`, fd).
			Int(`bytes`, n).
			Log(`wrote to pipe`)
		if written < len(message) {
			return ev.Arm()
		}
		return nil
	}), reactor.WithFD(int(w.Fd()), reactor.Write))
	if err != nil {
		_ = c.Close()
		return err
	}

	received := make([]byte, 0, len(message))
	buf := make([]byte, 4096)
	reader, err := c.NewEvent(reactor.Full(func(ev *reactor.Event, fd int, trigger reactor.Interest, args ...any) error {
		n, err := r.Read(buf)
		if err != nil {
			return err
		}
		received = append(received, buf[:n]...)
		if len(received) < len(message) {
			return ev.Arm()
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "received %q\n", received)
		return err
	}), reactor.WithFD(int(r.Fd()), reactor.Read))
	if err != nil {
		_ = c.Close()
		return err
	}

	if len(message) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), `received ""`)
		_ = c.Close()
		return err
	}

	for _, ev := range []*reactor.Event{reader, writer} {
		if err := ev.Arm(); err != nil {
			_ = c.Close()
			return err
		}
	}

	return dispatch(cmd, c)
}
