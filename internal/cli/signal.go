package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// SignalOptions holds flags for the signal command.
type SignalOptions struct {
	*RootOptions
	After time.Duration
}

// NewSignalCommand creates the signal command.
func NewSignalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SignalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "signal <name>",
		Short: "Wait for a process signal",
		Long: `Arm a single signal event, then dispatch until the signal is delivered.

With --after, the process sends the signal to itself once the duration has
elapsed, using a timeout on the same loop.

Example:
  reactor signal SIGUSR1 --after 100ms
  reactor signal HUP`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := parseSignal(args[0])
			if err != nil {
				return err
			}
			return runSignal(cmd, opts, sig)
		},
	}

	cmd.Flags().DurationVar(&opts.After, "after", 0, "send the signal to this process after the duration (0 to wait for an external signal)")

	return cmd
}

func runSignal(cmd *cobra.Command, opts *SignalOptions, sig syscall.Signal) error {
	c, logger, err := opts.newContext(cmd)
	if err != nil {
		return err
	}

	if _, err := c.OnSignal(int(sig), func(args ...any) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "received %s\n", signalName(sig))
		return err
	}); err != nil {
		_ = c.Close()
		return err
	}

	if opts.After > 0 {
		if _, err := c.OnTimeout(opts.After, func(args ...any) error {
			logger.Info().
				Int(`signal`, int(sig)).
				Log(`raising signal`)
			p, err := os.FindProcess(os.Getpid())
			if err != nil {
				return err
			}
			return p.Signal(sig)
		}); err != nil {
			_ = c.Close()
			return err
		}
	}

	return dispatch(cmd, c)
}

// parseSignal accepts a signal name, with or without the SIG prefix, or a
// signal number.
func parseSignal(s string) (syscall.Signal, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("invalid signal %q", s)
		}
		return syscall.Signal(n), nil
	}
	name := strings.ToUpper(s)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	if sig := signalNum(name); sig != 0 {
		return sig, nil
	}
	return 0, fmt.Errorf("unknown signal %q", s)
}
