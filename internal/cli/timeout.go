package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewTimeoutCommand creates the timeout command.
func NewTimeoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "timeout <duration>",
		Short: "Wait for a timeout to fire",
		Long: `Arm a single timeout, then dispatch until it fires.

Example:
  reactor timeout 1.5s`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.ParseDuration(args[0])
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			if d < 0 {
				return fmt.Errorf("invalid duration: %s is negative", d)
			}
			return runTimeout(cmd, rootOpts, d)
		},
	}
}

func runTimeout(cmd *cobra.Command, rootOpts *RootOptions, d time.Duration) error {
	c, _, err := rootOpts.newContext(cmd)
	if err != nil {
		return err
	}

	start := time.Now()
	if _, err := c.OnTimeout(d, func(args ...any) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "timeout %s fired after %s\n", d, time.Since(start).Round(time.Millisecond))
		return err
	}); err != nil {
		_ = c.Close()
		return err
	}

	return dispatch(cmd, c)
}
