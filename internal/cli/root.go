// Package cli implements the reactor command.
package cli

import (
	"context"
	"fmt"

	"github.com/joeycumines/go-reactor"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string

	// Config is resolved from the config file and flags, before any
	// subcommand runs.
	Config Config
}

// NewRootCommand creates the root command for the reactor CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "reactor",
		Short: "Event-notification reactor",
		Long: `Run callbacks on timeouts, signals, and file descriptor readiness,
dispatched by a single event loop (epoll on Linux, kqueue on Darwin).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := DefaultConfig()
			if opts.ConfigPath != "" {
				loaded, err := LoadConfig(opts.ConfigPath)
				if err != nil {
					return err
				}
				cfg = *loaded
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = opts.LogLevel
			}
			if _, err := parseLevel(cfg.LogLevel); err != nil {
				return err
			}
			opts.Config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", defaultLogLevel, "log level (disabled|emerg|alert|crit|err|warning|notice|info|debug|trace)")

	cmd.AddCommand(NewTimeoutCommand(opts))
	cmd.AddCommand(NewSignalCommand(opts))
	cmd.AddCommand(NewPipeCommand(opts))
	cmd.AddCommand(NewWatchStdinCommand(opts))

	return cmd
}

// newLogger builds a JSON logger, writing to the command's error output.
func (x *RootOptions) newLogger(cmd *cobra.Command) (*logiface.Logger[logiface.Event], error) {
	level, err := parseLevel(x.Config.LogLevel)
	if err != nil {
		return nil, err
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(cmd.ErrOrStderr())),
		stumpy.L.WithLevel(level),
	).Logger(), nil
}

// newContext creates a reactor context configured by the resolved options.
func (x *RootOptions) newContext(cmd *cobra.Command) (*reactor.Context, *logiface.Logger[logiface.Event], error) {
	logger, err := x.newLogger(cmd)
	if err != nil {
		return nil, nil, err
	}
	c, err := reactor.New(
		reactor.WithLogger(logger),
		reactor.WithPollBufferSize(x.Config.PollBufferSize),
		reactor.WithSignalBatchSize(x.Config.SignalBatchSize),
	)
	if err != nil {
		return nil, nil, err
	}
	return c, logger, nil
}

// dispatch runs c until it stops, or the command's context is done, then
// closes it.
func dispatch(cmd *cobra.Command, c *reactor.Context) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	err := c.Dispatch(ctx)
	if closeErr := c.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close: %w", closeErr)
	}
	return err
}

// parseLevel parses a logiface level by name.
func parseLevel(name string) (logiface.Level, error) {
	for level := logiface.LevelDisabled; level <= logiface.LevelTrace; level++ {
		if level.String() == name {
			return level, nil
		}
	}
	return 0, fmt.Errorf("invalid log level %q", name)
}
