// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package reactor

import (
	"fmt"

	"github.com/joeycumines/logiface"
)

const (
	defaultPollBufferSize   = 128
	defaultSignalBatchSize  = 16
	maxPollBufferSize       = 1 << 16
	maxSignalBatchSize      = 1 << 10
	signalChannelBufferSize = 8
)

// contextOptions holds configuration options for Context creation.
type contextOptions struct {
	logger          *logiface.Logger[logiface.Event]
	pollBufferSize  int
	signalBatchSize int
}

// --- Context Options ---

// Option configures a [Context] instance.
type Option interface {
	applyContext(*contextOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyContextFunc func(*contextOptions) error
}

func (o *optionImpl) applyContext(opts *contextOptions) error {
	return o.applyContextFunc(opts)
}

// WithLogger configures structured logging. A nil logger disables logging,
// which is also the default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *contextOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithPollBufferSize sets the number of OS readiness notifications that may
// be received by a single multiplexer wait. Defaults to 128.
func WithPollBufferSize(size int) Option {
	return &optionImpl{func(opts *contextOptions) error {
		if size <= 0 || size > maxPollBufferSize {
			return fmt.Errorf("reactor: poll buffer size %d out of range (1-%d)", size, maxPollBufferSize)
		}
		opts.pollBufferSize = size
		return nil
	}}
}

// WithSignalBatchSize sets the maximum number of signal deliveries relayed
// per wake of the multiplexer. Defaults to 16.
func WithSignalBatchSize(size int) Option {
	return &optionImpl{func(opts *contextOptions) error {
		if size <= 0 || size > maxSignalBatchSize {
			return fmt.Errorf("reactor: signal batch size %d out of range (1-%d)", size, maxSignalBatchSize)
		}
		opts.signalBatchSize = size
		return nil
	}}
}

// resolveOptions applies Option instances to contextOptions.
func resolveOptions(opts []Option) (*contextOptions, error) {
	cfg := &contextOptions{
		pollBufferSize:  defaultPollBufferSize,
		signalBatchSize: defaultSignalBatchSize,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyContext(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// --- Event Options ---

// eventOptions holds the watched resource and bound arguments of an Event.
type eventOptions struct {
	args     []any
	fd       int
	sig      int
	interest Interest
}

// EventOption configures an [Event], see [Context.NewEvent].
type EventOption interface {
	applyEvent(*eventOptions) error
}

type eventOptionImpl struct {
	applyEventFunc func(*eventOptions) error
}

func (o *eventOptionImpl) applyEvent(opts *eventOptions) error {
	return o.applyEventFunc(opts)
}

// WithFD watches a file descriptor for readiness. The interest must be
// [Read], [Write], or both, optionally combined with [Timeout].
func WithFD(fd int, interest Interest) EventOption {
	return &eventOptionImpl{func(opts *eventOptions) error {
		if fd < 0 {
			return fmt.Errorf("%w: negative file descriptor %d", ErrInvalidEvent, fd)
		}
		if interest&ioInterest == 0 || interest&^(ioInterest|Timeout) != 0 {
			return fmt.Errorf("%w: descriptor interest %s", ErrInvalidEvent, interest)
		}
		if opts.interest&Signal != 0 {
			return fmt.Errorf("%w: cannot watch both a descriptor and a signal", ErrInvalidEvent)
		}
		opts.fd = fd
		opts.interest |= interest
		return nil
	}}
}

// WithSignal watches for delivery of a process signal, by number.
func WithSignal(sig int) EventOption {
	return &eventOptionImpl{func(opts *eventOptions) error {
		if sig <= 0 || sig >= maxSignal {
			return fmt.Errorf("%w: %d", ErrSignalOutOfRange, sig)
		}
		if opts.interest&ioInterest != 0 {
			return fmt.Errorf("%w: cannot watch both a descriptor and a signal", ErrInvalidEvent)
		}
		opts.sig = sig
		opts.interest |= Signal
		return nil
	}}
}

// WithArgs binds arguments, passed to the callback on every invocation.
func WithArgs(args ...any) EventOption {
	return &eventOptionImpl{func(opts *eventOptions) error {
		opts.args = args
		return nil
	}}
}

func resolveEventOptions(opts []EventOption) (*eventOptions, error) {
	cfg := &eventOptions{
		fd:  -1,
		sig: -1,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyEvent(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
