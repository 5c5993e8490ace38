// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package reactor

import (
	"sync/atomic"
)

var contextIDCounter atomic.Uint64

// Context is a dispatch context: it owns a set of events, and runs the loop
// that waits for and fires them. A Context may be dispatched any number of
// times, sequentially, until it is closed.
//
// Only [Context.Abort] and [Context.State] are safe to call concurrently
// with a running dispatch. All other methods must be called from within a
// callback, or while no dispatch is running.
type Context struct { // betteralign:ignore
	registry *registry
	mux      *multiplexer
	signals  *signalBridge
	logger   *contextLogger

	// failure is the first unhandled callback failure of the current dispatch
	failure *CallbackFailure

	// carried are signal subscribers not yet reached when a dispatch stopped
	carried []EventID

	id          uint64
	nextEventID EventID

	state dispatchState
	abort atomic.Bool

	lastStop StopReason
	closed   bool
}

// New creates a new [Context], allocating the multiplexer and its wake
// descriptor. Returns [ErrUnsupportedPlatform] where no multiplexer backend
// exists.
func New(opts ...Option) (*Context, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	mux, err := newMultiplexer(cfg.pollBufferSize)
	if err != nil {
		return nil, err
	}

	c := &Context{
		mux: mux,
		id:  contextIDCounter.Add(1),
	}
	c.logger = newContextLogger(cfg.logger, c.id)
	c.signals = newSignalBridge(cfg.signalBatchSize, func() { _ = mux.wakeup() })
	c.registry = newRegistry(mux, c.signals, c.logger)

	return c, nil
}

// ID returns a process-unique identifier for the context, as used in logs.
func (c *Context) ID() uint64 {
	return c.id
}

// State returns the current dispatch state. Safe for concurrent use.
func (c *Context) State() DispatchState {
	return c.state.Load()
}

// LastStop returns the reason the most recent dispatch stopped.
func (c *Context) LastStop() StopReason {
	return c.lastStop
}

// Pending returns the number of armed events.
func (c *Context) Pending() int {
	return c.registry.len()
}

// Reset deletes every armed event, and clears any pending abort.
func (c *Context) Reset() error {
	if c.state.Load() != DispatchIdle {
		return ErrDispatchRunning
	}
	if c.closed {
		return ErrContextClosed
	}
	c.registry.reset()
	c.abort.Store(false)
	c.failure = nil
	c.carried = nil
	return nil
}

// Close deletes every armed event, and releases the multiplexer, the wake
// descriptor, and any captured signals. Fails with [ErrDispatchRunning]
// during a dispatch, and [ErrContextClosed] if already closed.
func (c *Context) Close() error {
	if c.state.Load() != DispatchIdle {
		return ErrDispatchRunning
	}
	if c.closed {
		return ErrContextClosed
	}
	c.closed = true
	c.carried = nil
	c.registry.reset()
	c.signals.close()
	return c.mux.close()
}
