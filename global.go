package reactor

import (
	"context"
	"sync"
	"time"
)

var (
	defaultMu      sync.Mutex
	defaultContext *Context
)

// Init initializes the default context, creating it with opts if it does
// not exist, otherwise resetting it (opts are ignored). Fails with
// [ErrDispatchRunning] if the default context is dispatching.
func Init(opts ...Option) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultContext == nil || defaultContext.closed {
		c, err := New(opts...)
		if err != nil {
			return err
		}
		defaultContext = c
		return nil
	}
	return defaultContext.Reset()
}

// Default returns the default context, creating it if necessary.
func Default() (*Context, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultContext == nil || defaultContext.closed {
		c, err := New()
		if err != nil {
			return nil, err
		}
		defaultContext = c
	}
	return defaultContext, nil
}

// Dispatch runs the default context, see [Context.Dispatch].
func Dispatch(ctx context.Context) error {
	c, err := Default()
	if err != nil {
		return err
	}
	return c.Dispatch(ctx)
}

// Abort aborts the default context, see [Context.Abort]. A no-op if the
// default context has not been created.
func Abort() {
	defaultMu.Lock()
	c := defaultContext
	defaultMu.Unlock()
	if c != nil {
		c.Abort()
	}
}

// NewEvent constructs an event on the default context, see
// [Context.NewEvent].
func NewEvent(cb Callback, opts ...EventOption) (*Event, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.NewEvent(cb, opts...)
}

// OnTimeout arms a one-shot timeout on the default context, see
// [Context.OnTimeout].
func OnTimeout(d time.Duration, fn func(args ...any) error, args ...any) (*Event, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.OnTimeout(d, fn, args...)
}

// OnReadable arms a one-shot read event on the default context, see
// [Context.OnReadable].
func OnReadable(fd int, fn func(args ...any) error, args ...any) (*Event, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.OnReadable(fd, fn, args...)
}

// OnWritable arms a one-shot write event on the default context, see
// [Context.OnWritable].
func OnWritable(fd int, fn func(args ...any) error, args ...any) (*Event, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.OnWritable(fd, fn, args...)
}

// OnSignal arms a one-shot signal event on the default context, see
// [Context.OnSignal].
func OnSignal(sig int, fn func(args ...any) error, args ...any) (*Event, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.OnSignal(sig, fn, args...)
}
