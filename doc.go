// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package reactor implements an event-notification reactor: callbacks are
// registered against file descriptor readiness, process signals, or
// deadlines, and a single cooperative loop blocks until one of those
// conditions holds, then invokes the matching callbacks.
//
// # Architecture
//
// A [Context] owns every registered [Event], along with:
//   - a timer queue, ordered by deadline, then by arm order
//   - a signal bridge, relaying [os/signal] deliveries into the loop
//   - a multiplexer (epoll on Linux, kqueue on Darwin), with a wake descriptor
//
// [Context.Dispatch] runs the loop. Each iteration fires due timers, then
// pending signals, then blocks in the multiplexer and fires ready
// descriptors. Dispatch returns once no armed events remain, after
// [Context.Abort], or after the first callback failure.
//
// # Callbacks
//
// Each event carries a [Callback], built with either [Simple] (bound
// arguments only) or [Full] (event, handle, trigger, bound arguments). A
// callback fails by returning a non-nil error or by panicking. The first
// failure stops the loop, and is returned by Dispatch as a [*CallbackFailure].
//
// Events are one-shot: firing disarms them. A callback may re-arm or delete
// its own event, or any other event, and may call [Context.Abort].
//
// # Thread Safety
//
// Callbacks run serially, on the goroutine that called Dispatch. Only
// [Context.Abort] may be called concurrently with a running dispatch. Other
// goroutines continue to run while the loop is blocked.
//
// # Usage
//
//	c, err := reactor.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	if _, err := c.OnTimeout(time.Second, func(args ...any) error {
//	    fmt.Println("one second later")
//	    return nil
//	}); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := c.Dispatch(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// The package level functions ([Init], [Dispatch], [Abort], [OnTimeout], etc)
// operate on a process-wide default context.
package reactor
