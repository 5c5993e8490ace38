package reactor

import (
	"context"
	"time"
)

// Dispatch runs the loop until no events are armed, [Context.Abort] is
// called, ctx is done, or a callback fails.
//
// Each iteration fires due timers, then delivered signals, then blocks in
// the multiplexer (bounded by the earliest deadline) and fires the events
// whose descriptors are ready. Callbacks run on the calling goroutine.
//
// Returns nil if the loop ran out of events or was aborted, ctx.Err() if
// ctx was done, the first unhandled callback failure as a
// [*CallbackFailure], or a [*MultiplexerError]. Returns
// [ErrDispatchRunning] if a dispatch is already in progress, including if
// called from a callback.
func (c *Context) Dispatch(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if !c.state.TryTransition(DispatchIdle, DispatchRunning) {
		return ErrDispatchRunning
	}
	if c.closed {
		c.state.Store(DispatchIdle)
		return ErrContextClosed
	}

	if done := ctx.Done(); done != nil {
		stopped := make(chan struct{})
		defer close(stopped)
		go func() {
			select {
			case <-done:
				// may land after run returns, costing the next dispatch one empty wait
				_ = c.mux.wakeup()
			case <-stopped:
			}
		}()
	}

	c.logger.dispatchStarted(c.registry.len())

	reason, err := c.run(ctx)

	c.state.Store(DispatchStopped)
	c.lastStop = reason
	c.failure = nil
	c.abort.Store(false)
	c.logger.dispatchStopped(reason, err)
	c.state.Store(DispatchIdle)

	return err
}

// Abort stops the running dispatch after the current callback returns, or
// the next dispatch at its first check point, if none is running. Safe to
// call from any goroutine.
func (c *Context) Abort() {
	c.abort.Store(true)
	if c.state.Load() == DispatchRunning {
		_ = c.mux.wakeup()
	}
}

func (c *Context) run(ctx context.Context) (StopReason, error) {
	for {
		now, seq := time.Now(), c.registry.timers.seq()

		for {
			id, ok := c.registry.timers.popDueBy(now, seq)
			if !ok {
				break
			}
			if ev := c.registry.lookup(id, 0); ev != nil {
				if stop, err := c.fire(ev, Timeout); stop {
					return stopReason(err), err
				}
			}
		}

		if ids := c.carried; len(ids) != 0 {
			c.carried = nil
			if stop, err := c.fireSignal(ids, nil); stop {
				return stopReason(err), err
			}
		}

		sigs := c.signals.drain()
		for i, sig := range sigs {
			ids := c.signals.subscribers(sig)
			if len(ids) == 0 {
				c.logger.signalRace(sig)
				continue
			}
			if stop, err := c.fireSignal(ids, sigs[i+1:]); stop {
				return stopReason(err), err
			}
		}

		if c.registry.isEmpty() || c.abort.Load() {
			return StopNormal, nil
		}
		if err := ctx.Err(); err != nil {
			return StopNormal, err
		}

		timeout := time.Duration(-1)
		if deadline, ok := c.registry.timers.peekEarliest(); ok {
			timeout = max(time.Until(deadline), 0)
		}

		ready, err := c.mux.wait(timeout)
		if err != nil {
			c.logger.multiplexerFailed(err)
			return StopError, err
		}

		for _, r := range ready {
			if ev := c.registry.lookup(r.id, r.gen); ev != nil {
				if stop, err := c.fire(ev, r.trigger); stop {
					return stopReason(err), err
				}
			}
		}
	}
}

// fireSignal delivers one signal to the subscribers ids, in order. If the
// loop must stop, the subscribers not yet reached are carried over to the
// next dispatch, and the signals in rest are marked pending again.
func (c *Context) fireSignal(ids []EventID, rest []int) (bool, error) {
	for j, id := range ids {
		ev := c.registry.lookup(id, 0)
		if ev == nil {
			continue
		}
		if stop, err := c.fire(ev, Signal); stop {
			c.carried = ids[j+1:]
			c.signals.restore(rest)
			return true, err
		}
	}
	return false, nil
}

// fire runs the callback of ev, which must be armed, reporting whether the
// loop must stop.
func (c *Context) fire(ev *Event, trigger Interest) (bool, error) {
	c.registry.fire(ev)

	failure := invoke(ev, trigger)

	if ev.state == EventFiring {
		if ev.oneShot {
			ev.state = EventDeleted
		} else {
			ev.state = EventIdle
		}
	}

	if failure != nil {
		c.logger.callbackFailed(failure)
		if c.failure == nil {
			c.failure = failure
		}
		return true, c.failure
	}

	return c.abort.Load(), nil
}

func stopReason(err error) StopReason {
	if err != nil {
		return StopError
	}
	return StopNormal
}
