package reactor

import (
	"fmt"
	"time"
)

// EventID identifies an [Event] within its [Context]. IDs are assigned at
// construction, and are never reused.
type EventID uint64

// Event is a registration of interest in a timeout, a file descriptor, or a
// process signal, paired with a callback.
//
// Events are one-shot: each time the event fires it is disarmed before its
// callback is invoked, and it must be re-armed (e.g. from the callback) to
// fire again.
//
// Methods must be called from the goroutine running [Context.Dispatch], or
// while no dispatch is running.
type Event struct {
	deadline    time.Time
	ctx         *Context
	cb          Callback
	args        []any
	id          EventID
	armGen      uint64
	fd          int
	sig         int
	interest    Interest
	state       EventState
	hasDeadline bool
	oneShot     bool
}

// NewEvent constructs an idle [Event]. Without [WithFD] or [WithSignal], the
// event is a pure timer, and must be armed using [Event.ArmTimeout].
func (c *Context) NewEvent(cb Callback, opts ...EventOption) (*Event, error) {
	if !cb.valid() {
		return nil, fmt.Errorf("%w: callback is required", ErrInvalidEvent)
	}
	if c.closed {
		return nil, ErrContextClosed
	}
	cfg, err := resolveEventOptions(opts)
	if err != nil {
		return nil, err
	}
	c.nextEventID++
	return &Event{
		ctx:      c,
		cb:       cb,
		args:     cfg.args,
		id:       c.nextEventID,
		fd:       cfg.fd,
		sig:      cfg.sig,
		interest: cfg.interest,
	}, nil
}

// ID returns the event's identifier.
func (e *Event) ID() EventID {
	return e.id
}

// Context returns the context the event belongs to.
func (e *Event) Context() *Context {
	return e.ctx
}

// State returns the event's current lifecycle state.
func (e *Event) State() EventState {
	return e.state
}

// Pending returns the conditions the event is currently armed for, and its
// deadline, if [Timeout] is among them. Returns 0 if the event is not armed.
func (e *Event) Pending() (Interest, time.Time) {
	if e.state != EventArmed {
		return 0, time.Time{}
	}
	pending := e.interest &^ Timeout
	if e.hasDeadline {
		return pending | Timeout, e.deadline
	}
	return pending, time.Time{}
}

// Arm registers the event without a timeout. Fails with [ErrInvalidEvent]
// for pure timers, which could never fire.
func (e *Event) Arm() error {
	if e.interest&(ioInterest|Signal) == 0 {
		if err := e.checkArm(`arm`); err != nil {
			return err
		}
		return fmt.Errorf("%w: event %d has nothing to wait for without a timeout", ErrInvalidEvent, e.id)
	}
	return e.ctx.registry.add(e, false, 0)
}

// ArmTimeout registers the event with a deadline of now plus d. A negative d
// is treated as zero, i.e. the event fires on the next loop iteration.
func (e *Event) ArmTimeout(d time.Duration) error {
	if d < 0 {
		d = 0
	}
	return e.ctx.registry.add(e, true, d)
}

// Delete disarms the event, and prevents it from being armed again. It is
// idempotent, and safe to call from any callback, including the event's own.
func (e *Event) Delete() {
	e.ctx.registry.delete(e)
}

func (e *Event) checkArm(op string) error {
	if e.ctx.closed {
		return ErrContextClosed
	}
	switch e.state {
	case EventIdle, EventFiring:
		return nil
	default:
		return &EventStateError{Op: op, ID: e.id, State: e.state}
	}
}

// handle returns the descriptor or signal number, or -1 for pure timers.
func (e *Event) handle() int {
	switch {
	case e.fd >= 0:
		return e.fd
	case e.sig > 0:
		return e.sig
	default:
		return -1
	}
}

// String returns a human-readable description of the event.
func (e *Event) String() string {
	return fmt.Sprintf("reactor.Event{id=%d interest=%s handle=%d state=%s}", e.id, e.interest, e.handle(), e.state)
}

// OnTimeout builds and arms a one-shot event, invoking fn with args once d
// has elapsed. The event is deleted after it fires, unless re-armed by fn.
func (c *Context) OnTimeout(d time.Duration, fn func(args ...any) error, args ...any) (*Event, error) {
	return c.oneShot(fn, args, true, d)
}

// OnReadable builds and arms a one-shot event, invoking fn with args once fd
// is readable.
func (c *Context) OnReadable(fd int, fn func(args ...any) error, args ...any) (*Event, error) {
	return c.oneShot(fn, args, false, 0, WithFD(fd, Read))
}

// OnWritable builds and arms a one-shot event, invoking fn with args once fd
// is writable.
func (c *Context) OnWritable(fd int, fn func(args ...any) error, args ...any) (*Event, error) {
	return c.oneShot(fn, args, false, 0, WithFD(fd, Write))
}

// OnSignal builds and arms a one-shot event, invoking fn with args once sig
// is delivered.
func (c *Context) OnSignal(sig int, fn func(args ...any) error, args ...any) (*Event, error) {
	return c.oneShot(fn, args, false, 0, WithSignal(sig))
}

func (c *Context) oneShot(fn func(args ...any) error, args []any, timeout bool, d time.Duration, opts ...EventOption) (*Event, error) {
	ev, err := c.NewEvent(Simple(fn), append(opts, WithArgs(args...))...)
	if err != nil {
		return nil, err
	}
	ev.oneShot = true
	if timeout {
		err = ev.ArmTimeout(d)
	} else {
		err = ev.Arm()
	}
	if err != nil {
		ev.Delete()
		return nil, err
	}
	return ev, nil
}
