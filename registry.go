package reactor

import (
	"time"
)

// registry owns the armed events of a Context, and composes the structures
// that watch for them: the timer queue, the signal bridge, and the
// multiplexer's watch set.
type registry struct {
	armed   map[EventID]*Event
	timers  *timerQueue
	signals *signalBridge
	mux     *multiplexer
	logger  *contextLogger
}

func newRegistry(mux *multiplexer, signals *signalBridge, logger *contextLogger) *registry {
	return &registry{
		armed:   make(map[EventID]*Event),
		timers:  newTimerQueue(),
		signals: signals,
		mux:     mux,
		logger:  logger,
	}
}

// add arms ev, with a deadline of now plus timeout if hasTimeout is set.
// A failure rolls back any partial registration, leaving ev unchanged.
func (r *registry) add(ev *Event, hasTimeout bool, timeout time.Duration) error {
	if err := ev.checkArm(`arm`); err != nil {
		return err
	}

	ev.armGen++

	if ev.interest&ioInterest != 0 {
		if err := r.mux.watch(ev.fd, ev.id, ev.armGen, ev.interest); err != nil {
			return err
		}
	}

	if ev.interest&Signal != 0 {
		if err := r.signals.subscribe(ev.sig, ev.id); err != nil {
			if ev.interest&ioInterest != 0 {
				_ = r.mux.unwatch(ev.fd, ev.id)
			}
			return err
		}
	}

	if hasTimeout {
		ev.deadline = time.Now().Add(timeout)
		ev.hasDeadline = true
		r.timers.insert(ev.id, ev.deadline)
	} else {
		ev.deadline = time.Time{}
		ev.hasDeadline = false
	}

	r.armed[ev.id] = ev
	ev.state = EventArmed
	return nil
}

// disarm removes ev from every structure it occupies, without changing its
// state.
func (r *registry) disarm(ev *Event) {
	if _, ok := r.armed[ev.id]; !ok {
		return
	}
	delete(r.armed, ev.id)

	if ev.hasDeadline {
		r.timers.remove(ev.id)
		ev.hasDeadline = false
		ev.deadline = time.Time{}
	}

	if ev.interest&Signal != 0 {
		r.signals.unsubscribe(ev.sig, ev.id)
	}

	if ev.interest&ioInterest != 0 {
		if err := r.mux.unwatch(ev.fd, ev.id); err != nil {
			r.logger.unwatchFailed(ev, err)
		}
	}
}

// fire disarms ev, and marks it as firing.
func (r *registry) fire(ev *Event) {
	r.disarm(ev)
	ev.state = EventFiring
}

// delete disarms ev, and marks it as deleted. Idempotent.
func (r *registry) delete(ev *Event) {
	if ev.state == EventDeleted {
		return
	}
	r.disarm(ev)
	ev.state = EventDeleted
}

// lookup returns the armed event with the given id, if it was armed with
// the given generation. A zero generation matches any.
func (r *registry) lookup(id EventID, gen uint64) *Event {
	ev := r.armed[id]
	if ev == nil || ev.state != EventArmed || (gen != 0 && ev.armGen != gen) {
		return nil
	}
	return ev
}

// isEmpty reports whether no events are armed.
func (r *registry) isEmpty() bool {
	return len(r.armed) == 0
}

func (r *registry) len() int {
	return len(r.armed)
}

// reset deletes every armed event.
func (r *registry) reset() {
	for _, ev := range r.armed {
		ev.state = EventDeleted
		ev.hasDeadline = false
		ev.deadline = time.Time{}
	}
	clear(r.armed)
	r.timers.reset()
	r.signals.reset()
	r.mux.reset()
}
