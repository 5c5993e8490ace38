package reactor

// Callback is the function invoked when an [Event] fires, in one of two
// calling conventions, see [Simple] and [Full]. The zero value is invalid.
type Callback struct {
	simple func(args ...any) error
	full   func(ev *Event, handle int, trigger Interest, args ...any) error
}

// Simple builds a [Callback] that receives only the event's bound arguments.
func Simple(fn func(args ...any) error) Callback {
	return Callback{simple: fn}
}

// Full builds a [Callback] that receives the event, the watched descriptor
// or signal number (-1 for pure timers), the triggering interest, then the
// event's bound arguments.
func Full(fn func(ev *Event, handle int, trigger Interest, args ...any) error) Callback {
	return Callback{full: fn}
}

// valid reports whether exactly one calling convention is set.
func (c Callback) valid() bool {
	return (c.simple == nil) != (c.full == nil)
}

// invoke runs the event's callback once, to completion, converting a
// returned error or a panic into a *CallbackFailure.
func invoke(ev *Event, trigger Interest) (failure *CallbackFailure) {
	defer func() {
		if r := recover(); r != nil {
			failure = &CallbackFailure{
				ID:      ev.id,
				Trigger: trigger,
				Err:     PanicError{Value: r},
			}
		}
	}()

	var err error
	if ev.cb.simple != nil {
		err = ev.cb.simple(ev.args...)
	} else {
		err = ev.cb.full(ev, ev.handle(), trigger, ev.args...)
	}
	if err != nil {
		return &CallbackFailure{
			ID:      ev.id,
			Trigger: trigger,
			Err:     err,
		}
	}
	return nil
}
