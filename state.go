package reactor

import (
	"sync/atomic"
)

// EventState is the lifecycle state of an [Event].
//
//	EventIdle → EventArmed      [Arm, ArmTimeout]
//	EventArmed → EventFiring    [condition met, during Dispatch]
//	EventFiring → EventArmed    [re-armed by a callback]
//	EventFiring → EventIdle     [callback returned, event built by NewEvent]
//	EventFiring → EventDeleted  [callback returned, one-shot event]
//	any → EventDeleted          [Delete]
//	EventDeleted → (terminal)
type EventState uint8

const (
	// EventIdle indicates the event is constructed but not armed.
	EventIdle EventState = iota
	// EventArmed indicates the event is registered for notification.
	EventArmed
	// EventFiring indicates the event's callback is executing.
	EventFiring
	// EventDeleted indicates the event has been deleted, and cannot be re-armed.
	EventDeleted
)

// String returns a human-readable representation of the state.
func (s EventState) String() string {
	switch s {
	case EventIdle:
		return "Idle"
	case EventArmed:
		return "Armed"
	case EventFiring:
		return "Firing"
	case EventDeleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// DispatchState represents the current state of a [Context]'s loop.
//
//	DispatchIdle → DispatchRunning     [Dispatch()]
//	DispatchRunning → DispatchStopped  [loop exit, see StopReason]
//	DispatchStopped → DispatchIdle     [Dispatch() returns]
type DispatchState uint32

const (
	// DispatchIdle indicates no dispatch is in progress.
	DispatchIdle DispatchState = iota
	// DispatchRunning indicates the loop is running.
	DispatchRunning
	// DispatchStopped indicates the loop has exited, and Dispatch is returning.
	DispatchStopped
)

// String returns a human-readable representation of the state.
func (s DispatchState) String() string {
	switch s {
	case DispatchIdle:
		return "Idle"
	case DispatchRunning:
		return "Running"
	case DispatchStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// StopReason records why the most recent dispatch stopped.
type StopReason uint8

const (
	// StopNone indicates no dispatch has completed yet.
	StopNone StopReason = iota
	// StopNormal indicates the loop ran out of events, or was aborted.
	StopNormal
	// StopError indicates the loop stopped on a callback or multiplexer failure.
	StopError
)

// String returns a human-readable representation of the reason.
func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "None"
	case StopNormal:
		return "Normal"
	case StopError:
		return "Error"
	default:
		return "Unknown"
	}
}

// dispatchState is the loop's state machine, readable from any goroutine,
// so Abort can decide whether to wake the multiplexer.
type dispatchState struct {
	v atomic.Uint32
}

func (s *dispatchState) Load() DispatchState {
	return DispatchState(s.v.Load())
}

func (s *dispatchState) Store(state DispatchState) {
	s.v.Store(uint32(state))
}

// TryTransition attempts to atomically transition from one state to another.
func (s *dispatchState) TryTransition(from, to DispatchState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
