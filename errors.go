// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package reactor

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrEventState is matched (via [errors.Is]) by every [*EventStateError].
	ErrEventState = errors.New("reactor: invalid event state")

	// ErrContextClosed is returned when operations are attempted on a closed context.
	ErrContextClosed = errors.New("reactor: context closed")

	// ErrDispatchRunning is returned by Dispatch, Reset, or Close while a
	// dispatch is in progress, including from within a callback.
	ErrDispatchRunning = errors.New("reactor: dispatch is already running")

	// ErrInvalidEvent is returned for events that could never fire, or that
	// combine incompatible resources.
	ErrInvalidEvent = errors.New("reactor: invalid event")

	// ErrUnsupportedPlatform is returned by [New] on platforms without a
	// multiplexer backend.
	ErrUnsupportedPlatform = errors.New("reactor: platform not supported")

	// ErrSignalOutOfRange is returned for signals that cannot be watched.
	ErrSignalOutOfRange = errors.New("reactor: signal out of range")
)

// EventStateError reports an invalid event state transition, e.g. arming an
// event that is already armed, or that has been deleted.
type EventStateError struct {
	Op    string
	ID    EventID
	State EventState
}

// Error implements the error interface.
func (e *EventStateError) Error() string {
	return fmt.Sprintf("reactor: cannot %s event %d: event is %s", e.Op, e.ID, e.State)
}

// Is allows matching against [ErrEventState].
func (e *EventStateError) Is(target error) bool {
	return target == ErrEventState
}

// MultiplexerError reports a failure of the underlying blocking-wait
// primitive, at the OS level. It is fatal to the dispatch that encountered it.
type MultiplexerError struct {
	Err error
	Op  string
}

// Error implements the error interface.
func (e *MultiplexerError) Error() string {
	return fmt.Sprintf("reactor: multiplexer %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying OS error.
func (e *MultiplexerError) Unwrap() error {
	return e.Err
}

// CallbackFailure wraps an unhandled failure from a callback: either the
// error it returned, or a [PanicError].
type CallbackFailure struct {
	Err     error
	ID      EventID
	Trigger Interest
}

// Error implements the error interface.
func (e *CallbackFailure) Error() string {
	return fmt.Sprintf("reactor: event %d callback failed on %s: %v", e.ID, e.Trigger, e.Err)
}

// Unwrap returns the error returned by (or recovered from) the callback.
func (e *CallbackFailure) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking callback.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("reactor: callback panicked: %v", e.Value)
}

// Unwrap returns the panic value, if it is an error, enabling use with
// [errors.Is] and [errors.As].
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
