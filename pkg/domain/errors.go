package domain

import (
	"errors"
	"fmt"
)

// ErrGraphSealed is returned when the state graph is modified after the first turn.
var ErrGraphSealed = errors.New("state graph is sealed: declare states before the first turn")

// ErrTransitionLoop is returned when a turn chains more continue transitions than allowed.
var ErrTransitionLoop = errors.New("too many chained transitions")

// ErrNoErrorReply is logged when no error hook produced a reply.
var ErrNoErrorReply = errors.New("no error hook produced a reply")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrMissingView is returned by renderers when a key has no entry for the locale.
var ErrMissingView = errors.New("missing view")

// ConfigurationError reports an invalid application setup. It is fatal at startup.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Reason
}

// UnknownRequestTypeError is returned when no handler chain is registered for a request type.
type UnknownRequestTypeError struct {
	RequestType string
}

func (e *UnknownRequestTypeError) Error() string {
	return fmt.Sprintf("unknown request type %q", e.RequestType)
}

// UnknownStateError is returned when a state name is not part of the graph.
type UnknownStateError struct {
	State string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("unknown state %q", e.State)
}

// UnhandledIntentError is returned when a state has no handler for an intent.
type UnhandledIntentError struct {
	State  string
	Intent string
}

func (e *UnhandledIntentError) Error() string {
	return fmt.Sprintf("state %q has no handler for intent %q", e.State, e.Intent)
}

// InvalidApplicationIDError is returned when the caller is not in the allow-list.
type InvalidApplicationIDError struct {
	ApplicationID string
}

func (e *InvalidApplicationIDError) Error() string {
	return fmt.Sprintf("invalid application id %q", e.ApplicationID)
}

// SessionEndedError wraps an upstream-reported abnormal session end.
type SessionEndedError struct {
	Payload map[string]any
}

func (e *SessionEndedError) Error() string {
	if msg, ok := e.Payload["message"].(string); ok && msg != "" {
		return "session ended with error: " + msg
	}
	return "session ended with error"
}

// PanicError is a recovered panic from a handler or hook.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
