package dispatch

import (
	"fmt"
	"runtime/debug"
)

// Stage is the step of request handling an error came from.
type Stage string

const (
	StageBinding    Stage = "binding"
	StageInvocation Stage = "invocation"
	StageAwait      Stage = "await"
	StageEncoding   Stage = "encoding"
)

// InvocationError wraps every error raised while handling one request before
// it is forwarded to the ErrorHandler. The cause stays reachable through
// errors.As, so AppErrors and StatusCode() errors keep their status.
type InvocationError struct {
	Endpoint string // Controller.Method
	Method   string
	Path     string
	Stage    Stage
	Err      error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s %s (%s) failed during %s: %v", e.Method, e.Path, e.Endpoint, e.Stage, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// PanicError is a recovered panic from an endpoint method or a Go future.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
