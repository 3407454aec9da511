package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
)

// PanicError is an error created from a recovered panic. It keeps the
// original panic value and the goroutine stack at the point of recovery.
type PanicError struct {
	PanicValue interface{}
	StackTrace string
	Operation  string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("gdreg: panic in %s: %v", e.Operation, e.PanicValue)
}

// String includes the captured stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("%s\nStack trace:\n%s", e.Error(), e.StackTrace)
}

// NewPanicError creates a PanicError for operation with the current stack.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover converts a panic in the calling function into an error. It must be
// deferred directly with a pointer to the named error result:
//
//	func (r *GDRegressor) Fit(X, y mat.Matrix) (err error) {
//	    defer errors.Recover(&err, "GDRegressor.Fit")
//	    ...
//	}
//
// When err already holds an error, the panic is recorded as a wrapper around
// it so errors.Is still matches the original.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	panicErr := NewPanicError(operation, r)
	if *err != nil {
		*err = errors.Wrapf(*err, "panic in %s: %v", operation, r)
		return
	}
	*err = panicErr
}
