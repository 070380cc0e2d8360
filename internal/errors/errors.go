// Package errors defines the error taxonomy shared by every gitws component.
//
// Failures are reported as *OperationError values carrying the operation that
// failed, a Kind sentinel from the list below and the underlying cause. Both
// the kind and the cause are reachable through errors.Is / errors.As.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error kinds. Check them with Is.
var (
	ErrUnresolvedReference    = stderrors.New("unresolved reference")
	ErrInvalidIdentitySegment = stderrors.New("invalid identity segment")
	ErrNoMatchingPlatform     = stderrors.New("no matching platform")
	ErrPlatformInit           = stderrors.New("platform initialization failed")
	ErrPlatformAPI            = stderrors.New("platform API error")
	ErrClone                  = stderrors.New("clone failed")
	ErrProfileApply           = stderrors.New("profile apply failed")
	ErrCapabilityNotSupported = stderrors.New("capability not supported")
	ErrDuplicateTarget        = stderrors.New("duplicate target path")
	ErrInvalidConfig          = stderrors.New("invalid configuration")
	ErrTargetExists           = stderrors.New("target path exists and is not empty")
	ErrNotCloned              = stderrors.New("repository is not cloned")
)

// OperationError represents an error that occurred during a gitws operation
type OperationError struct {
	Op   string // The operation being performed
	Kind error  // One of the Err* kinds, may be nil
	Err  error  // The underlying error
}

// Error implements the error interface
func (e *OperationError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	default:
		return e.Op
	}
}

// Unwrap exposes both the kind and the underlying error to errors.Is.
func (e *OperationError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Is implements error matching for OperationError
func (e *OperationError) Is(target error) bool {
	t, ok := target.(*OperationError)
	if !ok {
		return false
	}
	return e.Op == t.Op
}

// New creates a new OperationError without a kind
func New(op string, err error) *OperationError {
	return &OperationError{
		Op:  op,
		Err: err,
	}
}

// E creates an OperationError of the given kind.
func E(kind error, op string, err error) *OperationError {
	return &OperationError{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// Ef is E with a formatted cause.
func Ef(kind error, op string, format string, args ...any) *OperationError {
	return E(kind, op, fmt.Errorf(format, args...))
}

// CapabilityError is returned when a platform does not offer a capability.
type CapabilityError struct {
	Platform   string
	Capability string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("platform %s does not support %s", e.Platform, e.Capability)
}

func (e *CapabilityError) Unwrap() error {
	return ErrCapabilityNotSupported
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Join is errors.Join from the standard library.
func Join(errs ...error) error { return stderrors.Join(errs...) }
