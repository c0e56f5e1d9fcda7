// Package resilience provides the shared failure taxonomy and the
// retry, circuit breaker, and rate limiting primitives built on it.
package resilience

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so that retry and breaker logic can decide
// whether the operation is worth attempting again.
type Kind uint8

const (
	// KindUnknown is the zero value for unclassified errors.
	KindUnknown Kind = iota
	// KindTransientNetwork marks connectivity problems expected to heal on their own.
	KindTransientNetwork
	// KindDataUnavailable marks upstream data that is temporarily missing or stale.
	KindDataUnavailable
	// KindValidation marks malformed input or responses. Retrying cannot help.
	KindValidation
	// KindFatal marks unrecoverable conditions that must stop the operation.
	KindFatal
)

// String returns a human-readable label for the kind.
func (k Kind) String() string {
	switch k {
	case KindTransientNetwork:
		return "transient_network"
	case KindDataUnavailable:
		return "data_unavailable"
	case KindValidation:
		return "validation"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Retryable reports whether failures of this kind may succeed on a later
// attempt. Data unavailability is not retried: the source answered, it just
// had nothing meaningful, so callers degrade the field to its default.
func (k Kind) Retryable() bool {
	return k == KindTransientNetwork
}

// Failure wraps an error with its classification and the operation that produced it.
type Failure struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Op == "" {
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
}

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Transient wraps err as a transient network failure.
func Transient(op string, err error) error {
	return &Failure{Kind: KindTransientNetwork, Op: op, Err: err}
}

// DataUnavailable wraps err as a temporarily-missing-data failure.
func DataUnavailable(op string, err error) error {
	return &Failure{Kind: KindDataUnavailable, Op: op, Err: err}
}

// Validation wraps err as a non-retryable validation failure.
func Validation(op string, err error) error {
	return &Failure{Kind: KindValidation, Op: op, Err: err}
}

// Fatal wraps err as an unrecoverable failure.
func Fatal(op string, err error) error {
	return &Failure{Kind: KindFatal, Op: op, Err: err}
}

// KindOf extracts the classification from err, walking the wrap chain.
// Unclassified errors report KindUnknown.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}
