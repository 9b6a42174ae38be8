// Package errors defines the small taxonomy of error kinds the core
// exposes to its callers. Everything else is wrapped with fmt.Errorf
// or github.com/pkg/errors and never needs to be distinguished by the
// adapter layer.
package errors

import "fmt"

// Kind classifies a Error for callers that need to branch on it (e.g.
// the HTTP adapter translating NotFound to a 404).
type Kind int

const (
	// Unknown is the zero value; never returned by this package.
	Unknown Kind = iota
	// NotFound means a referenced stop is unknown, or a query produced
	// no usable results (e.g. no itineraries).
	NotFound
	// InvalidInput means malformed coordinates, out-of-range options,
	// or non-positive radii.
	InvalidInput
	// TransientUpstream means a realtime or walk-directions fetch
	// failed. Callers of this package's public API should never see
	// this value: components that can fail this way degrade instead
	// of propagating the error (see spec §7).
	TransientUpstream
	// ConfigError means required GTFS files were missing or malformed
	// at startup. Fatal.
	ConfigError
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not-found"
	case InvalidInput:
		return "invalid-input"
	case TransientUpstream:
		return "transient-upstream"
	case ConfigError:
		return "config-error"
	default:
		return "unknown"
	}
}

// Error is a typed error carrying a Kind alongside the usual message
// and wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error of the given kind. *Error has no Is method, so
// callers branch on the kind with KindOf rather than errors.Is.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func NotFoundf(format string, args ...any) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}

func InvalidInputf(format string, args ...any) *Error {
	return New(InvalidInput, fmt.Sprintf(format, args...))
}

func ConfigErrorf(format string, args ...any) *Error {
	return New(ConfigError, fmt.Sprintf(format, args...))
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and
// Unknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if as(err, &e) {
		return e.Kind
	}
	return Unknown
}

// as is a tiny local shim so this package doesn't need to import the
// stdlib "errors" package under the same name as itself.
func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
