// Package fault holds the error classes used across mbpoll.
// Callers classify with errors.Is against the sentinels.
package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax: malformed range list or numeric literal.
	ErrSyntax = errors.New("syntax error")
	// ErrConfig: value out of bound or incompatible options.
	ErrConfig = errors.New("config error")
	// ErrSetup: transport or session could not be created or connected.
	ErrSetup = errors.New("setup error")
	// ErrRequest: a single read or write failed. Never fatal.
	ErrRequest = errors.New("request error")
	// ErrRange: a value does not fit its target format.
	ErrRange = errors.New("range error")
)

type classified struct {
	class error
	msg   string
	cause error
}

func (e *classified) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *classified) Is(target error) bool { return target == e.class }

func (e *classified) Unwrap() error { return e.cause }

func newf(class error, format string, args ...any) error {
	return &classified{class: class, msg: fmt.Sprintf(format, args...)}
}

func Syntax(format string, args ...any) error { return newf(ErrSyntax, format, args...) }
func Config(format string, args ...any) error { return newf(ErrConfig, format, args...) }
func Range(format string, args ...any) error  { return newf(ErrRange, format, args...) }

// Setup wraps a transport-level cause as a setup failure.
func Setup(cause error, format string, args ...any) error {
	return &classified{class: ErrSetup, msg: fmt.Sprintf(format, args...), cause: cause}
}

// Request wraps a transport-level cause as a per-request failure.
func Request(cause error, format string, args ...any) error {
	return &classified{class: ErrRequest, msg: fmt.Sprintf(format, args...), cause: cause}
}

// Fatal reports whether err must stop the program before or instead of polling.
func Fatal(err error) bool {
	return err != nil && !errors.Is(err, ErrRequest)
}

// NeedsUsage reports whether the diagnostic should point at -h.
func NeedsUsage(err error) bool {
	return errors.Is(err, ErrSyntax) || errors.Is(err, ErrConfig) || errors.Is(err, ErrRange)
}
