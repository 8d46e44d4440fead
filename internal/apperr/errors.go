// Package apperr defines the stable error kinds surfaced in tool results.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable machine-readable error tag.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindInvalidRequest         Kind = "invalid_request"
	KindGraphPathNotConfigured Kind = "graph_path_not_configured"
	KindPartialFailure         Kind = "partial_failure"
	KindUpstream               Kind = "upstream_error"
)

// Error carries a kind alongside a human-readable message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two *Error values by kind so sentinel-style checks work:
// errors.Is(err, apperr.NotFound("")) holds for any not_found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NotFound builds a not_found error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// InvalidRequest builds an invalid_request error.
func InvalidRequest(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Msg: fmt.Sprintf(format, args...)}
}

// GraphPathNotConfigured builds a graph_path_not_configured error.
func GraphPathNotConfigured() *Error {
	return &Error{
		Kind: KindGraphPathNotConfigured,
		Msg:  "graph path is not configured; set graph.path in the config file",
	}
}

// Upstream wraps an error reported by the Logseq API.
func Upstream(err error, format string, args ...any) *Error {
	return &Error{Kind: KindUpstream, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err, defaulting to upstream_error for
// anything this package did not tag.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}
