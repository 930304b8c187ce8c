package engine

import (
	"errors"
	"fmt"
)

// Kind classifies report generation failures so callers can branch
// without inspecting error strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindDirectoryNotFound
	KindIOFailure
	KindCanceled
	KindInvalidQuery
)

func (k Kind) String() string {
	switch k {
	case KindDirectoryNotFound:
		return "directory_not_found"
	case KindIOFailure:
		return "io_failure"
	case KindCanceled:
		return "canceled"
	case KindInvalidQuery:
		return "invalid_query"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by the report pipeline.
type Error struct {
	Kind Kind
	Path string // directory or file involved, if any
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsDirectoryNotFound reports whether err means the logs directory is missing.
func IsDirectoryNotFound(err error) bool {
	return KindOf(err) == KindDirectoryNotFound
}

var errNotDirectory = errors.New("not a directory")

func directoryNotFound(path string, err error) error {
	return &Error{Kind: KindDirectoryNotFound, Path: path, Err: err}
}

func ioFailure(path string, err error) error {
	return &Error{Kind: KindIOFailure, Path: path, Err: err}
}

func canceled(err error) error {
	return &Error{Kind: KindCanceled, Err: err}
}

func invalidQuery(err error) error {
	return &Error{Kind: KindInvalidQuery, Err: fmt.Errorf("invalid query: %w", err)}
}
