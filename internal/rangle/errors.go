package rangle

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPath indicates a timestamp path with more than two segments
	ErrUnsupportedPath = errors.New("unsupported path")

	// ErrMalformedRange indicates a range string that does not match "<from>-<to>[:<num>]"
	ErrMalformedRange = errors.New("malformed range")

	// ErrInvalidOptions indicates an Options value outside its allowed domain
	ErrInvalidOptions = errors.New("invalid options")
)

// UnsupportedPathError is returned when a field path cannot be resolved cheaply
type UnsupportedPathError struct {
	Path         string
	EmptySegment bool // path is empty or has an empty segment such as "a."
}

func (e *UnsupportedPathError) Error() string {
	switch {
	case e.Path == "":
		return "Doesn't support empty paths"
	case e.EmptySegment:
		return fmt.Sprintf("Doesn't support empty path segments in %q", e.Path)
	}
	return "Doesn't support paths with more than 1 ."
}

func (e *UnsupportedPathError) Unwrap() error { return ErrUnsupportedPath }

// MalformedRangeError names the offending range string
type MalformedRangeError struct {
	Range  string
	Reason string
}

func (e *MalformedRangeError) Error() string {
	return fmt.Sprintf("malformed range %q: %s", e.Range, e.Reason)
}

func (e *MalformedRangeError) Unwrap() error { return ErrMalformedRange }

func malformed(r, reason string) error {
	return &MalformedRangeError{Range: r, Reason: reason}
}
