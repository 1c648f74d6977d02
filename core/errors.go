package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig reports bad structural parameters or reconstructed state.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrConfigMismatch reports a combine between incompatible containers.
	ErrConfigMismatch = errors.New("configuration mismatch")
	// ErrNoFillRule reports a fill on a container without quantity or selection.
	ErrNoFillRule = errors.New("no fill rule")
	// ErrInvalidQuantity reports a quantity value of an unsupported shape.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrDocumentFormat reports a malformed document.
	ErrDocumentFormat = errors.New("document format error")
)

// DocumentError is returned by every decoder. Path names the offending field
// relative to the document root, e.g. "data.bins[2].data".
type DocumentError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DocumentError) Error() string {
	path := e.Path
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("%s at %s: %s", ErrDocumentFormat, path, e.Reason)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

func (e *DocumentError) Is(target error) bool {
	return target == ErrDocumentFormat
}

func docErr(path string, format string, args ...interface{}) error {
	return &DocumentError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

func wrapDocErr(path string, err error) error {
	var target *DocumentError
	if errors.As(err, &target) {
		return err
	}
	return &DocumentError{Path: path, Reason: err.Error(), Err: err}
}

func mismatch(name string, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrConfigMismatch, name, fmt.Sprintf(format, args...))
}

func invalidConfig(name string, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, name, fmt.Sprintf(format, args...))
}

func noFillRule(name string) error {
	return fmt.Errorf("%w: %s has no quantity or selection bound", ErrNoFillRule, name)
}

func checkEntries(name string, entries float64) error {
	if entries < 0 || entries != entries {
		return invalidConfig(name, "entries must be non-negative, got %v", entries)
	}
	return nil
}
