package framework

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedSyntax = errors.New("unsupported syntax")
	ErrMalformedInput    = errors.New("malformed input")
	ErrEmptyToolOutput   = errors.New("empty output")
	ErrProcessTimeout    = errors.New("process timeout")
	ErrToolInvocation    = errors.New("tool invocation failed")
	ErrNoBackingFile     = errors.New("no backing file")
)

// ExitError reports a formatter that exited with a non-zero status.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + FirstLine(s)
	}
	return msg
}

// Unwrap lets errors.Is match ErrToolInvocation.
func (e *ExitError) Unwrap() error { return ErrToolInvocation }

// FirstLine returns s up to the first newline.
func FirstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
