package parser

import (
	"fmt"
)

// ParseError describes why a single result file could not be parsed.
type ParseError struct {
	File   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.File, e.Reason)
}

func newParseError(file, format string, args ...any) *ParseError {
	return &ParseError{File: file, Reason: fmt.Sprintf(format, args...)}
}
