package ingest

import (
	"fmt"
	"time"
)

// TimeoutError marks a file whose parse exceeded the per-file budget.
type TimeoutError struct {
	File    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("parse of %s exceeded %s", e.File, e.Timeout)
}

// PanicError wraps a recovered parser panic. The panic is confined to the
// file that caused it.
type PanicError struct {
	File  string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("parser panicked on %s: %v", e.File, e.Value)
}
