package logbook

import "errors"

// ErrMalformedLine marks a line with no parseable timestamp prefix.
// The query engine skips such lines instead of aborting the scan.
var ErrMalformedLine = errors.New("malformed log line")

// WriteError wraps a filesystem error raised while appending a log line.
// Write failures always propagate to the caller; a log line is never
// silently dropped.
type WriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
