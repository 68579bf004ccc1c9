package rf2

import "fmt"

// FormatError indicates a fatal, load-aborting problem with the shape of an RF2 file:
// the wrong number of header columns, or a header column in the wrong position.
// These never occur mid-file; they are detected from the first line, before any row
// is consumed, per the header-strictness invariant.
type FormatError struct {
	File   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("rf2: format error in %s: %s", e.File, e.Reason)
}

// InvalidHeaderError reports a header with the wrong number of columns.
func InvalidHeaderError(file string, want, got int) error {
	return &FormatError{File: file, Reason: fmt.Sprintf("expected %d columns, got %d", want, got)}
}

// UnexpectedColumnError reports a header column name mismatch at a specific position.
func UnexpectedColumnError(file string, pos int, want, got string) error {
	return &FormatError{File: file, Reason: fmt.Sprintf("column %d: expected %q, got %q", pos, want, got)}
}

// ConfigError indicates a problem with the inputs to discovery or parsing themselves,
// rather than with the content of a file: a missing directory, a missing required file.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "rf2: " + e.Reason
}

// RequiredFileMissing reports that discovery could not find one of the mandatory
// RF2 file categories (concept, description, relationship) under the release root.
func RequiredFileMissing(kind string) error {
	return &ConfigError{Reason: fmt.Sprintf("required file missing: %s", kind)}
}

// DecodeError wraps a single row's decode failure. Decode errors are recoverable: the
// caller drops the row, increments a counter, and continues reading the file.
type DecodeError struct {
	File   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("rf2: %s:%d: column %s: invalid value %q: %v", e.File, e.Line, e.Column, e.Value, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
