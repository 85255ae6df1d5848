package for009

import "fmt"

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrCreateFile represents an error when creating an output file.
type ErrCreateFile struct {
	Filename string
	Err      error
}

func (e *ErrCreateFile) Error() string {
	return fmt.Sprintf("error creating file %q: %v", e.Filename, e.Err)
}

func (e *ErrCreateFile) Unwrap() error {
	return e.Err
}

// ErrFieldCount is returned when a for009 line does not have NUM_FIELDS fields.
type ErrFieldCount struct {
	Line  int
	Found int
}

func (e *ErrFieldCount) Error() string {
	return fmt.Sprintf("line %d: expected %d fields, found %d", e.Line, NUM_FIELDS, e.Found)
}

// ErrParseField is returned when a for009 token is not a number.
type ErrParseField struct {
	Line  int
	Field int
	Token string
	Err   error
}

func (e *ErrParseField) Error() string {
	return fmt.Sprintf("line %d, field %d: cannot parse %q: %v", e.Line, e.Field, e.Token, e.Err)
}

func (e *ErrParseField) Unwrap() error {
	return e.Err
}

// ErrInvalidCuts represents an inconsistent set of selection cuts.
type ErrInvalidCuts struct {
	Reason string
}

func (e *ErrInvalidCuts) Error() string {
	return fmt.Sprintf("invalid cuts: %s", e.Reason)
}
