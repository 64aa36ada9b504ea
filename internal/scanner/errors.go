package scanner

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput matches every *SyntaxError returned by the scanner.
	ErrMalformedInput = errors.New("malformed input")
	// ErrEndOfInput reports that no further object start exists in the buffer.
	ErrEndOfInput = errors.New("end of input")
)

// SyntaxError describes where a record stopped matching the fixed layout.
type SyntaxError struct {
	Offset int    // byte offset in the input buffer
	Field  int    // 1-based position in the field order, 0 for the record itself
	Name   string // field name, empty for the record itself
	Msg    string
	Err    error // underlying strconv error, if any
}

func (e *SyntaxError) Error() string {
	where := "record"
	if e.Field > 0 {
		where = fmt.Sprintf("field %d (%s)", e.Field, e.Name)
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed input at offset %d, %s: %s: %v", e.Offset, where, e.Msg, e.Err)
	}
	return fmt.Sprintf("malformed input at offset %d, %s: %s", e.Offset, where, e.Msg)
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrMalformedInput
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func malformed(offset, field int, msg string, err error) *SyntaxError {
	e := &SyntaxError{Offset: offset, Field: field, Msg: msg, Err: err}
	if field > 0 && field <= len(fieldOrder) {
		e.Name = fieldOrder[field-1].name
	}
	return e
}
