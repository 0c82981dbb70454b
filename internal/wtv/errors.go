package wtv

import "fmt"

// ParseError reports a malformed or truncated metadata record. Decoding
// stops at the first ParseError and no partial metadata is returned.
type ParseError struct {
	Offset int64
	Field  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("wtv: parse error at offset %#x", e.Offset)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q)", e.Field)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingFieldError reports a metadata field that is absent or null.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("wtv: metadata field %q not present", e.Field)
}
