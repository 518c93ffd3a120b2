package sd

import (
	"errors"
	"fmt"
)

// ErrIncorrectOptionsSize is returned when the options byte-length prefix
// does not exhaust exactly across the options actually parsed.
var ErrIncorrectOptionsSize = errors.New("someip/wire/sd: options byte length did not exhaust exactly")

// ErrInvalidSDHeader reports a semantically inconsistent SD header, such as
// an entry referencing an out-of-range option index.
var ErrInvalidSDHeader = errors.New("someip/wire/sd: semantically inconsistent SD header")

// ProtocolError wraps a wire-format violation that carries the offending
// value. Mirrors wire.ProtocolError; duplicated here rather than imported
// to keep the sd package free of a dependency on its parent.
type ProtocolError struct {
	Kind  string
	Value int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("someip/wire/sd: %s (0x%x)", e.Kind, e.Value)
}

func newProtocolError(kind string, value int) *ProtocolError {
	return &ProtocolError{Kind: kind, Value: value}
}

func errInvalidSDEntryType(got uint8) error {
	return newProtocolError("invalid SD entry type", int(got))
}

func errInvalidSDOptionType(got uint8) error {
	return newProtocolError("invalid SD option type", int(got))
}

func errInvalidSDOptionTransportProtocol(got uint8) error {
	return newProtocolError("invalid SD option transport protocol", int(got))
}
