package wire

import (
	"errors"
	"fmt"
)

// Sentinel errors for codec preconditions that carry no extra context.
var (
	ErrIncorrectOptionsSize = errors.New("someip/wire: options byte length did not exhaust exactly")
	ErrInvalidSDHeader      = errors.New("someip/wire: semantically inconsistent SD header")
)

// ProtocolError wraps a wire-format violation that carries the offending
// value, so callers can log or branch on it without string matching.
type ProtocolError struct {
	Kind  string
	Value int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("someip/wire: %s (0x%x)", e.Kind, e.Value)
}

func newProtocolError(kind string, value int) *ProtocolError {
	return &ProtocolError{Kind: kind, Value: value}
}

// ErrInvalidProtocolVersion reports a SOME/IP header whose protocol_version
// field is not 1.
func ErrInvalidProtocolVersion(got uint8) error {
	return newProtocolError("invalid protocol version", int(got))
}

// ErrInvalidMessageTypeField reports an unrecognized message_type byte.
func ErrInvalidMessageTypeField(got uint8) error {
	return newProtocolError("invalid message type field", int(got))
}

// ErrInvalidReturnCode reports a return_code outside all assigned ranges.
func ErrInvalidReturnCode(got uint8) error {
	return newProtocolError("invalid return code", int(got))
}

// ErrInvalidSDEntryType reports an SD entry whose type byte is unknown.
func ErrInvalidSDEntryType(got uint8) error {
	return newProtocolError("invalid SD entry type", int(got))
}

// ErrInvalidSDOptionType reports an SD option whose type byte is unknown.
func ErrInvalidSDOptionType(got uint8) error {
	return newProtocolError("invalid SD option type", int(got))
}

// ErrInvalidSDOptionTransportProtocol reports an IPv4 endpoint option whose
// protocol byte is neither UDP (0x11) nor TCP (0x06).
func ErrInvalidSDOptionTransportProtocol(got uint8) error {
	return newProtocolError("invalid SD option transport protocol", int(got))
}

// ErrUnsupportedMessageID reports a payload decoder invoked for a Message ID
// it does not know how to interpret.
func ErrUnsupportedMessageID(got uint32) error {
	return newProtocolError("unsupported message ID", int(got))
}
