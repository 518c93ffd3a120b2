package wire

import (
	"encoding/binary"
	"io"
)

// HeaderSize is the fixed length, in bytes, of a SOME/IP header.
const HeaderSize = 16

// ProtocolVersion is the only value this implementation accepts or emits.
const ProtocolVersion uint8 = 0x01

// Header is the 16-byte SOME/IP header.
type Header struct {
	MessageID        MessageID
	Length           uint32 // bytes from SessionID to end of payload
	SessionID        uint32 // upper 16 = client ID, lower 16 = session counter
	ProtocolVersion  uint8
	InterfaceVersion uint8
	MessageType      MessageTypeField
	ReturnCode       ReturnCode
}

// ClientID returns the upper 16 bits of SessionID.
func (h Header) ClientID() uint16 {
	return uint16(h.SessionID >> 16)
}

// SessionCounter returns the lower 16 bits of SessionID.
func (h Header) SessionCounter() uint16 {
	return uint16(h.SessionID)
}

// PayloadSize returns the number of payload bytes, derived from Length.
func (h Header) PayloadSize() int {
	return int(h.Length) - 8
}

// NewSDHeader builds the canonical header wrapping an SD message body of
// the given length with the given session ID.
func NewSDHeader(sessionID uint32, bodyLength uint32) Header {
	return Header{
		MessageID:        SDMessageID,
		Length:           bodyLength + 8,
		SessionID:        sessionID,
		ProtocolVersion:  ProtocolVersion,
		InterfaceVersion: 1,
		MessageType:      NewSDMessageTypeField(),
		ReturnCode:       ReturnCodeOk,
	}
}

// DecodeHeader reads exactly HeaderSize bytes and parses them into a Header.
func DecodeHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, err
	}

	messageID := MessageID(binary.BigEndian.Uint32(buf[0:4]))
	length := binary.BigEndian.Uint32(buf[4:8])
	sessionID := binary.BigEndian.Uint32(buf[8:12])
	protocolVersion := buf[12]
	interfaceVersion := buf[13]

	if protocolVersion != ProtocolVersion {
		return Header{}, ErrInvalidProtocolVersion(protocolVersion)
	}
	messageType, err := parseMessageTypeField(buf[14])
	if err != nil {
		return Header{}, err
	}
	returnCode, err := parseReturnCode(buf[15])
	if err != nil {
		return Header{}, err
	}

	return Header{
		MessageID:        messageID,
		Length:           length,
		SessionID:        sessionID,
		ProtocolVersion:  protocolVersion,
		InterfaceVersion: interfaceVersion,
		MessageType:      messageType,
		ReturnCode:       returnCode,
	}, nil
}

// RequiredSize returns the number of bytes Encode produces (always 16).
func (h Header) RequiredSize() int {
	return HeaderSize
}

// Encode writes the header in its canonical 16-byte big-endian layout.
func (h Header) Encode(w io.Writer) (int, error) {
	var buf [HeaderSize]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(h.MessageID))
	binary.BigEndian.PutUint32(buf[4:8], h.Length)
	binary.BigEndian.PutUint32(buf[8:12], h.SessionID)
	buf[12] = h.ProtocolVersion
	buf[13] = h.InterfaceVersion
	buf[14] = h.MessageType.byte()
	buf[15] = h.ReturnCode.byte()
	n, err := w.Write(buf[:])
	return n, err
}

// AssertSDPreamble validates the header constraints SOME/IP SD mandates:
// protocol_version=1, interface_version=1, type=Notification,
// return_code=Ok, payload of at least 12 bytes (the SD header's own
// fixed preamble).
func (h Header) AssertSDPreamble() error {
	if !h.MessageID.IsSD() {
		return nil // caller decides whether to treat this as UnexpectedDiscoveryMessage
	}
	if h.ProtocolVersion != ProtocolVersion {
		return ErrInvalidProtocolVersion(h.ProtocolVersion)
	}
	if h.InterfaceVersion != 1 {
		return newProtocolError("invalid SD interface version", int(h.InterfaceVersion))
	}
	if h.MessageType.Type() != MessageTypeNotification || h.MessageType.IsTP() {
		return newProtocolError("invalid SD message type", int(h.MessageType.byte()))
	}
	if h.ReturnCode != ReturnCodeOk {
		return newProtocolError("invalid SD return code", int(h.ReturnCode.byte()))
	}
	if h.PayloadSize() < 12 {
		return newProtocolError("SD payload too short", h.PayloadSize())
	}
	return nil
}
