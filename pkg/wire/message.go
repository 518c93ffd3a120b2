package wire

import (
	"bytes"
	"io"

	"github.com/samsamfire/someip/pkg/wire/sd"
)

// PayloadWireFormat abstracts the user's message universe: implementations
// either carry only an SD header, or dispatch on Message ID to decode an
// application payload.
type PayloadWireFormat interface {
	MessageID() MessageID
	// AsSDHeader returns the parsed SD header and true if this payload is
	// an SD message, or the zero value and false otherwise.
	AsSDHeader() (sd.Header, bool)
	RequiredPayloadSize() int
	EncodePayload(w io.Writer) (int, error)
}

// DiscoveryOnlyPayload is the canonical PayloadWireFormat implementation
// used by sockets that only ever speak Service Discovery.
type DiscoveryOnlyPayload struct {
	Header sd.Header
}

func (p DiscoveryOnlyPayload) MessageID() MessageID { return SDMessageID }

func (p DiscoveryOnlyPayload) AsSDHeader() (sd.Header, bool) { return p.Header, true }

func (p DiscoveryOnlyPayload) RequiredPayloadSize() int { return p.Header.RequiredSize() }

func (p DiscoveryOnlyPayload) EncodePayload(w io.Writer) (int, error) {
	return p.Header.Encode(w)
}

// RawPayload carries an arbitrary application payload keyed by Message ID,
// for the non-SD side of the universe (requests, responses, events).
type RawPayload struct {
	ID   MessageID
	Body []byte
}

func (p RawPayload) MessageID() MessageID { return p.ID }

func (p RawPayload) AsSDHeader() (sd.Header, bool) { return sd.Header{}, false }

func (p RawPayload) RequiredPayloadSize() int { return len(p.Body) }

func (p RawPayload) EncodePayload(w io.Writer) (int, error) {
	return w.Write(p.Body)
}

// Message pairs a SOME/IP header with its payload bytes. Unlike the
// reference implementation's payload-definition type parameter, Go favors
// a concrete payload buffer plus a typed accessor (SDHeader) over a
// generic type bound — callers that want PayloadWireFormat dispatch can
// wrap Message.Payload in RawPayload, or the result of SDHeader in
// DiscoveryOnlyPayload, themselves.
type Message struct {
	Header  Header
	Payload []byte
}

// NewRequestMessage builds a Request message with a fresh header.
func NewRequestMessage(id MessageID, sessionID uint32, interfaceVersion uint8, payload []byte) Message {
	return Message{
		Header: Header{
			MessageID:        id,
			Length:           uint32(len(payload)) + 8,
			SessionID:        sessionID,
			ProtocolVersion:  ProtocolVersion,
			InterfaceVersion: interfaceVersion,
			MessageType:      NewMessageTypeField(MessageTypeRequest, false),
			ReturnCode:       ReturnCodeOk,
		},
		Payload: payload,
	}
}

// NewNotificationMessage builds a Notification message (an event publish)
// with a fresh header.
func NewNotificationMessage(id MessageID, sessionID uint32, interfaceVersion uint8, payload []byte) Message {
	return Message{
		Header: Header{
			MessageID:        id,
			Length:           uint32(len(payload)) + 8,
			SessionID:        sessionID,
			ProtocolVersion:  ProtocolVersion,
			InterfaceVersion: interfaceVersion,
			MessageType:      NewMessageTypeField(MessageTypeNotification, false),
			ReturnCode:       ReturnCodeOk,
		},
		Payload: payload,
	}
}

// NewSDMessage wraps an SD header in a Notification SOME/IP message.
func NewSDMessage(sessionID uint32, header sd.Header) (Message, error) {
	var buf bytes.Buffer
	if _, err := header.Encode(&buf); err != nil {
		return Message{}, err
	}
	body := buf.Bytes()
	return Message{
		Header:  NewSDHeader(sessionID, uint32(len(body))),
		Payload: body,
	}, nil
}

// IsSD reports whether this message's Message ID is the reserved SD value.
func (m Message) IsSD() bool {
	return m.Header.MessageID.IsSD()
}

// SDHeader parses the payload as an SD header, asserting the SD preamble
// constraints first. A non-SD message yields an unsupported-message-ID
// ProtocolError.
func (m Message) SDHeader() (sd.Header, error) {
	if !m.IsSD() {
		return sd.Header{}, ErrUnsupportedMessageID(uint32(m.Header.MessageID))
	}
	if err := m.Header.AssertSDPreamble(); err != nil {
		return sd.Header{}, err
	}
	return sd.DecodeHeader(bytes.NewReader(m.Payload))
}

// DecodeMessage reads a full SOME/IP message: a 16-byte header followed by
// exactly Length-8 bytes of payload.
func DecodeMessage(r io.Reader) (Message, error) {
	header, err := DecodeHeader(r)
	if err != nil {
		return Message{}, err
	}
	payloadSize := header.PayloadSize()
	if payloadSize < 0 {
		return Message{}, newProtocolError("negative payload size", payloadSize)
	}
	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Message{}, err
	}
	return Message{Header: header, Payload: payload}, nil
}

// RequiredSize returns the total encoded size: header plus payload.
func (m Message) RequiredSize() int {
	return HeaderSize + len(m.Payload)
}

// Encode writes the header followed by the raw payload bytes.
func (m Message) Encode(w io.Writer) (int, error) {
	n, err := m.Header.Encode(w)
	if err != nil {
		return n, err
	}
	pn, err := w.Write(m.Payload)
	return n + pn, err
}
