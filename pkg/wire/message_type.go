package wire

// MessageTypeTPFlag marks a SOME/IP-TP (segmented transport) message.
// TP reassembly itself is out of scope; the flag is preserved on
// round-trip but never acted on.
const MessageTypeTPFlag uint8 = 0x20

// MessageType is the base message kind, independent of the TP flag.
type MessageType uint8

const (
	MessageTypeRequest         MessageType = 0x00
	MessageTypeRequestNoReturn MessageType = 0x01
	MessageTypeNotification    MessageType = 0x02
	MessageTypeResponse        MessageType = 0x80
	MessageTypeError           MessageType = 0x81
)

func parseMessageType(value uint8) (MessageType, error) {
	switch MessageType(value &^ MessageTypeTPFlag) {
	case MessageTypeRequest, MessageTypeRequestNoReturn, MessageTypeNotification,
		MessageTypeResponse, MessageTypeError:
		return MessageType(value &^ MessageTypeTPFlag), nil
	default:
		return 0, ErrInvalidMessageTypeField(value)
	}
}

// MessageTypeField is the raw wire byte, which also carries the TP flag.
type MessageTypeField uint8

// NewMessageTypeField builds a field from a message type and a TP flag.
func NewMessageTypeField(msgType MessageType, tp bool) MessageTypeField {
	b := uint8(msgType)
	if tp {
		b |= MessageTypeTPFlag
	}
	return MessageTypeField(b)
}

// NewSDMessageTypeField returns the field used by every SD message:
// Notification, TP flag clear.
func NewSDMessageTypeField() MessageTypeField {
	return NewMessageTypeField(MessageTypeNotification, false)
}

func parseMessageTypeField(value uint8) (MessageTypeField, error) {
	if _, err := parseMessageType(value); err != nil {
		return 0, err
	}
	return MessageTypeField(value), nil
}

// Type returns the message type, stripped of the TP flag.
func (f MessageTypeField) Type() MessageType {
	return MessageType(uint8(f) &^ MessageTypeTPFlag)
}

// IsTP reports whether the TP flag is set.
func (f MessageTypeField) IsTP() bool {
	return uint8(f)&MessageTypeTPFlag != 0
}

func (f MessageTypeField) byte() uint8 {
	return uint8(f)
}
