package wire

import "fmt"

// SDMessageIDValue is the reserved Message ID identifying Service Discovery.
const SDMessageIDValue uint32 = 0xFFFF8100

// eventFlag is the high bit of the method/event half of a Message ID.
const eventFlag = uint16(0x8000)

// MessageID is the 32-bit identifier encoding a service ID (upper 16 bits)
// and a method/event ID (lower 16 bits, high bit set for events).
type MessageID uint32

// SDMessageID is the well-known Message ID for Service Discovery messages.
const SDMessageID = MessageID(SDMessageIDValue)

// NewMessageID builds a Message ID from its service and method components.
func NewMessageID(serviceID, methodID uint16) MessageID {
	return MessageID(uint32(serviceID)<<16 | uint32(methodID))
}

// ServiceID returns the upper 16 bits of the Message ID.
func (m MessageID) ServiceID() uint16 {
	return uint16(m >> 16)
}

// MethodID returns the lower 16 bits of the Message ID.
func (m MessageID) MethodID() uint16 {
	return uint16(m)
}

// IsEvent reports whether the high bit of the method/event half is set.
func (m MessageID) IsEvent() bool {
	return m.MethodID()&eventFlag != 0
}

// NewEventMessageID builds a Message ID for an event notification,
// setting the event flag bit on the low half.
func NewEventMessageID(serviceID, eventID uint16) MessageID {
	return NewMessageID(serviceID, eventID|eventFlag)
}

// IsSD reports whether this is the reserved Service Discovery Message ID.
func (m MessageID) IsSD() bool {
	return m == SDMessageID
}

func (m MessageID) String() string {
	return fmt.Sprintf("{service_id: 0x%04X, method_id: 0x%04X}", m.ServiceID(), m.MethodID())
}
