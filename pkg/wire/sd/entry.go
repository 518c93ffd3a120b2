package sd

import (
	"encoding/binary"
	"io"
)

// EntrySize is the fixed length, in bytes, of every SD entry.
const EntrySize = 16

type entryType uint8

const (
	entryFindService     entryType = 0x00
	entryOfferService     entryType = 0x01
	entryStopOfferService entryType = 0x02
	entrySubscribe         entryType = 0x06
	entrySubscribeAck      entryType = 0x07
)

func parseEntryType(b uint8) (entryType, error) {
	switch entryType(b) {
	case entryFindService, entryOfferService, entryStopOfferService, entrySubscribe, entrySubscribeAck:
		return entryType(b), nil
	default:
		return 0, errInvalidSDEntryType(b)
	}
}

// OptionsCount packs the two 4-bit option-run counts sharing one byte.
type OptionsCount struct {
	FirstCount  uint8 // high nibble
	SecondCount uint8 // low nibble
}

func decodeOptionsCount(b uint8) OptionsCount {
	return OptionsCount{FirstCount: b >> 4, SecondCount: b & 0x0f}
}

func (c OptionsCount) encode() uint8 {
	return (c.FirstCount<<4)&0xf0 | c.SecondCount&0x0f
}

// Wildcard values for FindService entries.
const (
	WildcardInstanceID  uint16 = 0xFFFF
	WildcardMajorVersion uint8  = 0xFF
	WildcardTTL          uint32 = 0x00FFFFFF
	WildcardMinorVersion uint32 = 0xFFFFFFFF
)

// ServiceEntry is the 15-byte body shared by FindService, OfferService,
// and StopOfferService entries.
type ServiceEntry struct {
	IndexFirstOptions  uint8
	IndexSecondOptions uint8
	OptionsCount       OptionsCount
	ServiceID          uint16
	InstanceID         uint16
	MajorVersion       uint8
	TTL                uint32 // u24 on the wire
	MinorVersion       uint32
}

// NewFindServiceEntry builds a wildcarded FindService query for a service.
func NewFindServiceEntry(serviceID uint16) ServiceEntry {
	return ServiceEntry{
		ServiceID:    serviceID,
		InstanceID:   WildcardInstanceID,
		MajorVersion: WildcardMajorVersion,
		TTL:          WildcardTTL,
		MinorVersion: WildcardMinorVersion,
	}
}

func decodeServiceEntry(r io.Reader) (ServiceEntry, error) {
	var buf [15]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return ServiceEntry{}, err
	}
	return ServiceEntry{
		IndexFirstOptions:  buf[0],
		IndexSecondOptions: buf[1],
		OptionsCount:       decodeOptionsCount(buf[2]),
		ServiceID:          binary.BigEndian.Uint16(buf[3:5]),
		InstanceID:         binary.BigEndian.Uint16(buf[5:7]),
		MajorVersion:       buf[7],
		TTL:                uint32(buf[8])<<16 | uint32(buf[9])<<8 | uint32(buf[10]),
		MinorVersion:       binary.BigEndian.Uint32(buf[11:15]),
	}, nil
}

func (e ServiceEntry) encode(w io.Writer) error {
	var buf [15]byte
	buf[0] = e.IndexFirstOptions
	buf[1] = e.IndexSecondOptions
	buf[2] = e.OptionsCount.encode()
	binary.BigEndian.PutUint16(buf[3:5], e.ServiceID)
	binary.BigEndian.PutUint16(buf[5:7], e.InstanceID)
	buf[7] = e.MajorVersion
	buf[8] = byte(e.TTL >> 16)
	buf[9] = byte(e.TTL >> 8)
	buf[10] = byte(e.TTL)
	binary.BigEndian.PutUint32(buf[11:15], e.MinorVersion)
	_, err := w.Write(buf[:])
	return err
}

// EventGroupEntry is the 15-byte body shared by Subscribe and SubscribeAck
// entries; only the low 4 bits of Counter are significant on the wire.
type EventGroupEntry struct {
	IndexFirstOptions  uint8
	IndexSecondOptions uint8
	OptionsCount       OptionsCount
	ServiceID          uint16
	InstanceID         uint16
	MajorVersion       uint8
	TTL                uint32 // u24 on the wire; 0 on a SubscribeAck means Nack
	Counter            uint16 // low 4 bits significant
	EventGroupID       uint16
}

func decodeEventGroupEntry(r io.Reader) (EventGroupEntry, error) {
	var buf [15]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return EventGroupEntry{}, err
	}
	return EventGroupEntry{
		IndexFirstOptions:  buf[0],
		IndexSecondOptions: buf[1],
		OptionsCount:       decodeOptionsCount(buf[2]),
		ServiceID:          binary.BigEndian.Uint16(buf[3:5]),
		InstanceID:         binary.BigEndian.Uint16(buf[5:7]),
		MajorVersion:       buf[7],
		TTL:                uint32(buf[8])<<16 | uint32(buf[9])<<8 | uint32(buf[10]),
		Counter:            binary.BigEndian.Uint16(buf[11:13]) & 0x0f,
		EventGroupID:       binary.BigEndian.Uint16(buf[13:15]),
	}, nil
}

func (e EventGroupEntry) encode(w io.Writer) error {
	var buf [15]byte
	buf[0] = e.IndexFirstOptions
	buf[1] = e.IndexSecondOptions
	buf[2] = e.OptionsCount.encode()
	binary.BigEndian.PutUint16(buf[3:5], e.ServiceID)
	binary.BigEndian.PutUint16(buf[5:7], e.InstanceID)
	buf[7] = e.MajorVersion
	buf[8] = byte(e.TTL >> 16)
	buf[9] = byte(e.TTL >> 8)
	buf[10] = byte(e.TTL)
	binary.BigEndian.PutUint16(buf[11:13], e.Counter&0x0f)
	binary.BigEndian.PutUint16(buf[13:15], e.EventGroupID)
	_, err := w.Write(buf[:])
	return err
}

// IsNack reports whether this SubscribeAck entry rejects the subscription.
func (e EventGroupEntry) IsNack() bool {
	return e.TTL == 0
}

// Entry is one 16-byte SD entry: a type byte plus one of the two 15-byte
// bodies above. Go has no sum type, so the type byte selects which of
// Service/EventGroup is populated, mirroring how pkg/od/encoding.go in the
// reference codec switches on a datatype discriminator byte.
type Entry struct {
	Type       EntryKind
	Service    *ServiceEntry
	EventGroup *EventGroupEntry
}

// EntryKind is the exported discriminator for an Entry's variant.
type EntryKind uint8

const (
	EntryFindService     EntryKind = EntryKind(entryFindService)
	EntryOfferService     EntryKind = EntryKind(entryOfferService)
	EntryStopOfferService EntryKind = EntryKind(entryStopOfferService)
	EntrySubscribe         EntryKind = EntryKind(entrySubscribe)
	EntrySubscribeAck      EntryKind = EntryKind(entrySubscribeAck)
)

// NewServiceEntry builds a FindService/OfferService/StopOfferService entry.
func NewServiceEntry(kind EntryKind, body ServiceEntry) Entry {
	b := body
	return Entry{Type: kind, Service: &b}
}

// NewEventGroupEntry builds a Subscribe/SubscribeAck entry.
func NewEventGroupEntry(kind EntryKind, body EventGroupEntry) Entry {
	b := body
	return Entry{Type: kind, EventGroup: &b}
}

// TotalOptionsCount returns the sum of both option-run counts.
func (e Entry) TotalOptionsCount() uint8 {
	var c OptionsCount
	switch {
	case e.Service != nil:
		c = e.Service.OptionsCount
	case e.EventGroup != nil:
		c = e.EventGroup.OptionsCount
	}
	return c.FirstCount + c.SecondCount
}

func decodeEntry(r io.Reader) (Entry, error) {
	var typeByte [1]byte
	if _, err := io.ReadFull(r, typeByte[:]); err != nil {
		return Entry{}, err
	}
	kind, err := parseEntryType(typeByte[0])
	if err != nil {
		return Entry{}, err
	}
	switch kind {
	case entryFindService, entryOfferService, entryStopOfferService:
		body, err := decodeServiceEntry(r)
		if err != nil {
			return Entry{}, err
		}
		return NewServiceEntry(EntryKind(kind), body), nil
	default: // entrySubscribe, entrySubscribeAck
		body, err := decodeEventGroupEntry(r)
		if err != nil {
			return Entry{}, err
		}
		return NewEventGroupEntry(EntryKind(kind), body), nil
	}
}

func (e Entry) encode(w io.Writer) error {
	if _, err := w.Write([]byte{byte(e.Type)}); err != nil {
		return err
	}
	if e.Service != nil {
		return e.Service.encode(w)
	}
	return e.EventGroup.encode(w)
}
