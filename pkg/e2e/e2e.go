// Package e2e implements AUTOSAR E2E Profile 4 and Profile 5 integrity
// protection: a header-prepending Protector and a sequence-checking
// Checker, sharing one Config per direction.
package e2e

import "fmt"

// Profile selects which AUTOSAR E2E header and CRC this Protector/Checker
// pair uses.
type Profile int

const (
	// Profile4 is the 12-byte-header variant: length|counter|data_id|crc,
	// all big-endian, CRC-32/AUTOSAR.
	Profile4 Profile = 4
	// Profile5 is the 3-byte-header variant: crc(LE)|counter, fixed total
	// length, CRC-16/IBM-3740.
	Profile5 Profile = 5
)

func (p Profile) String() string {
	switch p {
	case Profile4:
		return "Profile4"
	case Profile5:
		return "Profile5"
	default:
		return fmt.Sprintf("Profile(%d)", int(p))
	}
}

// Config is the static configuration shared by a Protector/Checker pair
// guarding one data element in one direction.
type Config struct {
	Profile Profile

	// DataID identifies the protected data element. Profile 4 carries all
	// 32 bits on the wire; Profile 5 carries only the low 16 bits, and
	// little-endian, as part of the CRC input (never on the wire itself).
	DataID uint32

	// DataLength is the payload length Profile 5 requires every message
	// to carry (senders must pad). Unused by Profile 4.
	DataLength int

	// MaxDelta bounds how many counter steps may be skipped before a
	// Check call reports WrongSequence instead of OkSomeLost.
	MaxDelta uint16
}

const profile4HeaderSize = 12
const profile5HeaderSize = 3

// profile4MaxTotalLength is the largest buffer Protect will produce for
// Profile 4: the length field is a u16.
const profile4MaxTotalLength = 65535

// Status classifies the outcome of a Check call.
type Status uint8

const (
	StatusUnchecked     Status = 0
	StatusOk            Status = 1
	StatusCrcError      Status = 2
	StatusRepeated      Status = 3
	StatusOkSomeLost    Status = 4
	StatusWrongSequence Status = 5
	StatusBadArgument   Status = 6
)

func (s Status) String() string {
	switch s {
	case StatusUnchecked:
		return "Unchecked"
	case StatusOk:
		return "Ok"
	case StatusCrcError:
		return "CrcError"
	case StatusRepeated:
		return "Repeated"
	case StatusOkSomeLost:
		return "OkSomeLost"
	case StatusWrongSequence:
		return "WrongSequence"
	case StatusBadArgument:
		return "BadArgument"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Result is what Checker.Check returns: the classification, plus the
// counter and de-headered payload when the buffer at least parsed.
type Result struct {
	Status  Status
	Counter uint16
	Payload []byte
}
