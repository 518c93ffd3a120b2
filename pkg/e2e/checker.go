package e2e

import (
	"encoding/binary"

	"github.com/samsamfire/someip/internal/crc"
)

// Checker validates an E2E header against its configured DataID/DataLength,
// recomputes the CRC, and classifies the counter sequence relative to the
// last counter it saw. One Checker instance serves exactly one direction of
// one data element.
type Checker struct {
	config      Config
	lastCounter *uint32
}

// NewChecker builds a Checker with no prior counter (the next Check call
// that parses successfully reports StatusOk regardless of its counter).
func NewChecker(config Config) *Checker {
	return &Checker{config: config}
}

// Reset forgets the last seen counter, so the next successful Check is
// treated as the first message again.
func (c *Checker) Reset() {
	c.lastCounter = nil
}

// Check parses data as the configured profile's header plus payload,
// validates the configured DataID/DataLength and the CRC, and classifies
// the sequence. Counter and Payload are only populated when the header and
// CRC parsed successfully (every status except CrcError and BadArgument).
func (c *Checker) Check(data []byte) Result {
	switch c.config.Profile {
	case Profile4:
		return c.checkProfile4(data)
	case Profile5:
		return c.checkProfile5(data)
	default:
		return Result{Status: StatusBadArgument}
	}
}

func (c *Checker) checkProfile4(data []byte) Result {
	if len(data) < profile4HeaderSize {
		return Result{Status: StatusBadArgument}
	}
	length := binary.BigEndian.Uint16(data[0:2])
	if int(length) != len(data) {
		return Result{Status: StatusBadArgument}
	}
	dataID := binary.BigEndian.Uint32(data[4:8])
	if dataID != c.config.DataID {
		return Result{Status: StatusBadArgument}
	}

	counter := binary.BigEndian.Uint16(data[2:4])
	payload := data[profile4HeaderSize:]

	crcInput := make([]byte, 8+len(payload))
	copy(crcInput, data[0:8])
	copy(crcInput[8:], payload)
	want := binary.BigEndian.Uint32(data[8:12])
	if crc.CRC32AUTOSAR(crcInput) != want {
		return Result{Status: StatusCrcError}
	}

	status := c.classify(uint32(counter), 16)
	v := uint32(counter)
	c.lastCounter = &v
	return Result{Status: status, Counter: counter, Payload: payload}
}

func (c *Checker) checkProfile5(data []byte) Result {
	if len(data) < profile5HeaderSize {
		return Result{Status: StatusBadArgument}
	}
	if c.config.DataLength != 0 && len(data) != profile5HeaderSize+c.config.DataLength {
		return Result{Status: StatusBadArgument}
	}

	counter := data[2]
	payload := data[profile5HeaderSize:]

	crcInput := make([]byte, 1+len(payload)+2)
	crcInput[0] = counter
	copy(crcInput[1:], payload)
	binary.LittleEndian.PutUint16(crcInput[1+len(payload):], uint16(c.config.DataID))
	want := binary.LittleEndian.Uint16(data[0:2])
	if crc.CRC16IBM3740(crcInput) != want {
		return Result{Status: StatusCrcError}
	}

	status := c.classify(uint32(counter), 8)
	v := uint32(counter)
	c.lastCounter = &v
	return Result{Status: status, Counter: uint16(counter), Payload: payload}
}

// classify computes the wrapping delta between counter and the last seen
// counter (mod 2^bits) and maps it to a sequence status. A nil lastCounter
// (never checked, or just Reset) always classifies as Ok.
func (c *Checker) classify(counter uint32, bits uint) Status {
	if c.lastCounter == nil {
		return StatusOk
	}
	mod := uint32(1) << bits
	delta := (counter - *c.lastCounter + mod) % mod
	switch {
	case delta == 0:
		return StatusRepeated
	case delta == 1:
		return StatusOk
	case delta <= uint32(c.config.MaxDelta):
		return StatusOkSomeLost
	default:
		return StatusWrongSequence
	}
}
