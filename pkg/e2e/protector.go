package e2e

import (
	"encoding/binary"
	"fmt"

	"github.com/samsamfire/someip/internal/crc"
)

// Protector prepends an E2E header to a payload, advancing its own
// monotonic counter on every call. One Protector instance serves exactly
// one direction of one data element; see Checker for the receive side.
type Protector struct {
	config  Config
	counter uint32 // masked to 16 bits (Profile 4) or 8 bits (Profile 5)
}

// NewProtector builds a Protector starting at counter 0.
func NewProtector(config Config) *Protector {
	return &Protector{config: config}
}

// Reset rewinds the protect counter to 0.
func (p *Protector) Reset() {
	p.counter = 0
}

// Protect prepends the configured profile's header to payload, computing
// the CRC over the header fields and payload per the profile's rule, then
// advances the internal counter (wrapping).
func (p *Protector) Protect(payload []byte) ([]byte, error) {
	switch p.config.Profile {
	case Profile4:
		return p.protectProfile4(payload)
	case Profile5:
		return p.protectProfile5(payload)
	default:
		return nil, fmt.Errorf("someip/e2e: unknown profile %v", p.config.Profile)
	}
}

func (p *Protector) protectProfile4(payload []byte) ([]byte, error) {
	totalLength := profile4HeaderSize + len(payload)
	if totalLength > profile4MaxTotalLength {
		return nil, fmt.Errorf("someip/e2e: profile 4 total length %d exceeds %d", totalLength, profile4MaxTotalLength)
	}

	counter := uint16(p.counter)
	buf := make([]byte, totalLength)
	binary.BigEndian.PutUint16(buf[0:2], uint16(totalLength))
	binary.BigEndian.PutUint16(buf[2:4], counter)
	binary.BigEndian.PutUint32(buf[4:8], p.config.DataID)
	copy(buf[profile4HeaderSize:], payload)

	crcInput := make([]byte, 8+len(payload))
	copy(crcInput, buf[0:8])
	copy(crcInput[8:], payload)
	binary.BigEndian.PutUint32(buf[8:12], crc.CRC32AUTOSAR(crcInput))

	p.counter = uint32(counter + 1)
	return buf, nil
}

func (p *Protector) protectProfile5(payload []byte) ([]byte, error) {
	if p.config.DataLength != 0 && len(payload) != p.config.DataLength {
		return nil, fmt.Errorf("someip/e2e: profile 5 payload length %d does not match configured %d", len(payload), p.config.DataLength)
	}

	counter := uint8(p.counter)
	buf := make([]byte, profile5HeaderSize+len(payload))
	buf[2] = counter
	copy(buf[profile5HeaderSize:], payload)

	crcInput := make([]byte, 1+len(payload)+2)
	crcInput[0] = counter
	copy(crcInput[1:], payload)
	binary.LittleEndian.PutUint16(crcInput[1+len(payload):], uint16(p.config.DataID))
	binary.LittleEndian.PutUint16(buf[0:2], crc.CRC16IBM3740(crcInput))

	p.counter = uint32(counter + 1)
	return buf, nil
}
