package sd

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsRoundTrip(t *testing.T) {
	for _, f := range []Flags{
		NewSDFlags(false),
		NewSDFlags(true),
		{Reboot: false, Unicast: false},
	} {
		got := decodeFlags(f.encode())
		assert.Equal(t, f, got)
	}
}

func TestOptionsCountNibblePacking(t *testing.T) {
	c := OptionsCount{FirstCount: 1, SecondCount: 2}
	assert.Equal(t, uint8(0x12), c.encode())
	assert.Equal(t, c, decodeOptionsCount(0x12))
}

func TestIPv4EndpointOptionRoundTrip(t *testing.T) {
	opt := NewIPv4Endpoint(&net.UDPAddr{IP: net.IPv4(192, 168, 1, 42), Port: 30509})

	var buf bytes.Buffer
	require.NoError(t, opt.write(&buf))
	assert.Equal(t, 12, buf.Len())

	decoded, err := decodeOption(&buf)
	require.NoError(t, err)

	got, ok := decoded.(IPv4Endpoint)
	require.True(t, ok)
	assert.True(t, got.IP.Equal(opt.IP))
	assert.Equal(t, opt.Protocol, got.Protocol)
	assert.Equal(t, opt.Port, got.Port)
}

func TestReservedOptionRoundTrip(t *testing.T) {
	opt := ReservedOption{Type: optionConfiguration, Body: []byte{0x00, 'a', '=', 'b', 0x00}}

	var buf bytes.Buffer
	require.NoError(t, opt.write(&buf))

	decoded, err := decodeOption(&buf)
	require.NoError(t, err)
	assert.Equal(t, opt, decoded)
}

func TestServiceEntryRoundTrip(t *testing.T) {
	entry := NewServiceEntry(EntryOfferService, ServiceEntry{
		ServiceID:    0x1234,
		InstanceID:   0x0001,
		MajorVersion: 1,
		TTL:          3,
		MinorVersion: 0,
	})

	var buf bytes.Buffer
	require.NoError(t, entry.encode(&buf))
	assert.Equal(t, EntrySize, buf.Len())

	decoded, err := decodeEntry(&buf)
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)
}

func TestEventGroupEntryRoundTripAndNack(t *testing.T) {
	ack := NewEventGroupEntry(EntrySubscribeAck, EventGroupEntry{
		ServiceID:    0x1234,
		InstanceID:   0x0001,
		MajorVersion: 1,
		TTL:          0,
		Counter:      0x0a,
		EventGroupID: 0x0005,
	})
	assert.True(t, ack.EventGroup.IsNack())

	var buf bytes.Buffer
	require.NoError(t, ack.encode(&buf))

	decoded, err := decodeEntry(&buf)
	require.NoError(t, err)
	assert.Equal(t, ack, decoded)
}

func TestEventGroupEntryCounterMasksToFourBits(t *testing.T) {
	entry := EventGroupEntry{Counter: 0xFF}
	var buf bytes.Buffer
	require.NoError(t, entry.encode(&buf))

	decoded, err := decodeEventGroupEntry(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0f), decoded.Counter)
}

func TestHeaderRoundTripFindService(t *testing.T) {
	h := NewHeader(
		NewSDFlags(false),
		[]Entry{NewServiceEntry(EntryFindService, NewFindServiceEntry(0x1234))},
		nil,
	)

	var buf bytes.Buffer
	n, err := h.Encode(&buf)
	require.NoError(t, err)
	assert.Equal(t, h.RequiredSize(), n)

	decoded, err := DecodeHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, h.Flags, decoded.Flags)
	require.Len(t, decoded.Entries, 1)
	assert.Equal(t, *h.Entries[0].Service, *decoded.Entries[0].Service)
}

func TestHeaderRoundTripSubscribeWithOption(t *testing.T) {
	opt := NewIPv4Endpoint(&net.UDPAddr{IP: net.IPv4(10, 0, 0, 5), Port: 30501})
	entry := NewEventGroupEntry(EntrySubscribe, EventGroupEntry{
		ServiceID:          0x1234,
		InstanceID:         0x0001,
		MajorVersion:       1,
		TTL:                5,
		EventGroupID:       0x0001,
		IndexFirstOptions:  0,
		OptionsCount:       OptionsCount{FirstCount: 1},
	})
	h := NewHeader(NewSDFlags(false), []Entry{entry}, []Option{opt})

	var buf bytes.Buffer
	_, err := h.Encode(&buf)
	require.NoError(t, err)

	decoded, err := DecodeHeader(&buf)
	require.NoError(t, err)
	require.Len(t, decoded.Options, 1)
	got := decoded.OptionsFor(decoded.Entries[0].EventGroup.IndexFirstOptions, decoded.Entries[0].TotalOptionsCount())
	require.Len(t, got, 1)
	assert.Equal(t, opt, got[0])
}

func TestHeaderRejectsOutOfRangeOptionIndex(t *testing.T) {
	entry := NewEventGroupEntry(EntrySubscribe, EventGroupEntry{
		IndexFirstOptions: 3,
		OptionsCount:      OptionsCount{FirstCount: 1},
	})
	h := NewHeader(NewSDFlags(false), []Entry{entry}, nil)

	var buf bytes.Buffer
	_, err := h.Encode(&buf)
	require.NoError(t, err)

	_, err = DecodeHeader(&buf)
	assert.ErrorIs(t, err, ErrInvalidSDHeader)
}

func TestHeaderEmptyEntriesAndOptions(t *testing.T) {
	h := NewHeader(NewSDFlags(true), nil, nil)

	var buf bytes.Buffer
	_, err := h.Encode(&buf)
	require.NoError(t, err)

	decoded, err := DecodeHeader(&buf)
	require.NoError(t, err)
	assert.Empty(t, decoded.Entries)
	assert.Empty(t, decoded.Options)
	assert.True(t, decoded.Flags.Reboot)
}
