package sd

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Header is the SD payload carried inside a SOME/IP Notification message:
// one flags byte, reserved padding, a length-prefixed run of entries, and a
// length-prefixed run of options.
type Header struct {
	Flags   Flags
	Entries []Entry
	Options []Option
}

// NewHeader builds an SD header from its entries and options.
func NewHeader(flags Flags, entries []Entry, options []Option) Header {
	return Header{Flags: flags, Entries: entries, Options: options}
}

// RequiredSize returns the total encoded size of the header, including the
// flags/reserved byte and both length prefixes.
func (h Header) RequiredSize() int {
	size := 4 + 4 + len(h.Entries)*EntrySize + 4
	for _, opt := range h.Options {
		size += opt.size()
	}
	return size
}

// DecodeHeader reads an SD header: flags, reserved(3), entries array, then
// options array, each prefixed by its byte length.
func DecodeHeader(r io.Reader) (Header, error) {
	var preamble [4]byte
	if _, err := io.ReadFull(r, preamble[:]); err != nil {
		return Header{}, err
	}
	flags := decodeFlags(preamble[0])

	var entriesLengthBuf [4]byte
	if _, err := io.ReadFull(r, entriesLengthBuf[:]); err != nil {
		return Header{}, err
	}
	entriesLength := binary.BigEndian.Uint32(entriesLengthBuf[:])
	if entriesLength%EntrySize != 0 {
		return Header{}, ErrInvalidSDHeader
	}
	entryCount := int(entriesLength / EntrySize)
	entries := make([]Entry, 0, entryCount)
	entriesReader := io.LimitReader(r, int64(entriesLength))
	for i := 0; i < entryCount; i++ {
		entry, err := decodeEntry(entriesReader)
		if err != nil {
			return Header{}, err
		}
		entries = append(entries, entry)
	}

	var optionsLengthBuf [4]byte
	if _, err := io.ReadFull(r, optionsLengthBuf[:]); err != nil {
		return Header{}, err
	}
	optionsLength := int64(binary.BigEndian.Uint32(optionsLengthBuf[:]))
	optionsReader := io.LimitReader(r, optionsLength)
	var options []Option
	for {
		remaining := optionsReader.(*io.LimitedReader)
		if remaining.N <= 0 {
			break
		}
		opt, err := decodeOption(optionsReader)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return Header{}, ErrIncorrectOptionsSize
			}
			return Header{}, err
		}
		options = append(options, opt)
	}
	if optionsReader.(*io.LimitedReader).N != 0 {
		return Header{}, ErrIncorrectOptionsSize
	}

	if err := validateOptionIndices(entries, options); err != nil {
		return Header{}, err
	}

	return Header{Flags: flags, Entries: entries, Options: options}, nil
}

// validateOptionIndices rejects entries whose option-run indices reference
// positions outside the decoded options slice.
func validateOptionIndices(entries []Entry, options []Option) error {
	for _, e := range entries {
		var firstIdx, secondIdx int
		var counts OptionsCount
		switch {
		case e.Service != nil:
			firstIdx, secondIdx, counts = int(e.Service.IndexFirstOptions), int(e.Service.IndexSecondOptions), e.Service.OptionsCount
		case e.EventGroup != nil:
			firstIdx, secondIdx, counts = int(e.EventGroup.IndexFirstOptions), int(e.EventGroup.IndexSecondOptions), e.EventGroup.OptionsCount
		}
		if counts.FirstCount > 0 && firstIdx+int(counts.FirstCount) > len(options) {
			return ErrInvalidSDHeader
		}
		if counts.SecondCount > 0 && secondIdx+int(counts.SecondCount) > len(options) {
			return ErrInvalidSDHeader
		}
	}
	return nil
}

// Encode writes the flags byte, reserved padding, and both length-prefixed
// runs in wire order.
func (h Header) Encode(w io.Writer) (int, error) {
	var preamble [4]byte
	preamble[0] = h.Flags.encode()
	n, err := w.Write(preamble[:])
	if err != nil {
		return n, err
	}

	var entriesBuf bytes.Buffer
	for _, e := range h.Entries {
		if err := e.encode(&entriesBuf); err != nil {
			return n, err
		}
	}
	var entriesLengthBuf [4]byte
	binary.BigEndian.PutUint32(entriesLengthBuf[:], uint32(entriesBuf.Len()))
	wn, err := w.Write(entriesLengthBuf[:])
	n += wn
	if err != nil {
		return n, err
	}
	wn, err = w.Write(entriesBuf.Bytes())
	n += wn
	if err != nil {
		return n, err
	}

	var optionsBuf bytes.Buffer
	for _, opt := range h.Options {
		if err := opt.write(&optionsBuf); err != nil {
			return n, err
		}
	}
	var optionsLengthBuf [4]byte
	binary.BigEndian.PutUint32(optionsLengthBuf[:], uint32(optionsBuf.Len()))
	wn, err = w.Write(optionsLengthBuf[:])
	n += wn
	if err != nil {
		return n, err
	}
	wn, err = w.Write(optionsBuf.Bytes())
	n += wn
	return n, err
}

// FindServiceEntries returns every FindService entry in the header.
func (h Header) FindServiceEntries() []ServiceEntry {
	var out []ServiceEntry
	for _, e := range h.Entries {
		if e.Type == EntryFindService && e.Service != nil {
			out = append(out, *e.Service)
		}
	}
	return out
}

// OfferServiceEntries returns every OfferService entry in the header.
func (h Header) OfferServiceEntries() []ServiceEntry {
	var out []ServiceEntry
	for _, e := range h.Entries {
		if e.Type == EntryOfferService && e.Service != nil {
			out = append(out, *e.Service)
		}
	}
	return out
}

// SubscribeEntries returns every Subscribe entry in the header.
func (h Header) SubscribeEntries() []EventGroupEntry {
	var out []EventGroupEntry
	for _, e := range h.Entries {
		if e.Type == EntrySubscribe && e.EventGroup != nil {
			out = append(out, *e.EventGroup)
		}
	}
	return out
}

// SubscribeAckEntries returns every SubscribeAck entry in the header.
func (h Header) SubscribeAckEntries() []EventGroupEntry {
	var out []EventGroupEntry
	for _, e := range h.Entries {
		if e.Type == EntrySubscribeAck && e.EventGroup != nil {
			out = append(out, *e.EventGroup)
		}
	}
	return out
}

// OptionsFor returns the option run referenced by an entry's first-options
// index and count, or nil if the entry references no options.
func (h Header) OptionsFor(indexFirst uint8, count uint8) []Option {
	if count == 0 {
		return nil
	}
	start := int(indexFirst)
	end := start + int(count)
	if start < 0 || end > len(h.Options) {
		return nil
	}
	return h.Options[start:end]
}
