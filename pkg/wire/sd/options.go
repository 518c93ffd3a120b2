package sd

import (
	"encoding/binary"
	"io"
	"net"
)

// TransportProtocol is the byte identifying UDP or TCP in an IPv4 endpoint
// option. Only UDP is exercised by the runtimes; TCP round-trips.
type TransportProtocol uint8

const (
	TransportUDP TransportProtocol = 0x11
	TransportTCP TransportProtocol = 0x06
)

func parseTransportProtocol(b uint8) (TransportProtocol, error) {
	switch TransportProtocol(b) {
	case TransportUDP, TransportTCP:
		return TransportProtocol(b), nil
	default:
		return 0, errInvalidSDOptionTransportProtocol(b)
	}
}

// optionType is the wire discriminator byte for an SD option entry.
type optionType uint8

const (
	optionConfiguration optionType = 0x01
	optionLoadBalancing optionType = 0x02
	optionIPv4Endpoint  optionType = 0x04
	optionIPv6Endpoint  optionType = 0x06
	optionIPv4Multicast optionType = 0x14
	optionIPv6Multicast optionType = 0x16
	optionIPv4SD        optionType = 0x24
	optionIPv6SD        optionType = 0x26
)

func parseOptionType(b uint8) (optionType, error) {
	switch optionType(b) {
	case optionConfiguration, optionLoadBalancing, optionIPv4Endpoint, optionIPv6Endpoint,
		optionIPv4Multicast, optionIPv6Multicast, optionIPv4SD, optionIPv6SD:
		return optionType(b), nil
	default:
		return 0, errInvalidSDOptionType(b)
	}
}

// Option is an SD option: the IPv4 endpoint variant this implementation
// acts on, or a reserved variant that round-trips without being
// interpreted (configuration, load-balancing, IPv6/multicast/SD
// endpoints).
type Option interface {
	size() int
	write(w io.Writer) error
}

// IPv4Endpoint is the only option variant the runtimes act on: it carries
// a subscriber's or service's delivery address.
type IPv4Endpoint struct {
	IP       net.IP // 4-byte IPv4
	Protocol TransportProtocol
	Port     uint16
}

func (o IPv4Endpoint) size() int { return 12 }

func (o IPv4Endpoint) write(w io.Writer) error {
	var buf [12]byte
	binary.BigEndian.PutUint16(buf[0:2], 9)
	buf[2] = byte(optionIPv4Endpoint)
	buf[3] = 0
	ip4 := o.IP.To4()
	copy(buf[4:8], ip4)
	buf[8] = 0
	buf[9] = byte(o.Protocol)
	binary.BigEndian.PutUint16(buf[10:12], o.Port)
	_, err := w.Write(buf[:])
	return err
}

// Addr returns the net.UDPAddr this endpoint option describes.
func (o IPv4Endpoint) Addr() *net.UDPAddr {
	return &net.UDPAddr{IP: o.IP, Port: int(o.Port)}
}

// NewIPv4Endpoint builds an endpoint option from a UDP address.
func NewIPv4Endpoint(addr *net.UDPAddr) IPv4Endpoint {
	return IPv4Endpoint{IP: addr.IP.To4(), Protocol: TransportUDP, Port: uint16(addr.Port)}
}

// ReservedOption is a round-tripped option this implementation does not
// interpret: its type byte and raw body (everything after the 3-byte
// length/type prefix, starting with the discard-flag/reserved byte) are
// preserved verbatim.
type ReservedOption struct {
	Type optionType
	Body []byte
}

func (o ReservedOption) size() int { return 3 + len(o.Body) }

func (o ReservedOption) write(w io.Writer) error {
	var prefix [3]byte
	binary.BigEndian.PutUint16(prefix[0:2], uint16(len(o.Body)))
	prefix[2] = byte(o.Type)
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err := w.Write(o.Body)
	return err
}

// decodeOption reads one length-prefixed SD option.
func decodeOption(r io.Reader) (Option, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint16(prefix[0:2])
	optType, err := parseOptionType(prefix[2])
	if err != nil {
		return nil, err
	}
	// discard flag: prefix[3] & 0x80; not acted upon, per spec.

	switch optType {
	case optionIPv4Endpoint:
		var body [8]byte
		if _, err := io.ReadFull(r, body[:]); err != nil {
			return nil, err
		}
		ip := net.IPv4(body[0], body[1], body[2], body[3])
		protocol, err := parseTransportProtocol(body[5])
		if err != nil {
			return nil, err
		}
		port := binary.BigEndian.Uint16(body[6:8])
		return IPv4Endpoint{IP: ip, Protocol: protocol, Port: port}, nil
	default:
		// length counts everything after the type byte, including the
		// reserved/discard byte already in prefix[3]; preserve it in Body
		// so the option round-trips byte-for-byte.
		bodyLen := int(length) - 1
		if bodyLen < 0 {
			return nil, ErrIncorrectOptionsSize
		}
		body := make([]byte, 1+bodyLen)
		body[0] = prefix[3]
		if _, err := io.ReadFull(r, body[1:]); err != nil {
			return nil, err
		}
		return ReservedOption{Type: optType, Body: body}, nil
	}
}
