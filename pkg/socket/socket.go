// Package socket owns the one UDP socket per SOME/IP endpoint (discovery
// multicast or unicast) and presents it as a typed, cancellable channel
// pair without exposing the raw connection.
package socket

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/samsamfire/someip/pkg/wire"
	"github.com/samsamfire/someip/pkg/wire/sd"
)

// DiscoveryPort is the well-known SD port, 30490.
const DiscoveryPort = sd.DiscoveryPort

// DiscoveryGroup is the well-known SD multicast group.
var DiscoveryGroup = sd.DiscoveryGroup

// mtuBufferSize is the read-buffer size; SOME/IP over UDP is expected to
// stay within one Ethernet MTU.
const mtuBufferSize = 1400

// Inbound is one decoded message read off the socket, or a decode error
// that does not close the socket.
type Inbound struct {
	From    *net.UDPAddr
	Message wire.Message
	Err     error
}

type sendRequest struct {
	ctx    context.Context
	target *net.UDPAddr
	msg    wire.Message
	reply  chan error
}

// Manager owns exactly one *net.UDPConn and runs two background goroutines,
// one for inbound reads (readLoop) and one for outbound sends (writeLoop),
// so callers never touch the connection directly.
type Manager struct {
	logger *slog.Logger
	conn   *net.UDPConn

	outbound chan sendRequest
	inbound  chan Inbound

	sessionID uint32

	closeOnce sync.Once
	closed    chan struct{}
}

func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	return c.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
}

// BindDiscovery opens the SD socket on 0.0.0.0:30490 with address reuse and
// joins the SD multicast group on the given interface.
func BindDiscovery(iface *net.Interface) (*Manager, error) {
	lc := net.ListenConfig{Control: reuseAddrControl}
	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", DiscoveryPort))
	if err != nil {
		return nil, fmt.Errorf("someip/socket: bind discovery: %w", err)
	}
	conn := pc.(*net.UDPConn)

	pconn := ipv4.NewPacketConn(conn)
	if err := pconn.JoinGroup(iface, &net.UDPAddr{IP: DiscoveryGroup}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("someip/socket: join discovery group on %s: %w", iface.Name, err)
	}

	return newManager(conn), nil
}

// Bind opens a unicast socket on all local addresses on the given port; 0
// requests an ephemeral port. Use LocalAddr to read back the bound port.
func Bind(port int) (*Manager, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("someip/socket: bind unicast port %d: %w", port, err)
	}
	return newManager(conn), nil
}

func newManager(conn *net.UDPConn) *Manager {
	m := &Manager{
		logger:   slog.Default(),
		conn:     conn,
		outbound: make(chan sendRequest),
		inbound:  make(chan Inbound, 16),
		closed:   make(chan struct{}),
	}
	go m.readLoop()
	go m.writeLoop()
	return m
}

// LocalAddr returns the socket's bound local address.
func (m *Manager) LocalAddr() *net.UDPAddr {
	return m.conn.LocalAddr().(*net.UDPAddr)
}

// SessionID returns the manager's current SD session counter.
func (m *Manager) SessionID() uint32 {
	return atomic.LoadUint32(&m.sessionID)
}

// readLoop is one goroutine blocked in a syscall, decoding into a channel,
// since net.UDPConn offers no select-able read.
func (m *Manager) readLoop() {
	buf := make([]byte, mtuBufferSize)
	for {
		n, from, err := m.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-m.closed:
				// ShutDown closed the socket deliberately; no error to report.
			default:
				select {
				case m.inbound <- Inbound{Err: ErrSocketClosedUnexpectedly}:
				case <-m.closed:
				}
			}
			close(m.inbound)
			return
		}
		msg, decodeErr := wire.DecodeMessage(bytes.NewReader(buf[:n]))
		select {
		case m.inbound <- Inbound{From: from, Message: msg, Err: decodeErr}:
		case <-m.closed:
			close(m.inbound)
			return
		}
	}
}

// writeLoop serializes all outbound sends through the one socket.
func (m *Manager) writeLoop() {
	for {
		select {
		case req, ok := <-m.outbound:
			if !ok {
				return
			}
			var buf bytes.Buffer
			if _, err := req.msg.Encode(&buf); err != nil {
				req.reply <- err
				continue
			}
			_, err := m.conn.WriteToUDP(buf.Bytes(), req.target)
			if err == nil {
				atomic.AddUint32(&m.sessionID, 1)
			}
			req.reply <- err
		case <-m.closed:
			return
		}
	}
}

// Send encodes msg and sends it to target, waiting for the write to
// complete or ctx to be done. The session counter is bumped on success.
func (m *Manager) Send(ctx context.Context, target *net.UDPAddr, msg wire.Message) error {
	reply := make(chan error, 1)
	req := sendRequest{ctx: ctx, target: target, msg: msg, reply: reply}

	select {
	case m.outbound <- req:
	case <-m.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-m.closed:
		return ErrClosed
	}
}

// Receive returns the next inbound message, or ok=false once the socket's
// read side has ended (ShutDown, or an unexpected close).
func (m *Manager) Receive() (Inbound, bool) {
	in, ok := <-m.inbound
	return in, ok
}

// InboundChan exposes the channel directly for callers that multiplex several
// managers in one select statement (the client and server runtimes).
func (m *Manager) InboundChan() <-chan Inbound {
	return m.inbound
}

// ShutDown closes the manager's closed signal, which stops writeLoop, and
// the underlying socket; readLoop observes the closed connection and closes
// the inbound channel in turn.
func (m *Manager) ShutDown() {
	m.closeOnce.Do(func() {
		close(m.closed)
		m.conn.Close()
	})
}
