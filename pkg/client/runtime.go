package client

import (
	"log/slog"
	"net"
	"time"

	"github.com/samsamfire/someip/pkg/socket"
	"github.com/samsamfire/someip/pkg/wire"
)

// tickInterval is the loop's periodic wake-up; a floor, not a deadline.
const tickInterval = 125 * time.Millisecond

// taggedInbound tags one manager's Inbound with where it came from, so the
// single-goroutine loop can fan in an arbitrary, changing set of unicast
// sockets alongside the one discovery socket.
type taggedInbound struct {
	discovery bool
	port      int
	in        socket.Inbound
}

type activeRequest struct {
	messageID wire.MessageID
	reply     chan controlReply
	done      <-chan struct{}
}

// runtime is the client's inner task: it owns the discovery socket, the
// unicast socket set, and the at-most-one in-flight request, and is the
// only goroutine that ever touches them. Everything else talks to it
// through control and updates.
type runtime struct {
	logger *slog.Logger

	iface     *net.Interface
	discovery *socket.Manager
	unicast   map[int]*socket.Manager

	clientID       uint16
	sessionCounter uint16

	active *activeRequest

	control chan controlRequest
	updates chan Update
	mux     chan taggedInbound
	done    chan struct{}
}

func newRuntime(clientID uint16) *runtime {
	return &runtime{
		logger:   slog.Default(),
		unicast:  make(map[int]*socket.Manager),
		clientID: clientID,
		control:  make(chan controlRequest, 4),
		updates:  make(chan Update, 4),
		mux:      make(chan taggedInbound, 16),
		done:     make(chan struct{}),
	}
}

// run is the driver loop; it exits when control is closed (the façade
// dropped its sender) or done is closed (explicit Shutdown).
func (r *runtime) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	defer r.teardown()

	for {
		var activeDone <-chan struct{}
		if r.active != nil {
			activeDone = r.active.done
		}

		select {
		case req, ok := <-r.control:
			if !ok {
				return
			}
			r.handleControl(req)

		case tagged := <-r.mux:
			r.handleInbound(tagged)

		case <-ticker.C:
			// periodic wake-up; no state to age out in this implementation.

		case <-activeDone:
			r.active.reply <- controlReply{err: ErrRequestTimeout}
			r.active = nil

		case <-r.done:
			return
		}
	}
}

func (r *runtime) teardown() {
	if r.discovery != nil {
		r.discovery.ShutDown()
	}
	for _, mgr := range r.unicast {
		mgr.ShutDown()
	}
	if r.active != nil {
		r.active.reply <- controlReply{err: ErrClientClosed}
	}
	close(r.updates)
}

func (r *runtime) forward(discovery bool, port int, mgr *socket.Manager) {
	go func() {
		for in := range mgr.InboundChan() {
			select {
			case r.mux <- taggedInbound{discovery: discovery, port: port, in: in}:
			case <-r.done:
				return
			}
		}
	}()
}

// pushUpdate delivers u to the façade's update channel. While a request is
// in flight it is a non-blocking best-effort send (full channel drops
// silently); otherwise the runtime blocks, which is the intended
// backpressure signal per the design note on the update channel.
func (r *runtime) pushUpdate(u Update) {
	if r.active != nil {
		select {
		case r.updates <- u:
		default:
		}
		return
	}
	select {
	case r.updates <- u:
	case <-r.done:
	}
}

func (r *runtime) nextSessionCounter() uint16 {
	r.sessionCounter++
	if r.sessionCounter == 0 {
		r.sessionCounter = 1
	}
	return r.sessionCounter
}

func (r *runtime) handleInbound(tagged taggedInbound) {
	if tagged.in.Err != nil {
		r.pushUpdate(errorUpdate(tagged.in.Err))
		return
	}

	if tagged.discovery {
		header, err := tagged.in.Message.SDHeader()
		if err != nil {
			r.pushUpdate(errorUpdate(err))
			return
		}
		r.pushUpdate(discoveryUpdate(header))
		return
	}

	msg := tagged.in.Message
	if r.active != nil && msg.Header.MessageID == r.active.messageID {
		r.active.reply <- controlReply{payload: msg.Payload}
		r.active = nil
		return
	}
	r.pushUpdate(unicastUpdate(tagged.in.From, tagged.port, msg))
}
