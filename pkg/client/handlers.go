package client

import (
	"github.com/samsamfire/someip/pkg/socket"
	"github.com/samsamfire/someip/pkg/wire"
)

func (r *runtime) handleControl(req controlRequest) {
	switch req.kind {
	case controlSetInterface:
		r.handleSetInterface(req)
	case controlBindDiscovery:
		r.handleBindDiscovery(req)
	case controlUnbindDiscovery:
		r.handleUnbindDiscovery(req)
	case controlBindUnicast:
		r.handleBindUnicast(req)
	case controlUnbindUnicast:
		r.handleUnbindUnicast(req)
	case controlSendSD:
		r.handleSendSD(req)
	case controlSendRequest:
		r.handleSendRequest(req)
	}
}

// handleSetInterface rebinds discovery on the new interface atomically
// from the caller's perspective: unbind, swap, rebind, in one control-loop
// turn rather than the re-queue-through-the-channel dance the cooperative
// original used (unnecessary once everything runs on one goroutine).
func (r *runtime) handleSetInterface(req controlRequest) {
	if r.discovery != nil {
		r.discovery.ShutDown()
		r.discovery = nil
	}
	r.iface = req.iface

	mgr, err := socket.BindDiscovery(r.iface)
	if err != nil {
		req.reply <- controlReply{err: err}
		return
	}
	r.discovery = mgr
	r.forward(true, 0, mgr)
	req.reply <- controlReply{}
}

func (r *runtime) handleBindDiscovery(req controlRequest) {
	if r.discovery != nil {
		req.reply <- controlReply{}
		return
	}
	mgr, err := socket.BindDiscovery(r.iface)
	if err != nil {
		req.reply <- controlReply{err: err}
		return
	}
	r.discovery = mgr
	r.forward(true, 0, mgr)
	req.reply <- controlReply{}
}

func (r *runtime) handleUnbindDiscovery(req controlRequest) {
	if r.discovery != nil {
		r.discovery.ShutDown()
		r.discovery = nil
	}
	req.reply <- controlReply{}
}

func (r *runtime) handleBindUnicast(req controlRequest) {
	mgr, err := socket.Bind(req.port)
	if err != nil {
		req.reply <- controlReply{err: err}
		return
	}
	port := mgr.LocalAddr().Port
	r.unicast[port] = mgr
	r.forward(false, port, mgr)
	req.reply <- controlReply{port: port}
}

func (r *runtime) handleUnbindUnicast(req controlRequest) {
	if mgr, ok := r.unicast[req.port]; ok {
		mgr.ShutDown()
		delete(r.unicast, req.port)
	}
	req.reply <- controlReply{}
}

func (r *runtime) handleSendSD(req controlRequest) {
	if r.discovery == nil {
		mgr, err := socket.BindDiscovery(r.iface)
		if err != nil {
			req.reply <- controlReply{err: ErrMulticastSocketNotConnected}
			return
		}
		r.discovery = mgr
		r.forward(true, 0, mgr)
	}

	msg, err := wire.NewSDMessage(r.discovery.SessionID(), req.sdHeader)
	if err != nil {
		req.reply <- controlReply{err: err}
		return
	}
	err = r.discovery.Send(req.ctx, req.target, msg)
	req.reply <- controlReply{err: err}
}

// handleSendRequest stamps a fresh request ID, sends, and — unlike every
// other control request — does not reply immediately: the reply channel is
// parked on r.active until a correlated response arrives or the caller's
// context expires.
func (r *runtime) handleSendRequest(req controlRequest) {
	if r.active != nil {
		req.reply <- controlReply{err: ErrRequestInFlight}
		return
	}
	mgr, ok := r.unicast[req.sourcePort]
	if !ok {
		req.reply <- controlReply{err: ErrUnicastSocketNotBound}
		return
	}

	counter := r.nextSessionCounter()
	requestID := uint32(r.clientID)<<16 | uint32(counter)

	msg := req.message
	msg.Header.SessionID = requestID

	if err := mgr.Send(req.ctx, req.target, msg); err != nil {
		req.reply <- controlReply{err: err}
		return
	}

	r.active = &activeRequest{
		messageID: msg.Header.MessageID,
		reply:     req.reply,
		done:      req.ctx.Done(),
	}
}
