package client

import (
	"context"
	"net"

	"github.com/samsamfire/someip/pkg/wire"
	"github.com/samsamfire/someip/pkg/wire/sd"
)

type controlKind uint8

const (
	controlSetInterface controlKind = iota
	controlBindDiscovery
	controlUnbindDiscovery
	controlBindUnicast
	controlUnbindUnicast
	controlSendSD
	controlSendRequest
)

// controlRequest is the client's exhaustive control protocol: one request
// kind per operation in the public façade, each answered by exactly one
// controlReply. Go has no sum type, so unused fields for a given kind sit
// at their zero value, mirroring the Entry/Option variant shape in
// pkg/wire/sd.
type controlRequest struct {
	kind controlKind

	iface *net.Interface
	port  int

	target     *net.UDPAddr
	sdHeader   sd.Header
	message    wire.Message
	sourcePort int

	ctx   context.Context
	reply chan controlReply
}

// controlReply is the one-shot answer to a controlRequest.
type controlReply struct {
	err     error
	port    int
	payload []byte
}

func newControlRequest(kind controlKind) controlRequest {
	return controlRequest{kind: kind, reply: make(chan controlReply, 1)}
}
