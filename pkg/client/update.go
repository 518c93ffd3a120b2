package client

import (
	"net"

	"github.com/samsamfire/someip/pkg/wire"
	"github.com/samsamfire/someip/pkg/wire/sd"
)

// Update is a value the client runtime pushes toward the façade outside of
// any request/reply: a discovery message, an uncorrelated unicast message,
// or a non-fatal error observed on one of the sockets.
type Update struct {
	Discovery *sd.Header
	Unicast   *UnicastMessage
	Err       error
}

// UnicastMessage is an inbound message on a unicast socket that did not
// correlate with an in-flight request.
type UnicastMessage struct {
	From    *net.UDPAddr
	Port    int
	Message wire.Message
}

func discoveryUpdate(h sd.Header) Update { return Update{Discovery: &h} }

func unicastUpdate(from *net.UDPAddr, port int, msg wire.Message) Update {
	return Update{Unicast: &UnicastMessage{From: from, Port: port, Message: msg}}
}

func errorUpdate(err error) Update { return Update{Err: err} }
