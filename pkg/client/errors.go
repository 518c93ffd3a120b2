package client

import (
	"errors"

	"github.com/samsamfire/someip/pkg/socket"
)

var (
	// ErrMulticastSocketNotConnected is returned by SendSD when discovery
	// has not been bound yet and bind-then-retry could not be completed.
	ErrMulticastSocketNotConnected = errors.New("someip/client: discovery socket not bound")

	// ErrUnicastSocketNotBound is returned by SendRequest when no unicast
	// socket exists for the requested source port.
	ErrUnicastSocketNotBound = errors.New("someip/client: no unicast socket bound on source port")

	// ErrRequestInFlight is returned when a second SendRequest is issued
	// while one is still awaiting its correlated response.
	ErrRequestInFlight = errors.New("someip/client: a request is already awaiting a response")

	// ErrRequestTimeout is returned by SendMessage when ctx is done before
	// a correlated response arrives; the returned error also wraps ctx.Err().
	ErrRequestTimeout = errors.New("someip/client: request timed out waiting for response")

	// ErrClientClosed is returned by façade calls made after Shutdown.
	ErrClientClosed = errors.New("someip/client: client is shut down")

	// ErrSocketClosedUnexpectedly surfaces as an Update when a socket's
	// read side ends without an explicit unbind. It is the same value as
	// socket.ErrSocketClosedUnexpectedly, which the socket layer reports.
	ErrSocketClosedUnexpectedly = socket.ErrSocketClosedUnexpectedly
)
