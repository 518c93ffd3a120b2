// Package client implements the SOME/IP client runtime: one goroutine that
// multiplexes a Service Discovery socket and any number of unicast sockets,
// correlating requests with responses, fronted by a small façade that
// looks like ordinary synchronous Go calls.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/samsamfire/someip/pkg/wire"
	"github.com/samsamfire/someip/pkg/wire/sd"
)

// Client is the public handle to a running client runtime. All methods are
// safe to call concurrently; the runtime serializes them internally.
type Client struct {
	control chan controlRequest
	updates chan Update
	done    chan struct{}

	closeOnce sync.Once
}

// New starts a client runtime with the given SOME/IP client ID (the upper
// 16 bits of every request ID this client stamps). No interface is set and
// no socket is bound yet; SendSDMessage binds discovery on demand, on the
// interface last passed to SetInterface.
func New(clientID uint16) *Client {
	done := make(chan struct{})
	rt := newRuntime(clientID)
	rt.done = done
	go rt.run()

	return &Client{control: rt.control, updates: rt.updates, done: done}
}

// Updates returns the channel of discovery/unicast/error notifications not
// tied to a specific request. It closes when the client shuts down.
func (c *Client) Updates() <-chan Update {
	return c.updates
}

// Shutdown stops the runtime: outstanding socket managers are closed, any
// in-flight request is failed, and the updates channel is closed.
func (c *Client) Shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) roundTrip(ctx context.Context, req controlRequest) (controlReply, error) {
	select {
	case c.control <- req:
	case <-c.done:
		return controlReply{}, ErrClientClosed
	case <-ctx.Done():
		return controlReply{}, ctx.Err()
	}

	select {
	case reply := <-req.reply:
		return reply, reply.err
	case <-ctx.Done():
		return controlReply{}, ctx.Err()
	case <-c.done:
		return controlReply{}, ErrClientClosed
	}
}

// SetInterface atomically rebinds discovery on a new local interface.
func (c *Client) SetInterface(ctx context.Context, iface *net.Interface) error {
	req := newControlRequest(controlSetInterface)
	req.iface, req.ctx = iface, ctx
	_, err := c.roundTrip(ctx, req)
	return err
}

// BindDiscovery binds the SD multicast socket if it is not already bound.
func (c *Client) BindDiscovery(ctx context.Context) error {
	req := newControlRequest(controlBindDiscovery)
	req.ctx = ctx
	_, err := c.roundTrip(ctx, req)
	return err
}

// UnbindDiscovery closes the SD multicast socket, if bound.
func (c *Client) UnbindDiscovery(ctx context.Context) error {
	req := newControlRequest(controlUnbindDiscovery)
	req.ctx = ctx
	_, err := c.roundTrip(ctx, req)
	return err
}

// BindUnicast opens a unicast socket; port 0 requests an ephemeral port.
// It returns the actual bound port.
func (c *Client) BindUnicast(ctx context.Context, port int) (int, error) {
	req := newControlRequest(controlBindUnicast)
	req.port, req.ctx = port, ctx
	reply, err := c.roundTrip(ctx, req)
	return reply.port, err
}

// UnbindUnicast closes the unicast socket bound on port, if any.
func (c *Client) UnbindUnicast(ctx context.Context, port int) error {
	req := newControlRequest(controlUnbindUnicast)
	req.port, req.ctx = port, ctx
	_, err := c.roundTrip(ctx, req)
	return err
}

// SendSDMessage wraps header in a fresh SD message and sends it to target,
// binding discovery first if needed.
func (c *Client) SendSDMessage(ctx context.Context, target *net.UDPAddr, header sd.Header) error {
	req := newControlRequest(controlSendSD)
	req.target, req.sdHeader, req.ctx = target, header, ctx
	_, err := c.roundTrip(ctx, req)
	return err
}

// SendMessage sends msg from the unicast socket bound on sourcePort and
// waits for a response whose Message ID matches msg's, or for ctx to
// expire; in the latter case the error wraps both ErrRequestTimeout and
// ctx.Err(). It fails with ErrRequestInFlight if another SendMessage call on
// this client is still awaiting a response.
func (c *Client) SendMessage(ctx context.Context, target *net.UDPAddr, msg wire.Message, sourcePort int) ([]byte, error) {
	req := newControlRequest(controlSendRequest)
	req.target, req.message, req.sourcePort, req.ctx = target, msg, sourcePort, ctx
	reply, err := c.roundTrip(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && (errors.Is(err, ctxErr) || errors.Is(err, ErrRequestTimeout)) {
			return nil, fmt.Errorf("%w: %w", ErrRequestTimeout, ctxErr)
		}
		return nil, err
	}
	return reply.payload, nil
}
