package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/samsamfire/someip/pkg/socket"
	"github.com/samsamfire/someip/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessageCorrelatesResponse(t *testing.T) {
	peer, err := socket.Bind(0)
	require.NoError(t, err)
	defer peer.ShutDown()

	c := New(0x0001)
	defer c.Shutdown()

	ctx := context.Background()
	port, err := c.BindUnicast(ctx, 0)
	require.NoError(t, err)

	messageID := wire.NewMessageID(0x1234, 0x0001)
	requestMsg := wire.NewRequestMessage(messageID, 0, 1, []byte("ping"))

	peerDone := make(chan struct{})
	go func() {
		defer close(peerDone)
		in, ok := peer.Receive()
		if !ok || in.Err != nil {
			return
		}
		response := wire.Message{
			Header: wire.Header{
				MessageID:        in.Message.Header.MessageID,
				Length:           uint32(len("pong")) + 8,
				SessionID:        in.Message.Header.SessionID,
				ProtocolVersion:  wire.ProtocolVersion,
				InterfaceVersion: 1,
				MessageType:      wire.NewMessageTypeField(wire.MessageTypeResponse, false),
				ReturnCode:       wire.ReturnCodeOk,
			},
			Payload: []byte("pong"),
		}
		sendCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = peer.Send(sendCtx, in.From, response)
	}()

	target := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: peer.LocalAddr().Port}
	reqCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	payload, err := c.SendMessage(reqCtx, target, requestMsg, port)
	require.NoError(t, err)
	assert.Equal(t, []byte("pong"), payload)

	<-peerDone
}

func TestSendMessageTimesOutWithoutResponse(t *testing.T) {
	peer, err := socket.Bind(0)
	require.NoError(t, err)
	defer peer.ShutDown()

	c := New(0x0002)
	defer c.Shutdown()

	ctx := context.Background()
	port, err := c.BindUnicast(ctx, 0)
	require.NoError(t, err)

	messageID := wire.NewMessageID(0x1234, 0x0002)
	requestMsg := wire.NewRequestMessage(messageID, 0, 1, []byte("ping"))
	target := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: peer.LocalAddr().Port}

	reqCtx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = c.SendMessage(reqCtx, target, requestMsg, port)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendRequestInFlightRejectsSecondCall(t *testing.T) {
	peer, err := socket.Bind(0)
	require.NoError(t, err)
	defer peer.ShutDown()

	c := New(0x0003)
	defer c.Shutdown()

	ctx := context.Background()
	port, err := c.BindUnicast(ctx, 0)
	require.NoError(t, err)

	messageID := wire.NewMessageID(0x1234, 0x0003)
	requestMsg := wire.NewRequestMessage(messageID, 0, 1, []byte("ping"))
	target := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: peer.LocalAddr().Port}

	firstCtx, cancel1 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel1()
	go c.SendMessage(firstCtx, target, requestMsg, port)
	time.Sleep(50 * time.Millisecond)

	secondCtx, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	_, err = c.SendMessage(secondCtx, target, requestMsg, port)
	assert.ErrorIs(t, err, ErrRequestInFlight)
}

func TestBindUnicastThenUnbind(t *testing.T) {
	c := New(0x0004)
	defer c.Shutdown()

	ctx := context.Background()
	port, err := c.BindUnicast(ctx, 0)
	require.NoError(t, err)
	assert.NotZero(t, port)

	require.NoError(t, c.UnbindUnicast(ctx, port))
}

func TestSendMessageRejectsUnboundSourcePort(t *testing.T) {
	c := New(0x0005)
	defer c.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg := wire.NewRequestMessage(wire.NewMessageID(1, 1), 0, 1, nil)
	_, err := c.SendMessage(ctx, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1}, msg, 54321)
	assert.ErrorIs(t, err, ErrUnicastSocketNotBound)
}
