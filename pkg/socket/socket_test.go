package socket

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/samsamfire/someip/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReceiveRoundTrip(t *testing.T) {
	server, err := Bind(0)
	require.NoError(t, err)
	defer server.ShutDown()

	client, err := Bind(0)
	require.NoError(t, err)
	defer client.ShutDown()

	msg := wire.NewRequestMessage(wire.NewMessageID(0x1234, 0x0001), 0x00010001, 1, []byte("hello"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	target := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: server.LocalAddr().Port}
	require.NoError(t, client.Send(ctx, target, msg))

	select {
	case in, ok := <-server.InboundChan():
		require.True(t, ok)
		require.NoError(t, in.Err)
		assert.Equal(t, msg, in.Message)
	case <-ctx.Done():
		t.Fatal("timed out waiting for inbound message")
	}
}

func TestSendBumpsSessionID(t *testing.T) {
	server, err := Bind(0)
	require.NoError(t, err)
	defer server.ShutDown()

	client, err := Bind(0)
	require.NoError(t, err)
	defer client.ShutDown()

	assert.Equal(t, uint32(0), client.SessionID())

	msg := wire.NewRequestMessage(wire.NewMessageID(1, 1), 1, 1, nil)
	target := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: server.LocalAddr().Port}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, client.Send(ctx, target, msg))

	// Drain so the test doesn't leak a goroutine waiting on the server side.
	select {
	case <-server.InboundChan():
	case <-ctx.Done():
	}

	assert.Equal(t, uint32(1), client.SessionID())
}

func TestShutDownEndsReceiveWithoutError(t *testing.T) {
	m, err := Bind(0)
	require.NoError(t, err)

	m.ShutDown()

	in, ok := m.Receive()
	assert.False(t, ok)
	assert.Equal(t, Inbound{}, in)
}

func TestSendAfterShutDownReturnsErrClosed(t *testing.T) {
	m, err := Bind(0)
	require.NoError(t, err)
	m.ShutDown()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err = m.Send(ctx, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1}, wire.Message{})
	assert.ErrorIs(t, err, ErrClosed)
}
