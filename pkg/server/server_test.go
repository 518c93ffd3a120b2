package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/samsamfire/someip/pkg/socket"
	"github.com/samsamfire/someip/pkg/wire/sd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigTTLSecondsDefault(t *testing.T) {
	var c Config
	assert.Equal(t, uint32(3), c.ttlSeconds())
}

func TestConfigTTLSecondsExplicit(t *testing.T) {
	c := Config{TTL: 5 * time.Second}
	assert.Equal(t, uint32(5), c.ttlSeconds())
}

func TestSubscriptionsDedupeAndCount(t *testing.T) {
	subs := newSubscriptions()
	key := subscriptionKey{ServiceID: 1, InstanceID: 1, EventGroupID: 1}
	addr := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 4000}

	assert.False(t, subs.hasSubscribers(key))
	subs.insert(key, addr)
	subs.insert(key, &net.UDPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 4000})
	assert.True(t, subs.hasSubscribers(key))
	assert.Equal(t, 1, subs.count(key))

	subs.insert(key, &net.UDPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 4000})
	assert.Equal(t, 2, subs.count(key))
}

func TestRebootFlagFirstAnnouncementOnly(t *testing.T) {
	rt := &runtime{config: Config{RebootPolicy: RebootFirstAnnouncementOnly}}
	assert.True(t, rt.rebootFlag())
	assert.False(t, rt.rebootFlag())
	assert.False(t, rt.rebootFlag())
}

func TestRebootFlagAlways(t *testing.T) {
	rt := &runtime{config: Config{RebootPolicy: RebootAlways}}
	assert.True(t, rt.rebootFlag())
	assert.True(t, rt.rebootFlag())
}

func TestNextSessionCounterSkipsZero(t *testing.T) {
	rt := &runtime{sessionCounter: 0xFFFF}
	assert.Equal(t, uint16(1), rt.nextSessionCounter())
	assert.Equal(t, uint16(2), rt.nextSessionCounter())
}

func TestInterfaceIPv4FindsLoopback(t *testing.T) {
	ifaces, err := net.Interfaces()
	require.NoError(t, err)
	var lo *net.Interface
	for i := range ifaces {
		if ifaces[i].Flags&net.FlagLoopback != 0 {
			lo = &ifaces[i]
			break
		}
	}
	if lo == nil {
		t.Skip("no loopback interface available")
	}
	ip := interfaceIPv4(lo)
	require.NotNil(t, ip)
	assert.True(t, ip.IsLoopback())
}

// newTestRuntime builds a runtime backed by two plain loopback unicast
// sockets rather than a real multicast-joined discovery socket, so the
// handler logic can be exercised without depending on the sandbox's
// multicast support.
func newTestRuntime(t *testing.T) *runtime {
	t.Helper()
	service, err := socket.Bind(0)
	require.NoError(t, err)
	discovery, err := socket.Bind(0)
	require.NoError(t, err)
	t.Cleanup(func() {
		service.ShutDown()
		discovery.ShutDown()
	})

	return newRuntime(Config{
		ServiceID:    0x1234,
		InstanceID:   1,
		MajorVersion: 1,
		MinorVersion: 0,
		LocalPort:    service.LocalAddr().Port,
	}, service, discovery)
}

func TestHandleFindServiceRepliesWithOfferService(t *testing.T) {
	rt := newTestRuntime(t)

	peer, err := socket.Bind(0)
	require.NoError(t, err)
	defer peer.ShutDown()

	entry := sd.NewFindServiceEntry(rt.config.ServiceID)
	peerAddr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: peer.LocalAddr().Port}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rt.handleFindService(ctx, entry, peerAddr)

	select {
	case in := <-peer.InboundChan():
		require.NoError(t, in.Err)
		header, err := in.Message.SDHeader()
		require.NoError(t, err)
		offers := header.OfferServiceEntries()
		require.Len(t, offers, 1)
		assert.Equal(t, rt.config.ServiceID, offers[0].ServiceID)
		assert.Equal(t, rt.config.InstanceID, offers[0].InstanceID)

		opts := header.OptionsFor(offers[0].IndexFirstOptions, offers[0].OptionsCount.FirstCount)
		require.Len(t, opts, 1)
		endpoint, ok := opts[0].(sd.IPv4Endpoint)
		require.True(t, ok)
		assert.Equal(t, rt.config.LocalPort, int(endpoint.Port))
	case <-ctx.Done():
		t.Fatal("timed out waiting for offer service reply")
	}
}

func TestHandleFindServiceIgnoresOtherServiceID(t *testing.T) {
	rt := newTestRuntime(t)

	peer, err := socket.Bind(0)
	require.NoError(t, err)
	defer peer.ShutDown()

	entry := sd.NewFindServiceEntry(rt.config.ServiceID + 1)
	peerAddr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: peer.LocalAddr().Port}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	rt.handleFindService(ctx, entry, peerAddr)

	select {
	case in := <-peer.InboundChan():
		t.Fatalf("unexpected reply for mismatched service_id: %+v", in)
	case <-ctx.Done():
	}
}

func TestHandleSubscribeAcksAndRegisters(t *testing.T) {
	rt := newTestRuntime(t)

	subscriber, err := socket.Bind(0)
	require.NoError(t, err)
	defer subscriber.ShutDown()

	peer, err := socket.Bind(0)
	require.NoError(t, err)
	defer peer.ShutDown()

	subscriberAddr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: subscriber.LocalAddr().Port}
	entry := sd.NewEventGroupEntry(sd.EntrySubscribe, sd.EventGroupEntry{
		OptionsCount: sd.OptionsCount{FirstCount: 1},
		ServiceID:    rt.config.ServiceID,
		InstanceID:   rt.config.InstanceID,
		EventGroupID: 0x01,
	})
	header := sd.NewHeader(sd.NewSDFlags(false), []sd.Entry{entry}, []sd.Option{sd.NewIPv4Endpoint(subscriberAddr)})
	peerAddr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: peer.LocalAddr().Port}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rt.handleSubscribe(ctx, *entry.EventGroup, header, peerAddr)

	select {
	case in := <-peer.InboundChan():
		require.NoError(t, in.Err)
		respHeader, err := in.Message.SDHeader()
		require.NoError(t, err)
		acks := respHeader.SubscribeAckEntries()
		require.Len(t, acks, 1)
		assert.False(t, acks[0].IsNack())
	case <-ctx.Done():
		t.Fatal("timed out waiting for subscribe ack")
	}

	key := subscriptionKey{ServiceID: rt.config.ServiceID, InstanceID: rt.config.InstanceID, EventGroupID: 0x01}
	assert.True(t, rt.subs.hasSubscribers(key))
	assert.Equal(t, 1, rt.subs.count(key))
}

func TestHandleSubscribeNacksOnServiceMismatch(t *testing.T) {
	rt := newTestRuntime(t)

	peer, err := socket.Bind(0)
	require.NoError(t, err)
	defer peer.ShutDown()

	entry := sd.NewEventGroupEntry(sd.EntrySubscribe, sd.EventGroupEntry{
		ServiceID:    rt.config.ServiceID + 1,
		InstanceID:   rt.config.InstanceID,
		EventGroupID: 0x01,
	})
	header := sd.NewHeader(sd.NewSDFlags(false), []sd.Entry{entry}, nil)
	peerAddr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: peer.LocalAddr().Port}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rt.handleSubscribe(ctx, *entry.EventGroup, header, peerAddr)

	select {
	case in := <-peer.InboundChan():
		require.NoError(t, in.Err)
		respHeader, err := in.Message.SDHeader()
		require.NoError(t, err)
		acks := respHeader.SubscribeAckEntries()
		require.Len(t, acks, 1)
		assert.True(t, acks[0].IsNack())
	case <-ctx.Done():
		t.Fatal("timed out waiting for subscribe nack")
	}

	key := subscriptionKey{ServiceID: rt.config.ServiceID + 1, InstanceID: rt.config.InstanceID, EventGroupID: 0x01}
	assert.False(t, rt.subs.hasSubscribers(key))
}

func TestPublisherSendsToSubscribers(t *testing.T) {
	rt := newTestRuntime(t)

	subscriber, err := socket.Bind(0)
	require.NoError(t, err)
	defer subscriber.ShutDown()

	key := subscriptionKey{ServiceID: rt.config.ServiceID, InstanceID: rt.config.InstanceID, EventGroupID: 0x01}
	rt.subs.insert(key, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: subscriber.LocalAddr().Port})

	pub := &Publisher{
		logger:     rt.logger,
		service:    rt.service,
		subs:       rt.subs,
		serviceID:  rt.config.ServiceID,
		instanceID: rt.config.InstanceID,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, pub.Publish(ctx, 0x01, 0x0001, []byte("event")))

	select {
	case in := <-subscriber.InboundChan():
		require.NoError(t, in.Err)
		assert.Equal(t, []byte("event"), in.Message.Payload)
		assert.True(t, in.Message.Header.MessageID.IsEvent())
	case <-ctx.Done():
		t.Fatal("timed out waiting for published event")
	}

	assert.True(t, pub.HasSubscribers(0x01))
	assert.Equal(t, 1, pub.SubscriberCount(0x01))
	assert.False(t, pub.HasSubscribers(0x02))
}

func TestPublishWithNoSubscribersIsNoop(t *testing.T) {
	rt := newTestRuntime(t)
	pub := &Publisher{logger: rt.logger, service: rt.service, subs: rt.subs, serviceID: rt.config.ServiceID, instanceID: rt.config.InstanceID}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, pub.Publish(ctx, 0x99, 0x0001, []byte("event")))
}
