package server

import (
	"context"
	"net"

	"github.com/samsamfire/someip/pkg/wire"
	"github.com/samsamfire/someip/pkg/wire/sd"
)

// handleFindService replies with a unicast OfferService when entry's
// service_id matches ours or is the wildcard.
func (r *runtime) handleFindService(ctx context.Context, entry sd.ServiceEntry, from *net.UDPAddr) {
	if entry.ServiceID != r.config.ServiceID && entry.ServiceID != wildcardServiceID {
		return
	}

	offer := sd.NewServiceEntry(sd.EntryOfferService, sd.ServiceEntry{
		OptionsCount: sd.OptionsCount{FirstCount: 1},
		ServiceID:    r.config.ServiceID,
		InstanceID:   r.config.InstanceID,
		MajorVersion: r.config.MajorVersion,
		TTL:          r.config.ttlSeconds(),
		MinorVersion: r.config.MinorVersion,
	})
	header := sd.NewHeader(sd.NewSDFlags(r.rebootFlag()), []sd.Entry{offer}, []sd.Option{r.serviceEndpointOption()})
	msg, err := wire.NewSDMessage(uint32(r.nextSessionCounter()), header)
	if err != nil {
		r.logger.Error("encode offer service reply failed", "error", err)
		return
	}
	if err := r.discovery.Send(ctx, from, msg); err != nil {
		r.logger.Error("send offer service reply failed", "error", err, "to", from)
	}
}

// handleSubscribe validates the request against our configuration,
// registers the subscriber's endpoint on a match, and always replies with
// a SubscribeAck (ttl=0 meaning Nack on mismatch).
func (r *runtime) handleSubscribe(ctx context.Context, entry sd.EventGroupEntry, header sd.Header, from *net.UDPAddr) {
	nack := entry.ServiceID != r.config.ServiceID || entry.InstanceID != r.config.InstanceID

	var endpoint *net.UDPAddr
	if !nack {
		for _, opt := range header.OptionsFor(entry.IndexFirstOptions, entry.OptionsCount.FirstCount) {
			if ep, ok := opt.(sd.IPv4Endpoint); ok {
				endpoint = ep.Addr()
				break
			}
		}
		if endpoint == nil {
			nack = true
			r.logger.Error("subscribe carries no IPv4 endpoint option",
				"service_id", entry.ServiceID, "event_group_id", entry.EventGroupID, "from", from)
		}
	}

	ttl := r.config.ttlSeconds()
	if nack {
		ttl = 0
		r.logger.Info("subscribe rejected",
			"service_id", entry.ServiceID, "instance_id", entry.InstanceID,
			"event_group_id", entry.EventGroupID, "from", from)
	} else {
		key := subscriptionKey{ServiceID: entry.ServiceID, InstanceID: entry.InstanceID, EventGroupID: entry.EventGroupID}
		r.subs.insert(key, endpoint)
	}

	ack := sd.NewEventGroupEntry(sd.EntrySubscribeAck, sd.EventGroupEntry{
		ServiceID:    entry.ServiceID,
		InstanceID:   entry.InstanceID,
		MajorVersion: entry.MajorVersion,
		TTL:          ttl,
		EventGroupID: entry.EventGroupID,
	})
	ackHeader := sd.NewHeader(sd.NewSDFlags(r.rebootFlag()), []sd.Entry{ack}, nil)
	msg, err := wire.NewSDMessage(uint32(r.nextSessionCounter()), ackHeader)
	if err != nil {
		r.logger.Error("encode subscribe ack failed", "error", err)
		return
	}
	if err := r.discovery.Send(ctx, from, msg); err != nil {
		r.logger.Error("send subscribe ack failed", "error", err, "to", from)
	}
}
