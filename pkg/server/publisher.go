package server

import (
	"context"
	"log/slog"

	"github.com/samsamfire/someip/pkg/socket"
	"github.com/samsamfire/someip/pkg/wire"
)

// Publisher is a clonable handle for publishing events to one service's
// subscribers. Unlike Server, it is safe to use from any goroutine: it
// only ever reads the subscription table and sends on the (internally
// synchronized) service socket.
type Publisher struct {
	logger     *slog.Logger
	service    *socket.Manager
	subs       *subscriptions
	serviceID  uint16
	instanceID uint16
}

// Publish serializes payload once as a Notification for eventGroupID/
// methodID and sends it to every current subscriber's endpoint. A
// per-subscriber send error is logged and does not fail the publish or
// stop delivery to the remaining subscribers. Publishing to an event
// group with no subscribers is a no-op, not an error.
func (p *Publisher) Publish(ctx context.Context, eventGroupID, methodID uint16, payload []byte) error {
	key := subscriptionKey{ServiceID: p.serviceID, InstanceID: p.instanceID, EventGroupID: eventGroupID}
	endpoints := p.subs.endpoints(key)
	if len(endpoints) == 0 {
		return nil
	}

	id := wire.NewEventMessageID(p.serviceID, methodID)
	msg := wire.NewNotificationMessage(id, 0, 1, payload)

	for _, endpoint := range endpoints {
		if err := p.service.Send(ctx, endpoint, msg); err != nil {
			p.logger.Error("publish to subscriber failed",
				"endpoint", endpoint, "service_id", p.serviceID,
				"event_group_id", eventGroupID, "error", err)
		}
	}
	return nil
}

// HasSubscribers reports whether any endpoint is subscribed to eventGroupID.
func (p *Publisher) HasSubscribers(eventGroupID uint16) bool {
	key := subscriptionKey{ServiceID: p.serviceID, InstanceID: p.instanceID, EventGroupID: eventGroupID}
	return p.subs.hasSubscribers(key)
}

// SubscriberCount returns the number of distinct endpoints subscribed to
// eventGroupID.
func (p *Publisher) SubscriberCount(eventGroupID uint16) int {
	key := subscriptionKey{ServiceID: p.serviceID, InstanceID: p.instanceID, EventGroupID: eventGroupID}
	return p.subs.count(key)
}
