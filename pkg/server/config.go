package server

import (
	"net"
	"time"
)

// RebootPolicy controls when the SD reboot flag is set on outgoing
// OfferService and SubscribeAck messages. Setting it unconditionally on
// every announcement defeats its purpose (signaling a restart to peers
// so they can drop stale subscription state), so it is an explicit,
// opt-in policy instead of an always-on default.
type RebootPolicy uint8

const (
	// RebootFirstAnnouncementOnly sets the reboot flag on the first SD
	// message this server sends after process start, then clears it for
	// every message after. This is the default.
	RebootFirstAnnouncementOnly RebootPolicy = iota
	// RebootAlways sets the reboot flag on every SD message. Provided for
	// interop with peers that expect the always-set behavior; not the
	// default because it does not match the SOME/IP-SD specification's
	// intent for the flag.
	RebootAlways
)

const defaultTTL = 3 * time.Second

// wildcardServiceID matches any service_id in a FindService query.
const wildcardServiceID uint16 = 0xFFFF

// Config describes the one service instance this server offers.
type Config struct {
	Interface    *net.Interface
	LocalPort    int
	ServiceID    uint16
	InstanceID   uint16
	MajorVersion uint8
	MinorVersion uint32
	TTL          time.Duration
	RebootPolicy RebootPolicy
}

func (c Config) ttlSeconds() uint32 {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return uint32(ttl / time.Second)
}
