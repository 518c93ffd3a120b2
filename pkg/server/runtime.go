package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/samsamfire/someip/pkg/socket"
	"github.com/samsamfire/someip/pkg/wire"
	"github.com/samsamfire/someip/pkg/wire/sd"
)

// announceInterval is the announcer's period: a floor, not a deadline.
const announceInterval = time.Second

// runtime is the server's inner task: it owns the service socket, the SD
// socket, and the subscription table, and is the only goroutine that ever
// mutates the table's writer side. The announcer and the receive loop both
// run against this struct but never concurrently mutate the same field
// (the announcer only reads config and advances its own session counter
// under the single-goroutine discipline each runs in).
type runtime struct {
	logger *slog.Logger

	config    Config
	service   *socket.Manager
	discovery *socket.Manager
	subs      *subscriptions

	sessionCounter uint16
	announced      bool
}

func newRuntime(config Config, service, discovery *socket.Manager) *runtime {
	return &runtime{
		logger:    slog.Default(),
		config:    config,
		service:   service,
		discovery: discovery,
		subs:      newSubscriptions(),
	}
}

func (r *runtime) nextSessionCounter() uint16 {
	r.sessionCounter++
	if r.sessionCounter == 0 {
		r.sessionCounter = 1
	}
	return r.sessionCounter
}

// rebootFlag reports the reboot bit to use on the next SD message this
// server sends, per r.config.RebootPolicy.
func (r *runtime) rebootFlag() bool {
	if r.config.RebootPolicy == RebootAlways {
		return true
	}
	first := !r.announced
	r.announced = true
	return first
}

func (r *runtime) serviceEndpointOption() sd.IPv4Endpoint {
	ip := interfaceIPv4(r.config.Interface)
	return sd.NewIPv4Endpoint(&net.UDPAddr{IP: ip, Port: r.config.LocalPort})
}

// announce runs the periodic OfferService announcer until ctx is done.
func (r *runtime) announce(ctx context.Context) {
	target := &net.UDPAddr{IP: socket.DiscoveryGroup, Port: socket.DiscoveryPort}
	ticker := time.NewTicker(announceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.sendOfferService(ctx, target); err != nil {
				r.logger.Error("announce offer service failed", "error", err)
			}
		}
	}
}

func (r *runtime) sendOfferService(ctx context.Context, target *net.UDPAddr) error {
	entry := sd.NewServiceEntry(sd.EntryOfferService, sd.ServiceEntry{
		OptionsCount: sd.OptionsCount{FirstCount: 1},
		ServiceID:    r.config.ServiceID,
		InstanceID:   r.config.InstanceID,
		MajorVersion: r.config.MajorVersion,
		TTL:          r.config.ttlSeconds(),
		MinorVersion: r.config.MinorVersion,
	})
	header := sd.NewHeader(sd.NewSDFlags(r.rebootFlag()), []sd.Entry{entry}, []sd.Option{r.serviceEndpointOption()})
	msg, err := wire.NewSDMessage(uint32(r.nextSessionCounter()), header)
	if err != nil {
		return err
	}
	return r.discovery.Send(ctx, target, msg)
}

// run is the receive loop: it selects over the unicast service socket and
// the SD socket until either ends or ctx is done.
func (r *runtime) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case in, ok := <-r.service.InboundChan():
			if !ok {
				return ErrSocketClosedUnexpectedly
			}
			r.handleServiceInbound(in)

		case in, ok := <-r.discovery.InboundChan():
			if !ok {
				return ErrSocketClosedUnexpectedly
			}
			r.handleDiscoveryInbound(ctx, in)
		}
	}
}

func (r *runtime) handleServiceInbound(in socket.Inbound) {
	if in.Err != nil {
		r.logger.Error("service socket decode error", "error", in.Err)
		return
	}
	// Application-level method dispatch beyond Service Discovery is out
	// of scope; a concrete service would branch on in.Message.Header.MessageID here.
	r.logger.Debug("unicast message received on service socket",
		"from", in.From, "message_id", in.Message.Header.MessageID)
}

func (r *runtime) handleDiscoveryInbound(ctx context.Context, in socket.Inbound) {
	if in.Err != nil {
		r.logger.Error("discovery socket decode error", "error", in.Err)
		return
	}
	if r.isSelfEcho(in.From) {
		return
	}
	header, err := in.Message.SDHeader()
	if err != nil {
		r.logger.Error("discovery message is not a valid SD header", "error", err)
		return
	}
	for _, entry := range header.FindServiceEntries() {
		r.handleFindService(ctx, entry, in.From)
	}
	for _, entry := range header.SubscribeEntries() {
		r.handleSubscribe(ctx, entry, header, in.From)
	}
}

// isSelfEcho reports whether in came back from this server's own SD
// socket. It compares (source IP, source port) against the configured
// interface's address and the SD socket's bound port, not source IP
// alone, since the socket itself is bound to 0.0.0.0 and its LocalAddr
// carries no usable IP for comparison.
func (r *runtime) isSelfEcho(from *net.UDPAddr) bool {
	if from.Port != r.discovery.LocalAddr().Port {
		return false
	}
	ifaceIP := interfaceIPv4(r.config.Interface)
	return ifaceIP != nil && from.IP.Equal(ifaceIP)
}
