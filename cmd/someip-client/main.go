// Command someip-client is a demo client: it finds a service over SD,
// subscribes to one of its event groups, and prints every notification it
// receives.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/samsamfire/someip/pkg/client"
	"github.com/samsamfire/someip/pkg/wire/sd"
)

var (
	defaultInterface    = "eth0"
	defaultServiceID    = 0x1234
	defaultInstanceID   = 0x0001
	defaultEventGroupID = 0x0001
	defaultClientID     = 0x0042
)

func main() {
	log.SetLevel(log.DebugLevel)

	iface := flag.String("i", defaultInterface, "network interface to bind discovery on")
	serviceID := flag.Int("service", defaultServiceID, "service_id to find")
	instanceID := flag.Int("instance", defaultInstanceID, "instance_id to subscribe to (FindService always matches any instance)")
	eventGroupID := flag.Int("event-group", defaultEventGroupID, "event_group_id to subscribe to")
	clientID := flag.Int("client-id", defaultClientID, "client_id stamped on requests")
	timeout := flag.Duration("timeout", 5*time.Second, "how long to wait for OfferService before giving up")
	flag.Parse()

	netIface, err := net.InterfaceByName(*iface)
	if err != nil {
		log.Fatalf("could not resolve interface %v: %v", *iface, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(uint16(*clientID))
	defer c.Shutdown()

	if err := c.SetInterface(ctx, netIface); err != nil {
		log.Fatalf("set interface failed: %v", err)
	}

	unicastPort, err := c.BindUnicast(ctx, 0)
	if err != nil {
		log.Fatalf("bind unicast failed: %v", err)
	}
	log.Infof("unicast socket bound on port %d", unicastPort)

	findEntry := sd.NewFindServiceEntry(uint16(*serviceID))
	findHeader := sd.NewHeader(sd.NewSDFlags(false), []sd.Entry{sd.NewServiceEntry(sd.EntryFindService, findEntry)}, nil)
	sdTarget := &net.UDPAddr{IP: sd.DiscoveryGroup, Port: sd.DiscoveryPort}

	if err := c.SendSDMessage(ctx, sdTarget, findHeader); err != nil {
		log.Fatalf("send FindService failed: %v", err)
	}
	log.Infof("sent FindService for service_id=0x%04x", *serviceID)

	findCtx, cancelFind := context.WithTimeout(ctx, *timeout)
	defer cancelFind()

	var serverEndpoint *net.UDPAddr
	for serverEndpoint == nil {
		select {
		case update, ok := <-c.Updates():
			if !ok {
				log.Fatal("client closed while waiting for OfferService")
			}
			if update.Err != nil {
				log.Warnf("update error: %v", update.Err)
				continue
			}
			if update.Discovery == nil {
				continue
			}
			serverEndpoint = findOfferedEndpoint(*update.Discovery, uint16(*serviceID))
		case <-findCtx.Done():
			log.Fatalf("timed out waiting for OfferService: %v", findCtx.Err())
		}
	}
	log.Infof("found service at %s", serverEndpoint)

	subscribeEntry := sd.NewEventGroupEntry(sd.EntrySubscribe, sd.EventGroupEntry{
		OptionsCount: sd.OptionsCount{FirstCount: 1},
		ServiceID:    uint16(*serviceID),
		InstanceID:   uint16(*instanceID),
		EventGroupID: uint16(*eventGroupID),
	})
	localUnicast := &net.UDPAddr{IP: netInterfaceIPv4(netIface), Port: unicastPort}
	subscribeHeader := sd.NewHeader(sd.NewSDFlags(false), []sd.Entry{subscribeEntry}, []sd.Option{sd.NewIPv4Endpoint(localUnicast)})

	if err := c.SendSDMessage(ctx, serverEndpoint, subscribeHeader); err != nil {
		log.Fatalf("send SubscribeEventGroup failed: %v", err)
	}
	log.Infof("sent SubscribeEventGroup for event_group_id=0x%04x", *eventGroupID)

	for {
		select {
		case update, ok := <-c.Updates():
			if !ok {
				log.Info("client closed, exiting")
				return
			}
			if update.Err != nil {
				log.Warnf("update error: %v", update.Err)
				continue
			}
			if update.Unicast != nil {
				log.Infof("notification from %s: %x", update.Unicast.From, update.Unicast.Message.Payload)
			}
			if update.Discovery != nil {
				for _, ack := range update.Discovery.SubscribeAckEntries() {
					log.Infof("subscribe ack: service_id=0x%04x nack=%v", ack.ServiceID, ack.IsNack())
				}
			}
		case <-ctx.Done():
			log.Info("shutting down")
			return
		}
	}
}

func findOfferedEndpoint(header sd.Header, serviceID uint16) *net.UDPAddr {
	for _, offer := range header.OfferServiceEntries() {
		if offer.ServiceID != serviceID {
			continue
		}
		for _, opt := range header.OptionsFor(offer.IndexFirstOptions, offer.OptionsCount.FirstCount) {
			if endpoint, ok := opt.(sd.IPv4Endpoint); ok {
				return endpoint.Addr()
			}
		}
	}
	return nil
}

func netInterfaceIPv4(iface *net.Interface) net.IP {
	addrs, err := iface.Addrs()
	if err != nil {
		return nil
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok {
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				return ip4
			}
		}
	}
	return nil
}
