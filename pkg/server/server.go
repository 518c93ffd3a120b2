// Package server implements the SOME/IP server runtime: a fixed-port
// unicast service socket and an SD socket, an announcer that periodically
// offers the service, and a receive loop that answers FindService and
// SubscribeEventGroup and hands out a Publisher for event delivery.
package server

import (
	"context"
	"fmt"

	"github.com/samsamfire/someip/pkg/socket"
)

// Server is the public handle to a running server's sockets. StartAnnouncing
// and Run are independent: call both to behave like a normal SOME/IP
// service, or only Run to respond passively without ever announcing.
type Server struct {
	rt *runtime
}

// New binds the unicast service socket on config.LocalPort and the SD
// socket on 0.0.0.0:30490 (with address reuse), joining the SD multicast
// group on config.Interface.
func New(config Config) (*Server, error) {
	service, err := socket.Bind(config.LocalPort)
	if err != nil {
		return nil, fmt.Errorf("someip/server: bind service socket: %w", err)
	}
	discovery, err := socket.BindDiscovery(config.Interface)
	if err != nil {
		service.ShutDown()
		return nil, fmt.Errorf("someip/server: bind discovery socket: %w", err)
	}

	rt := newRuntime(config, service, discovery)
	if discovery.LocalAddr().Port != socket.DiscoveryPort {
		rt.logger.Error(
			"discovery socket bound off the canonical SD port; other nodes cannot reach this server on 30490",
			"port", discovery.LocalAddr().Port)
	}
	return &Server{rt: rt}, nil
}

// StartAnnouncing spawns the announcer task, which sends OfferService to
// the SD multicast group once per second until ctx is done.
func (s *Server) StartAnnouncing(ctx context.Context) {
	go s.rt.announce(ctx)
}

// Publisher returns a handle for publishing events to this service's
// subscribers. The returned handle may be used concurrently from any
// goroutine and outlives any single call to Run.
func (s *Server) Publisher() *Publisher {
	return &Publisher{
		logger:     s.rt.logger,
		service:    s.rt.service,
		subs:       s.rt.subs,
		serviceID:  s.rt.config.ServiceID,
		instanceID: s.rt.config.InstanceID,
	}
}

// Run is the blocking receive loop: it answers FindService and
// SubscribeEventGroup requests until ctx is done or one of its sockets is
// closed, whether by Shutdown or otherwise.
func (s *Server) Run(ctx context.Context) error {
	return s.rt.run(ctx)
}

// Shutdown closes both sockets, which ends Run. The announcer keeps running
// until its ctx is done; its sends after Shutdown fail and are logged.
func (s *Server) Shutdown() {
	s.rt.service.ShutDown()
	s.rt.discovery.ShutDown()
}
