// Command someip-server is a demo service: it announces itself over SD,
// answers FindService and SubscribeEventGroup, and publishes an
// incrementing counter event once a second to anyone subscribed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/samsamfire/someip/pkg/config"
	"github.com/samsamfire/someip/pkg/server"
)

var defaultServiceName = "default"

const (
	counterEventGroupID = 0x0001
	counterMethodID     = 0x0001
)

func main() {
	log.SetLevel(log.DebugLevel)

	configPath := flag.String("c", "", "path to the service config file (INI, see pkg/config)")
	serviceName := flag.String("service", defaultServiceName, "name of the [service.<name>] section to offer")
	flag.Parse()

	if *configPath == "" {
		log.Fatal("-c <config file> is required")
	}

	desc, err := loadServiceDescriptor(*configPath, *serviceName)
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	netIface, err := config.ResolveInterface(desc.Interface)
	if err != nil {
		log.Fatalf("could not resolve interface %v: %v", desc.Interface, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvConfig := server.Config{
		Interface:    netIface,
		LocalPort:    desc.LocalPort,
		ServiceID:    desc.ServiceID,
		InstanceID:   desc.InstanceID,
		MajorVersion: desc.MajorVersion,
		MinorVersion: desc.MinorVersion,
		TTL:          desc.TTL,
	}

	srv, err := server.New(srvConfig)
	if err != nil {
		log.Fatalf("could not start server: %v", err)
	}
	defer srv.Shutdown()

	srv.StartAnnouncing(ctx)
	log.Infof("announcing service_id=0x%04x instance_id=0x%04x on %s:%d",
		srvConfig.ServiceID, srvConfig.InstanceID, desc.Interface, desc.LocalPort)

	publisher := srv.Publisher()
	go publishCounter(ctx, publisher)

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("server run loop ended: %v", err)
	}
	log.Info("shutting down")
}

func loadServiceDescriptor(path, name string) (config.ServiceDescriptor, error) {
	file, err := config.Load(path)
	if err != nil {
		return config.ServiceDescriptor{}, err
	}
	for _, desc := range file.Services {
		if desc.Name == name {
			return desc, nil
		}
	}
	return config.ServiceDescriptor{}, fmt.Errorf("no [service.%s] section in %s", name, path)
}

func publishCounter(ctx context.Context, publisher *server.Publisher) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var counter uint32
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !publisher.HasSubscribers(counterEventGroupID) {
				continue
			}
			counter++
			payload := []byte{byte(counter >> 24), byte(counter >> 16), byte(counter >> 8), byte(counter)}
			if err := publisher.Publish(ctx, counterEventGroupID, counterMethodID, payload); err != nil {
				log.Warnf("publish failed: %v", err)
			}
		}
	}
}
