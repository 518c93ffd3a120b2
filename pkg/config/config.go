// Package config loads static SOME/IP service and client endpoint
// descriptors from an INI file, one section per entity with a flat
// key/value body, the same shape an EDS object dictionary file uses for
// CANopen communication parameters.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// ServiceDescriptor is one statically configured SOME/IP service instance,
// read from an INI section named "service.<name>".
type ServiceDescriptor struct {
	Name         string
	Interface    string
	LocalPort    int
	ServiceID    uint16
	InstanceID   uint16
	MajorVersion uint8
	MinorVersion uint32
	TTL          time.Duration
}

// ClientDescriptor is the client-side counterpart, read from the single
// "client" section.
type ClientDescriptor struct {
	Interface string
	ClientID  uint16
}

// File is a fully parsed static configuration file.
type File struct {
	Client   ClientDescriptor
	Services []ServiceDescriptor
}

const serviceSectionPrefix = "service."

// Load reads file — a path, []byte, or anything else gopkg.in/ini.v1
// accepts — into a File.
func Load(file any) (*File, error) {
	src, err := ini.Load(file)
	if err != nil {
		return nil, fmt.Errorf("someip/config: load: %w", err)
	}

	f := &File{}
	if section, err := src.GetSection("client"); err == nil {
		f.Client = ClientDescriptor{
			Interface: section.Key("Interface").String(),
			ClientID:  uint16(section.Key("ClientID").MustUint(0)),
		}
	}

	for _, section := range src.Sections() {
		name := section.Name()
		if !strings.HasPrefix(name, serviceSectionPrefix) {
			continue
		}
		desc, err := parseServiceSection(section, strings.TrimPrefix(name, serviceSectionPrefix))
		if err != nil {
			return nil, err
		}
		f.Services = append(f.Services, desc)
	}

	return f, nil
}

func parseServiceSection(section *ini.Section, name string) (ServiceDescriptor, error) {
	serviceID, err := strconv.ParseUint(section.Key("ServiceID").Value(), 0, 16)
	if err != nil {
		return ServiceDescriptor{}, fmt.Errorf("someip/config: section %q: ServiceID: %w", section.Name(), err)
	}
	instanceID, err := strconv.ParseUint(section.Key("InstanceID").Value(), 0, 16)
	if err != nil {
		return ServiceDescriptor{}, fmt.Errorf("someip/config: section %q: InstanceID: %w", section.Name(), err)
	}

	ttlSeconds := section.Key("TTL").MustInt(3)

	return ServiceDescriptor{
		Name:         name,
		Interface:    section.Key("Interface").String(),
		LocalPort:    section.Key("LocalPort").MustInt(0),
		ServiceID:    uint16(serviceID),
		InstanceID:   uint16(instanceID),
		MajorVersion: uint8(section.Key("MajorVersion").MustUint(0)),
		MinorVersion: uint32(section.Key("MinorVersion").MustUint64(0)),
		TTL:          time.Duration(ttlSeconds) * time.Second,
	}, nil
}

// ResolveInterface looks up the network interface named in a descriptor's
// Interface field.
func ResolveInterface(name string) (*net.Interface, error) {
	if name == "" {
		return nil, fmt.Errorf("someip/config: empty interface name")
	}
	return net.InterfaceByName(name)
}
