package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[client]
Interface = eth0
ClientID = 0x0001

[service.temperature]
Interface = eth0
LocalPort = 30509
ServiceID = 0x1234
InstanceID = 0x0001
MajorVersion = 1
MinorVersion = 0
TTL = 5

[service.door_lock]
Interface = eth0
LocalPort = 30510
ServiceID = 0x1235
InstanceID = 0x0001
MajorVersion = 1
MinorVersion = 0
`

func TestLoadParsesClientAndServices(t *testing.T) {
	f, err := Load([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "eth0", f.Client.Interface)
	assert.Equal(t, uint16(1), f.Client.ClientID)

	require.Len(t, f.Services, 2)

	byName := make(map[string]ServiceDescriptor, len(f.Services))
	for _, svc := range f.Services {
		byName[svc.Name] = svc
	}

	temp, ok := byName["temperature"]
	require.True(t, ok)
	assert.Equal(t, uint16(0x1234), temp.ServiceID)
	assert.Equal(t, uint16(0x0001), temp.InstanceID)
	assert.Equal(t, uint8(1), temp.MajorVersion)
	assert.Equal(t, 30509, temp.LocalPort)
	assert.Equal(t, 5*time.Second, temp.TTL)

	doorLock, ok := byName["door_lock"]
	require.True(t, ok)
	assert.Equal(t, uint16(0x1235), doorLock.ServiceID)
	assert.Equal(t, 3*time.Second, doorLock.TTL) // default when TTL is absent
}

func TestLoadRejectsMalformedServiceID(t *testing.T) {
	const bad = `
[service.broken]
ServiceID = not-a-number
InstanceID = 1
`
	_, err := Load([]byte(bad))
	assert.Error(t, err)
}

func TestResolveInterfaceRejectsEmptyName(t *testing.T) {
	_, err := ResolveInterface("")
	assert.Error(t, err)
}
