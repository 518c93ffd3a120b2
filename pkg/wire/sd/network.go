package sd

import "net"

// DiscoveryPort is the well-known SD port, 30490.
const DiscoveryPort = 30490

// DiscoveryGroup is the well-known SD multicast group.
var DiscoveryGroup = net.IPv4(239, 255, 0, 255)
