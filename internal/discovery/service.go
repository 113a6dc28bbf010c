package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Service is a discovered wsecho server.
type Service struct {
	// Instance is the advertised instance name (e.g. "wsecho")
	Instance string

	// Hostname is the mDNS hostname (e.g. "build-box.local.")
	Hostname string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the listening port
	Port int

	// Secure is true when the server expects TLS
	Secure bool

	// AuthRequired is true when basic credentials are needed
	AuthRequired bool

	// Path is the WebSocket request path
	Path string

	// Metadata contains all TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the service was seen
	DiscoveredAt time.Time
}

// String returns a human-readable description of the service
func (s *Service) String() string {
	return fmt.Sprintf("%s (%s) at %s", s.Instance, s.Hostname, s.URL())
}

// URL returns the ws:// or wss:// URL of the service.
func (s *Service) URL() string {
	scheme := "ws"
	if s.Secure {
		scheme = "wss"
	}
	path := s.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s://%s%s", scheme, net.JoinHostPort(s.IP, strconv.Itoa(s.Port)), path)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Service) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
