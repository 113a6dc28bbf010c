package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/muurk/wsecho/internal/logging"
	"go.uber.org/zap"
)

const (
	// ServiceType is the DNS-SD service type wsecho servers register
	ServiceType = "_wsecho._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for discovery
	DefaultScanTimeout = 5 * time.Second
)

// Announcement describes what a server advertises.
type Announcement struct {
	Instance     string
	Port         int
	Secure       bool
	AuthRequired bool
	Path         string
	Version      string
}

// TXT returns the TXT records for the announcement.
func (a Announcement) TXT() []string {
	path := a.Path
	if path == "" {
		path = "/"
	}
	auth := "none"
	if a.AuthRequired {
		auth = "basic"
	}
	txt := []string{
		"path=" + path,
		"secure=" + strconv.FormatBool(a.Secure),
		"auth=" + auth,
	}
	if a.Version != "" {
		txt = append(txt, "version="+a.Version)
	}
	return txt
}

// Advertiser keeps an mDNS registration alive until Shutdown.
type Advertiser struct {
	server *zeroconf.Server
	once   sync.Once
}

// Advertise registers the announcement on all multicast interfaces.
func Advertise(a Announcement) (*Advertiser, error) {
	server, err := zeroconf.Register(a.Instance, ServiceType, ServiceDomain, a.Port, a.TXT(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising via mDNS",
		zap.String("instance", a.Instance),
		zap.String("service", ServiceType),
		zap.Int("port", a.Port),
		zap.Strings("txt", a.TXT()),
	)

	return &Advertiser{server: server}, nil
}

// Shutdown withdraws the registration. Safe to call more than once.
func (a *Advertiser) Shutdown() {
	if a == nil {
		return
	}
	a.once.Do(func() {
		a.server.Shutdown()
		logging.Debug("mDNS advertisement withdrawn")
	})
}

// Scanner handles mDNS service discovery
type Scanner struct {
	// Timeout is the maximum time to wait for services
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses for wsecho servers until the timeout or ctx ends.
func (s *Scanner) Scan(ctx context.Context) ([]*Service, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var (
		mu       sync.Mutex
		services = make([]*Service, 0)
		seen     = make(map[string]bool)
		done     = make(chan struct{})
	)

	go func() {
		defer close(done)
		for entry := range entries {
			svc := s.parseServiceEntry(entry)
			if svc == nil {
				continue
			}
			key := svc.Instance + "|" + svc.URL()
			mu.Lock()
			if !seen[key] {
				seen[key] = true
				services = append(services, svc)
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	// The resolver closes entries once the context ends
	select {
	case <-done:
	case <-time.After(time.Second):
	}

	mu.Lock()
	defer mu.Unlock()
	return services, nil
}

// parseServiceEntry converts a zeroconf service entry to a Service.
// Returns nil if the entry lacks a hostname or address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Service {
	if entry == nil || entry.HostName == "" {
		return nil
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	metadata := parseTXT(entry.Text)

	return &Service{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Secure:       metadata["secure"] == "true",
		AuthRequired: metadata["auth"] == "basic",
		Path:         metadata["path"],
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" records. Keys without a value map to "".
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}
	return metadata
}

// Scan is a convenience function to scan with a custom timeout
func Scan(ctx context.Context, timeout time.Duration) ([]*Service, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.Scan(ctx)
}
