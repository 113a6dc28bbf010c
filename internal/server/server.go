package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/muurk/wsecho/internal/config"
	"github.com/muurk/wsecho/internal/discovery"
	"github.com/muurk/wsecho/internal/logging"
	"github.com/muurk/wsecho/internal/version"
	"github.com/muurk/wsecho/internal/wshandler"
	"go.uber.org/zap"
)

// Config holds the server configuration
type Config struct {
	Host        string // Bind host, empty = all interfaces
	Port        int
	Secure      bool
	Credentials string // "user:password" for basic auth, empty = no auth

	CertDir  string // Directory holding CertFile and KeyFile (empty = executable dir)
	CertFile string // Certificate file name (default cert.pem)
	KeyFile  string // Private key file name (default server.pem)

	StaticDir    string        // Files served for non-upgrade requests (empty = disabled)
	LogLevel     string        // Empty = WSECHO_LOG_LEVEL or silent
	ReadLimit    int64         // Max inbound message size
	PingInterval time.Duration // Keepalive ping period (0 = disabled)

	Advertise   bool   // Register via mDNS once listening
	ServiceName string // mDNS instance name
}

// Server is the WebSocket server shell: one listener, one goroutine per connection.
type Server struct {
	config     *Config
	token      wshandler.AuthToken
	endpoint   *wshandler.Endpoint
	httpServer *http.Server
	started    time.Time

	mu         sync.Mutex
	listener   net.Listener
	tlsConfig  *tls.Config
	advertiser *discovery.Advertiser

	state        atomic.Int32
	shuttingDown atomic.Bool
}

// New creates a new Server instance around handler.
func New(cfg *Config, handler wshandler.Handler) (*Server, error) {
	if handler == nil {
		return nil, errors.New("handler is required")
	}

	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	c := *cfg
	if c.CertFile == "" {
		c.CertFile = config.DefaultCertFile
	}
	if c.KeyFile == "" {
		c.KeyFile = config.DefaultKeyFile
	}
	if c.ServiceName == "" {
		c.ServiceName = config.DefaultServiceName
	}

	s := &Server{
		config:  &c,
		token:   wshandler.AuthToken(config.EncodeCredentials(c.Credentials)),
		started: time.Now(),
	}

	var fallback http.Handler
	if c.StaticDir != "" {
		fallback = http.FileServer(http.Dir(c.StaticDir))
	}

	s.endpoint = wshandler.NewEndpoint(handler, s.token, wshandler.Options{
		ReadLimit:    c.ReadLimit,
		PingInterval: c.PingInterval,
		Fallback:     fallback,
	})

	s.httpServer = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logging.StdLogger(),
	}

	s.state.Store(int32(StateUnconfigured))
	return s, nil
}

// Listen binds the listening socket and, in secure mode, wraps it in TLS.
// On any failure nothing remains bound.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.State(); st != StateUnconfigured {
		return fmt.Errorf("cannot listen from state %s", st)
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.setState(StateShutdown)
		return &BindError{Addr: addr, Err: err}
	}
	s.listener = ln
	s.setState(StateListening)

	logging.Info("Server listening for connections",
		zap.String("addr", ln.Addr().String()),
	)

	if !s.config.Secure {
		return nil
	}

	certPath, keyPath, err := s.certPaths()
	if err == nil {
		s.tlsConfig, err = NewTLSConfig(certPath, keyPath)
	}
	if err != nil {
		_ = ln.Close()
		s.listener = nil
		s.setState(StateShutdown)
		return err
	}

	s.listener = tls.NewListener(ln, s.tlsConfig)
	s.setState(StateTLSListening)

	logging.Info("TLS Configuration",
		zap.Any("tls_info", DescribeTLS(s.tlsConfig)),
	)

	return nil
}

func (s *Server) certPaths() (string, string, error) {
	dir := s.config.CertDir
	if dir == "" {
		var err error
		dir, err = config.ExecutableDir()
		if err != nil {
			return "", "", &TLSConfigError{
				CertPath: s.config.CertFile,
				KeyPath:  s.config.KeyFile,
				Err:      err,
			}
		}
	}
	certPath, keyPath := CertPaths(dir, s.config.CertFile, s.config.KeyFile)
	return certPath, keyPath, nil
}

// Serve accepts connections until Shutdown is called or ctx is cancelled.
// Each connection is served on its own goroutine. Returns nil on shutdown.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	st := s.State()
	if st != StateListening && st != StateTLSListening {
		s.mu.Unlock()
		return fmt.Errorf("cannot serve from state %s", st)
	}
	ln := s.listener
	s.setState(StateServing)
	s.mu.Unlock()

	if s.config.Advertise {
		s.advertise()
	}

	stop := context.AfterFunc(ctx, func() {
		logging.Info("Shutdown signal received, stopping server...")
		_ = s.Shutdown()
	})
	defer stop()

	logging.Info("Starting WebSocket server",
		zap.String("addr", ln.Addr().String()),
		zap.Bool("secure", s.config.Secure),
		zap.Bool("auth", s.token.Required()),
		zap.Stringer("endpoint", s.endpoint),
	)

	err := s.httpServer.Serve(ln)
	if s.shuttingDown.Load() {
		return nil
	}
	return fmt.Errorf("serve loop failed: %w", err)
}

func (s *Server) advertise() {
	port := s.config.Port
	if addr, ok := s.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}

	adv, err := discovery.Advertise(discovery.Announcement{
		Instance:     s.config.ServiceName,
		Port:         port,
		Secure:       s.config.Secure,
		AuthRequired: s.token.Required(),
		Path:         "/",
		Version:      version.Version,
	})
	if err != nil {
		// Advertising is optional; the server still works by address
		logging.Warn("mDNS advertisement failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.advertiser = adv
	s.mu.Unlock()
}

// Shutdown stops accepting connections and closes the listening socket.
// Connections already accepted are not closed or waited for; they end on
// their own I/O errors or when the process exits. Safe to call repeatedly.
func (s *Server) Shutdown() error {
	if !s.shuttingDown.CompareAndSwap(false, true) {
		return nil
	}

	logging.Info("Shutting down server...",
		zap.Int64("abandoned_connections", s.endpoint.Active()),
	)

	s.mu.Lock()
	ln := s.listener
	adv := s.advertiser
	s.setState(StateShutdown)
	s.mu.Unlock()

	adv.Shutdown()

	var err error
	if ln != nil {
		if cerr := ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			logging.Error("Error closing listener", zap.Error(cerr))
			err = fmt.Errorf("failed to close listener: %w", cerr)
		}
	}

	logging.Sync()
	return err
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// AuthToken returns the base64 credentials token handed to every connection.
func (s *Server) AuthToken() string {
	return string(s.token)
}

// Secure reports whether the listener is TLS-wrapped.
func (s *Server) Secure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tlsConfig != nil
}

// ActiveConnections returns the number of open WebSocket connections.
func (s *Server) ActiveConnections() int64 {
	return s.endpoint.Active()
}

// State returns the lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

func (s *Server) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	logging.Debug("Server state change",
		zap.Stringer("from", prev),
		zap.Stringer("to", st),
	)
}
