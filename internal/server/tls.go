package server

import (
	"crypto/tls"
	"path/filepath"

	"github.com/muurk/wsecho/internal/logging"
	"go.uber.org/zap"
)

// NewTLSConfig loads a PEM certificate and key and returns a server-side
// TLS configuration. Load failures are returned as *TLSConfigError.
func NewTLSConfig(certPath, keyPath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, &TLSConfigError{CertPath: certPath, KeyPath: keyPath, Err: err}
	}

	logging.Info("TLS configuration created from files",
		zap.String("cert", certPath),
		zap.String("key", keyPath),
	)

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	// Per-connection copy so the completed handshake is logged with the
	// peer address, which tls.ConnectionState does not carry.
	cfg.GetConfigForClient = func(hello *tls.ClientHelloInfo) (*tls.Config, error) {
		remoteAddr := ""
		if hello.Conn != nil {
			remoteAddr = hello.Conn.RemoteAddr().String()
		}

		conn := cfg.Clone()
		conn.GetConfigForClient = nil
		conn.VerifyConnection = func(cs tls.ConnectionState) error {
			logging.LogTLSHandshake(remoteAddr, cs.Version, cs.CipherSuite, cs.ServerName)
			return nil
		}
		return conn, nil
	}

	return cfg, nil
}

// CertPaths resolves the certificate and key file names against dir.
// Absolute file names are returned unchanged.
func CertPaths(dir, certFile, keyFile string) (string, string) {
	resolve := func(name string) string {
		if filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(dir, name)
	}
	return resolve(certFile), resolve(keyFile)
}

// DescribeTLS returns human-readable TLS configuration information
func DescribeTLS(config *tls.Config) map[string]interface{} {
	if config == nil {
		return map[string]interface{}{"enabled": false}
	}

	info := map[string]interface{}{
		"enabled":         true,
		"min_version":     tls.VersionName(config.MinVersion),
		"num_certs":       len(config.Certificates),
		"session_tickets": !config.SessionTicketsDisabled,
	}
	if len(config.Certificates) > 0 && config.Certificates[0].Leaf != nil {
		leaf := config.Certificates[0].Leaf
		info["subject"] = leaf.Subject.CommonName
		info["not_after"] = leaf.NotAfter
	}
	return info
}
