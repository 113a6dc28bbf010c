// Package certs generates self-signed TLS material for secure mode.
//
// The server expects a certificate and a private key in PEM encoding beside
// its executable (cert.pem and server.pem by default). GenerateSelfSigned and
// WriteFiles produce such a pair for local testing.
package certs

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// CertificateError reports a failure while generating or persisting certificates.
type CertificateError struct {
	// Operation is the step that failed (e.g. "generate_key", "write")
	Operation string
	// Path is the file involved, if any
	Path string
	Err  error
}

func (e *CertificateError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("certificate %s failed for %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("certificate %s failed: %v", e.Operation, e.Err)
}

func (e *CertificateError) Unwrap() error {
	return e.Err
}

// Params holds parameters for generating a server certificate.
type Params struct {
	// CommonName is the CN field (default: localhost)
	CommonName string
	// Organization is the O field
	Organization string
	// Hosts are DNS names or IP addresses placed in the SAN extension
	Hosts []string
	// ValidDays is certificate validity in days (default: 365)
	ValidDays int
	// KeyBits is the RSA key size (default: 2048)
	KeyBits int
}

// DefaultParams returns parameters suitable for a loopback test server.
func DefaultParams() Params {
	return Params{
		CommonName:   "localhost",
		Organization: "wsecho",
		Hosts:        []string{"localhost", "127.0.0.1", "::1"},
		ValidDays:    365,
		KeyBits:      2048,
	}
}

// Pair is a generated certificate and its key.
type Pair struct {
	// CertPEM is the certificate in PEM format
	CertPEM []byte
	// KeyPEM is the PKCS#1 private key in PEM format
	KeyPEM []byte
	// Certificate is the parsed x509 certificate
	Certificate *x509.Certificate
}

// GenerateSelfSigned creates a self-signed server certificate:
//   - RSA key (2048-bit unless overridden)
//   - SHA-256 signature
//   - Key usage: digitalSignature, keyEncipherment, certSign
//   - Extended key usage: serverAuth
func GenerateSelfSigned(params Params) (*Pair, error) {
	if params.KeyBits == 0 {
		params.KeyBits = 2048
	}
	if params.ValidDays == 0 {
		params.ValidDays = 365
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, params.KeyBits)
	if err != nil {
		return nil, &CertificateError{Operation: "generate_key", Err: err}
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, &CertificateError{Operation: "generate_serial", Err: err}
	}

	notBefore := time.Now().Add(-time.Minute)
	notAfter := notBefore.AddDate(0, 0, params.ValidDays)

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{params.Organization},
			CommonName:   params.CommonName,
		},
		NotBefore: notBefore,
		NotAfter:  notAfter,

		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment | x509.KeyUsageCertSign,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},

		// Self-signed, so it doubles as its own root for clients that pin it
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	for _, host := range params.Hosts {
		if ip := net.ParseIP(host); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, host)
		}
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, &CertificateError{Operation: "create_certificate", Err: err}
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, &CertificateError{Operation: "parse_certificate", Err: err}
	}

	return &Pair{
		CertPEM: pem.EncodeToMemory(&pem.Block{
			Type:  "CERTIFICATE",
			Bytes: certDER,
		}),
		KeyPEM: pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
		}),
		Certificate: cert,
	}, nil
}

// WriteFiles writes the pair into dir. The key file is created with 0600
// permissions. Existing files are overwritten.
func (p *Pair) WriteFiles(dir, certName, keyName string) (certPath, keyPath string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", &CertificateError{Operation: "mkdir", Path: dir, Err: err}
	}

	certPath = filepath.Join(dir, certName)
	keyPath = filepath.Join(dir, keyName)

	if err := os.WriteFile(certPath, p.CertPEM, 0644); err != nil {
		return "", "", &CertificateError{Operation: "write", Path: certPath, Err: err}
	}
	if err := os.WriteFile(keyPath, p.KeyPEM, 0600); err != nil {
		return "", "", &CertificateError{Operation: "write", Path: keyPath, Err: err}
	}

	return certPath, keyPath, nil
}

// CertPool returns a pool containing only this certificate, for clients
// that should trust the generated server.
func (p *Pair) CertPool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(p.Certificate)
	return pool
}
