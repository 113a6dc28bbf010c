package server

import (
	"fmt"
)

// BindError reports a failure to open the listening socket.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to listen on %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// TLSConfigError reports a certificate or key that could not be loaded.
type TLSConfigError struct {
	CertPath string
	KeyPath  string
	Err      error
}

func (e *TLSConfigError) Error() string {
	return fmt.Sprintf("failed to load TLS certificate %s with key %s: %v", e.CertPath, e.KeyPath, e.Err)
}

func (e *TLSConfigError) Unwrap() error {
	return e.Err
}
