package config

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultPort is used when no port argument is given.
	DefaultPort = 8000

	// SecureKeyword enables TLS when passed as the second argument (any case).
	SecureKeyword = "secure"

	maxArgs = 3
)

// ServerConfig holds the positional startup values. It is immutable once parsed.
type ServerConfig struct {
	Port        int
	Secure      bool
	Credentials string
}

// ConfigError reports malformed startup input.
type ConfigError struct {
	// Arg names the offending input ("port", "args", "options").
	Arg string
	// Value is the raw input, if any.
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %v", e.Arg, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s: %v", e.Arg, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ParseArgs reads up to three positional values: port, secure flag, credentials.
func ParseArgs(args []string) (ServerConfig, error) {
	cfg := ServerConfig{Port: DefaultPort}

	if len(args) > maxArgs {
		return ServerConfig{}, &ConfigError{
			Arg: "args",
			Err: fmt.Errorf("expected at most %d arguments, got %d", maxArgs, len(args)),
		}
	}

	if len(args) > 0 {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return ServerConfig{}, &ConfigError{Arg: "port", Value: args[0], Err: err}
		}
		cfg.Port = port
	}

	if len(args) > 1 {
		cfg.Secure = IsSecureKeyword(args[1])
	}

	if len(args) > 2 {
		cfg.Credentials = args[2]
	}

	return cfg, nil
}

// IsSecureKeyword reports whether arg selects TLS mode.
func IsSecureKeyword(arg string) bool {
	return strings.EqualFold(arg, SecureKeyword)
}

// AuthToken returns the base64 encoding of the raw credentials, the value a
// client sends after "Basic " in its Authorization header.
func (c ServerConfig) AuthToken() string {
	return EncodeCredentials(c.Credentials)
}

// EncodeCredentials base64-encodes a "user:password" string.
func EncodeCredentials(credentials string) string {
	return base64.StdEncoding.EncodeToString([]byte(credentials))
}

// Mode returns "https" for secure configurations and "http" otherwise.
func (c ServerConfig) Mode() string {
	if c.Secure {
		return "https"
	}
	return "http"
}
