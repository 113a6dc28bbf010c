package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "wsecho"
	configFile = "config.yaml"

	optionsVersion = 1

	// DefaultCertFile and DefaultKeyFile are looked up in the certificate directory.
	DefaultCertFile = "cert.pem"
	DefaultKeyFile  = "server.pem"

	// DefaultReadLimit caps a single inbound WebSocket message.
	DefaultReadLimit = 1 << 16

	// DefaultServiceName is the mDNS instance name when none is configured.
	DefaultServiceName = "wsecho"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// Options is the on-disk options file.
type Options struct {
	Version int            `yaml:"version"`
	Server  *ServerOptions `yaml:"server,omitempty"`
}

// ServerOptions configures everything the positional arguments don't.
type ServerOptions struct {
	// Host is the bind host, empty = all interfaces
	Host string `yaml:"host"`
	// CertDir holds CertFile and KeyFile, empty = executable dir
	CertDir  string `yaml:"cert_dir,omitempty"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	// StaticDir is served for plain HTTP GETs
	StaticDir string `yaml:"static_dir,omitempty"`
	// LogLevel empty = WSECHO_LOG_LEVEL or silent
	LogLevel  string `yaml:"log_level"`
	ReadLimit int64  `yaml:"read_limit"`
	// PingInterval 0 disables keepalive pings
	PingInterval Duration `yaml:"ping_interval"`
	// Advertise registers the server via mDNS
	Advertise   bool   `yaml:"advertise"`
	ServiceName string `yaml:"service_name"`
}

// Duration is a time.Duration that reads and writes as a Go duration string.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// NewOptions returns options with default values.
func NewOptions() *Options {
	return &Options{
		Version: optionsVersion,
		Server:  DefaultServerOptions(),
	}
}

// DefaultServerOptions returns the built-in server defaults.
func DefaultServerOptions() *ServerOptions {
	return &ServerOptions{
		CertFile:    DefaultCertFile,
		KeyFile:     DefaultKeyFile,
		ReadLimit:   DefaultReadLimit,
		ServiceName: DefaultServiceName,
	}
}

// GetConfigDir returns the OS-appropriate configuration directory for the application.
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the default options file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// LoadOptions reads the options file at path, or the default location when
// path is empty. A missing file yields defaults.
func LoadOptions(path string) (*Options, error) {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewOptions(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read options file: %w", err)
	}

	opts := NewOptions()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, &ConfigError{Arg: "options", Value: path, Err: err}
	}

	if opts.Version != optionsVersion {
		return nil, &ConfigError{
			Arg:   "options",
			Value: path,
			Err:   fmt.Errorf("unsupported options version: %d (expected %d)", opts.Version, optionsVersion),
		}
	}

	opts.fillDefaults()
	return opts, nil
}

func (o *Options) fillDefaults() {
	defaults := DefaultServerOptions()
	if o.Server == nil {
		o.Server = defaults
		return
	}
	if o.Server.CertFile == "" {
		o.Server.CertFile = defaults.CertFile
	}
	if o.Server.KeyFile == "" {
		o.Server.KeyFile = defaults.KeyFile
	}
	if o.Server.ReadLimit <= 0 {
		o.Server.ReadLimit = defaults.ReadLimit
	}
	if o.Server.ServiceName == "" {
		o.Server.ServiceName = defaults.ServiceName
	}
}

// Save writes the options to path, or the default location when path is empty.
// Performs an atomic write to prevent corruption on crash.
func (o *Options) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	header := []byte(`# wsecho server options
# Port, secure mode and credentials are positional arguments only:
#   wsecho-server [port] [secure] [credentials]
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary options file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save options file: %w", err)
	}

	return nil
}

// ExecutableDir returns the directory holding the running binary with
// symlinks resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("cannot locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
