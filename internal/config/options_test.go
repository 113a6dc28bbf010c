package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "wsecho") {
		t.Errorf("GetConfigDir() = %v, should contain 'wsecho'", configDir)
	}
}

func TestGetConfigDirXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(dir, "wsecho"); got != want {
		t.Errorf("GetConfigDir() = %v, want %v", got, want)
	}
}

func TestLoadOptionsMissingFile(t *testing.T) {
	opts, err := LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOptions() error = %v", err)
	}
	if opts.Version != 1 {
		t.Errorf("Version = %d, want 1", opts.Version)
	}
	if opts.Server.CertFile != "cert.pem" || opts.Server.KeyFile != "server.pem" {
		t.Errorf("cert/key = %q/%q, want cert.pem/server.pem", opts.Server.CertFile, opts.Server.KeyFile)
	}
	if opts.Server.ReadLimit != DefaultReadLimit {
		t.Errorf("ReadLimit = %d, want %d", opts.Server.ReadLimit, DefaultReadLimit)
	}
}

func TestOptionsSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	opts := NewOptions()
	opts.Server.Host = "127.0.0.1"
	opts.Server.CertDir = "/etc/wsecho"
	opts.Server.PingInterval = Duration(30 * time.Second)
	opts.Server.Advertise = true

	if err := opts.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Error("temporary file should not remain after Save()")
	}

	loaded, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions() error = %v", err)
	}
	if loaded.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want 127.0.0.1", loaded.Server.Host)
	}
	if loaded.Server.CertDir != "/etc/wsecho" {
		t.Errorf("CertDir = %q, want /etc/wsecho", loaded.Server.CertDir)
	}
	if time.Duration(loaded.Server.PingInterval) != 30*time.Second {
		t.Errorf("PingInterval = %v, want 30s", time.Duration(loaded.Server.PingInterval))
	}
	if !loaded.Server.Advertise {
		t.Error("Advertise should round-trip as true")
	}
}

func TestLoadOptionsPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "version: 1\nserver:\n  host: 0.0.0.0\n  log_level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	opts, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions() error = %v", err)
	}
	if opts.Server.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", opts.Server.LogLevel)
	}
	if opts.Server.CertFile != DefaultCertFile {
		t.Errorf("CertFile = %q, want %q", opts.Server.CertFile, DefaultCertFile)
	}
	if opts.Server.ServiceName != DefaultServiceName {
		t.Errorf("ServiceName = %q, want %q", opts.Server.ServiceName, DefaultServiceName)
	}
}

func TestLoadOptionsErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"wrong version", "version: 2\n"},
		{"bad yaml", "version: [1\n"},
		{"bad duration", "version: 1\nserver:\n  ping_interval: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			_, err := LoadOptions(path)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("LoadOptions() error = %v, want *ConfigError", err)
			}
		})
	}
}

func TestExecutableDir(t *testing.T) {
	dir, err := ExecutableDir()
	if err != nil {
		t.Fatalf("ExecutableDir() error = %v", err)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ExecutableDir() = %q, want absolute path", dir)
	}
}
