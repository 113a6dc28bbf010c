// Package config handles wsecho startup configuration.
//
// Two sources feed the server:
//
//   - Positional command-line values, parsed by ParseArgs into a ServerConfig:
//     port (default 8000), a "secure" flag and a basic-auth credentials string.
//   - An optional YAML options file for everything else (bind host, certificate
//     directory, log level, keepalive, mDNS advertisement).
//
// # Options File Location
//
//   - Linux: $XDG_CONFIG_HOME/wsecho/config.yaml or $HOME/.config/wsecho/config.yaml
//   - macOS: $HOME/.config/wsecho/config.yaml
//   - Windows: %LOCALAPPDATA%\wsecho\config.yaml
//
// A missing file is not an error; defaults are used.
//
// # Security
//
// Credentials are never read from or written to the options file. They are
// only accepted as the third positional argument.
package config
