// Wsecho-client talks to wsecho servers.
//
// It can send one-off messages and print the replies, open an interactive
// chat screen, or browse the local network for advertised servers.
//
// Usage:
//
//	wsecho-client [command] [flags]
//
// See 'wsecho-client --help' for available commands.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/wsecho/internal/client"
	"github.com/muurk/wsecho/internal/logging"
	"github.com/muurk/wsecho/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Connection flags shared by every command
var (
	credentials  string
	insecure     bool
	caFile       string
	timeout      time.Duration
	pingInterval time.Duration
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "wsecho-client",
	Short: "WebSocket client for wsecho servers",
	Long: `A WebSocket client for wsecho servers.

Use 'send' for scripted round trips, 'chat' for an interactive session and
'discover' to find servers advertised on the local network.`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&credentials, "user", "u", "", "Basic auth credentials as user:password")
	flags.BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")
	flags.StringVar(&caFile, "ca", "", "PEM file with the server certificate or its CA")
	flags.DurationVar(&timeout, "timeout", client.DefaultHandshakeTimeout, "Handshake and reply timeout")
	flags.DurationVar(&pingInterval, "ping-interval", 0, "Keepalive ping interval (0 = disabled)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); empty = silent")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(versionCmd)
}

// dialOptions builds client options from the shared flags.
func dialOptions() (client.Options, error) {
	tlsConfig, err := client.NewTLSConfig(caFile, insecure)
	if err != nil {
		return client.Options{}, err
	}
	return client.Options{
		Credentials:      credentials,
		TLSConfig:        tlsConfig,
		HandshakeTimeout: timeout,
		PingInterval:     pingInterval,
	}, nil
}
