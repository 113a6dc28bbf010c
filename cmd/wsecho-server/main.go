// Wsecho-server is a WebSocket echo server.
//
// It takes up to three positional arguments, all optional:
//
//	wsecho-server [port] [secure] [credentials]
//
// port defaults to 8000. When the second argument is "secure" (any case) the
// listener is wrapped in TLS using cert.pem and server.pem from the
// directory holding the executable. credentials ("user:password") enables
// basic authentication for every request.
//
// Everything else comes from the options file or flags; see
// 'wsecho-server --help'.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/wsecho/internal/config"
	"github.com/muurk/wsecho/internal/echo"
	"github.com/muurk/wsecho/internal/server"
	"github.com/muurk/wsecho/internal/ui"
	"github.com/muurk/wsecho/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Server flags
var (
	configPath   string
	host         string
	certDir      string
	staticDir    string
	logLevel     string
	advertise    bool
	pingInterval time.Duration
	readLimit    int64
)

var rootCmd = &cobra.Command{
	Use:   "wsecho-server [port] [secure] [credentials]",
	Short: "WebSocket echo server",
	Long: `A WebSocket server that sends every message back to the client that sent it.

Positional arguments:
  port         TCP port to listen on (default 8000)
  secure       the literal word "secure" enables TLS with cert.pem/server.pem
  credentials  "user:password" required as HTTP basic auth on every request

Flags must come before the positional arguments. Everything from the first
positional argument on is taken literally, so credentials may start with "-".
Use -- when the first positional argument itself starts with "-".`,
	Example: `  # Plain server on port 8000
  wsecho-server

  # TLS on 9001 with basic auth
  wsecho-server 9001 secure alice:s3cret

  # Flags first, then positional arguments
  wsecho-server --host 127.0.0.1 --advertise 9001

  # Generate a self-signed certificate first
  wsecho-server gencert`,
	Version:       version.Full(),
	Args:          cobra.MaximumNArgs(3),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.Flags()
	flags.SetInterspersed(false)
	flags.StringVar(&configPath, "config", "", "Options file (default: "+defaultConfigHint()+")")
	flags.StringVar(&host, "host", "", "Bind host (empty = all interfaces)")
	flags.StringVar(&certDir, "cert-dir", "", "Directory holding the certificate and key (default: executable directory)")
	flags.StringVar(&staticDir, "static-dir", "", "Serve files from this directory for plain HTTP requests")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); empty = silent")
	flags.BoolVar(&advertise, "advertise", false, "Advertise the server via mDNS")
	flags.DurationVar(&pingInterval, "ping-interval", 0, "Keepalive ping interval (0 = disabled)")
	flags.Int64Var(&readLimit, "read-limit", config.DefaultReadLimit, "Maximum inbound message size in bytes")

	rootCmd.SetFlagErrorFunc(flagError)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(gencertCmd)
	rootCmd.AddCommand(configCmd)
}

// flagError reports root flag failures as startup input errors.
func flagError(cmd *cobra.Command, err error) error {
	if cmd != rootCmd {
		return err
	}
	return &config.ConfigError{
		Arg: "flags",
		Err: fmt.Errorf("%w (put -- before positional arguments that start with '-')", err),
	}
}

func defaultConfigHint() string {
	if path, err := config.GetConfigPath(); err == nil {
		return path
	}
	return "$XDG_CONFIG_HOME/wsecho/config.yaml"
}

func runServer(cmd *cobra.Command, args []string) error {
	startup, err := config.ParseArgs(args)
	if err != nil {
		return err
	}

	opts, err := config.LoadOptions(configPath)
	if err != nil {
		return err
	}
	so := applyFlags(cmd, opts.Server)

	srv, err := server.New(&server.Config{
		Host:         so.Host,
		Port:         startup.Port,
		Secure:       startup.Secure,
		Credentials:  startup.Credentials,
		CertDir:      so.CertDir,
		CertFile:     so.CertFile,
		KeyFile:      so.KeyFile,
		StaticDir:    so.StaticDir,
		LogLevel:     so.LogLevel,
		ReadLimit:    so.ReadLimit,
		PingInterval: time.Duration(so.PingInterval),
		Advertise:    so.Advertise,
		ServiceName:  so.ServiceName,
	}, echo.New())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := srv.Listen(); err != nil {
		var tlsErr *server.TLSConfigError
		if errors.As(err, &tlsErr) {
			return fmt.Errorf("%w (run 'wsecho-server gencert' to create a self-signed pair)", err)
		}
		return err
	}

	port := startup.Port
	if addr, ok := srv.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	printer.Startup(startup.Secure, port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx); err != nil {
		return err
	}
	if ctx.Err() != nil {
		printer.Shutdown()
	}
	return nil
}

// applyFlags overlays explicitly set flags on the options file values.
func applyFlags(cmd *cobra.Command, so *config.ServerOptions) *config.ServerOptions {
	merged := *so
	flags := cmd.Flags()

	if flags.Changed("host") {
		merged.Host = host
	}
	if flags.Changed("cert-dir") {
		merged.CertDir = certDir
	}
	if flags.Changed("static-dir") {
		merged.StaticDir = staticDir
	}
	if flags.Changed("log-level") {
		merged.LogLevel = logLevel
	}
	if flags.Changed("advertise") {
		merged.Advertise = advertise
	}
	if flags.Changed("ping-interval") {
		merged.PingInterval = config.Duration(pingInterval)
	}
	if flags.Changed("read-limit") {
		merged.ReadLimit = readLimit
	}
	return &merged
}
