package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/wsecho/internal/certs"
	"github.com/muurk/wsecho/internal/config"
	"github.com/muurk/wsecho/internal/ui"
	"github.com/muurk/wsecho/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), version.Describe("wsecho-server"))
	},
}

// gencert flags
var (
	gencertDir   string
	gencertHosts []string
	gencertDays  int
	gencertForce bool
)

var gencertCmd = &cobra.Command{
	Use:   "gencert",
	Short: "Generate a self-signed certificate for secure mode",
	Long: `Write a self-signed certificate (cert.pem) and RSA private key (server.pem)
into the certificate directory, which defaults to the directory holding
this executable. Clients must trust cert.pem to connect with wss://.`,
	Example: `  wsecho-server gencert
  wsecho-server gencert --dir ./tls --host echo.lan --host 192.168.1.20`,
	Args: cobra.NoArgs,
	RunE: runGencert,
}

func init() {
	defaults := certs.DefaultParams()
	gencertCmd.Flags().StringVar(&gencertDir, "dir", "", "Output directory (default: executable directory)")
	gencertCmd.Flags().StringSliceVar(&gencertHosts, "host", defaults.Hosts, "DNS names or IPs for the certificate")
	gencertCmd.Flags().IntVar(&gencertDays, "days", defaults.ValidDays, "Validity in days")
	gencertCmd.Flags().BoolVar(&gencertForce, "force", false, "Overwrite an existing certificate")
}

func runGencert(cmd *cobra.Command, args []string) error {
	dir := gencertDir
	if dir == "" {
		var err error
		dir, err = config.ExecutableDir()
		if err != nil {
			return err
		}
	}

	params := certs.DefaultParams()
	params.Hosts = gencertHosts
	params.ValidDays = gencertDays
	if len(gencertHosts) > 0 {
		params.CommonName = gencertHosts[0]
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())

	if !gencertForce && fileExists(filepath.Join(dir, config.DefaultCertFile)) {
		return fmt.Errorf("%s already exists in %s (use --force to overwrite)", config.DefaultCertFile, dir)
	}

	pair, err := certs.GenerateSelfSigned(params)
	if err != nil {
		printer.Failure("Certificate generation failed", err, nil)
		return err
	}

	certPath, keyPath, err := pair.WriteFiles(dir, config.DefaultCertFile, config.DefaultKeyFile)
	if err != nil {
		printer.Failure("Writing certificate failed", err, nil)
		return err
	}

	printer.Success("Self-signed certificate written", []ui.Detail{
		{Key: "Certificate", Value: certPath},
		{Key: "Private key", Value: keyPath},
		{Key: "Hosts", Value: strings.Join(params.Hosts, ", ")},
		{Key: "Expires", Value: pair.Certificate.NotAfter.Format("2006-01-02")},
	})
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the options file",
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an options file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			var err error
			if path, err = config.GetConfigPath(); err != nil {
				return err
			}
		}

		if !configInitForce && fileExists(path) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.NewOptions().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default options file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
