package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/muurk/wsecho/internal/client"
	"github.com/muurk/wsecho/internal/discovery"
	"github.com/muurk/wsecho/internal/tui"
	"github.com/muurk/wsecho/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), version.Describe("wsecho-client"))
	},
}

var sendBinary bool

var sendCmd = &cobra.Command{
	Use:   "send <url> <message>...",
	Short: "Send messages and print each reply",
	Example: `  wsecho-client send ws://localhost:8000/ hello world
  wsecho-client send --ca cert.pem -u alice:s3cret wss://localhost:9001/ ping`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().BoolVar(&sendBinary, "binary", false, "Send messages as binary frames")
}

func runSend(cmd *cobra.Command, args []string) error {
	opts, err := dialOptions()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	c, err := client.Dial(ctx, args[0], opts)
	if err != nil {
		return err
	}
	defer c.Close(websocket.CloseNormalClosure)

	out := cmd.OutOrStdout()
	for _, text := range args[1:] {
		if sendBinary {
			err = c.SendBinary([]byte(text))
		} else {
			err = c.SendText(text)
		}
		if err != nil {
			return err
		}

		select {
		case msg, ok := <-c.Messages():
			if !ok {
				return fmt.Errorf("%w (code %d)", client.ErrDisconnected, c.CloseCode())
			}
			fmt.Fprintln(out, msg.Text())
		case <-time.After(timeout):
			return fmt.Errorf("no reply within %s", timeout)
		}
	}
	return nil
}

var chatScanTimeout time.Duration

var chatCmd = &cobra.Command{
	Use:   "chat [url]",
	Short: "Open an interactive session",
	Long: `Open an interactive session with a server. Without a URL the local
network is browsed for advertised servers first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	url := ""
	if len(args) == 1 {
		url = args[0]
	} else {
		picked, err := pickServer(chatScanTimeout)
		if err != nil {
			return err
		}
		if picked == "" {
			return nil
		}
		url = picked
	}

	opts, err := dialOptions()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	c, err := client.Dial(ctx, url, opts)
	cancel()
	if err != nil {
		return err
	}
	defer c.Close(websocket.CloseNormalClosure)

	p := tea.NewProgram(tui.NewChatModel(url, c), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func pickServer(scanTimeout time.Duration) (string, error) {
	scan := func(ctx context.Context) ([]*discovery.Service, error) {
		return discovery.Scan(ctx, scanTimeout)
	}

	p := tea.NewProgram(tui.NewPickerModel(scan), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	if m, ok := final.(tui.PickerModel); ok {
		return m.Selected, nil
	}
	return "", nil
}

// discover flags
var (
	discoverTimeout time.Duration
	discoverFormat  string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List servers advertised on the local network",
	Example: `  wsecho-client discover
  wsecho-client discover --scan-timeout 2s --format json`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "scan-timeout", discovery.DefaultScanTimeout, "How long to browse")
	discoverCmd.Flags().StringVar(&discoverFormat, "format", "text", "Output format (text, json)")
	chatCmd.Flags().DurationVar(&chatScanTimeout, "scan-timeout", discovery.DefaultScanTimeout, "How long to browse when no URL is given")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	services, err := discovery.Scan(cmd.Context(), discoverTimeout)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	out := cmd.OutOrStdout()
	switch discoverFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(services)
	case "text":
	default:
		return fmt.Errorf("unknown format %q (expected text or json)", discoverFormat)
	}

	if len(services) == 0 {
		fmt.Fprintln(out, "No servers found.")
		fmt.Fprintln(out, "\nStart one with 'wsecho-server --advertise' on the same network.")
		return nil
	}

	for _, svc := range services {
		auth := "open"
		if svc.AuthRequired {
			auth = "basic auth"
		}
		ver := svc.GetMetadata("version")
		if ver == "" {
			ver = "-"
		}
		fmt.Fprintf(out, "%-20s %-32s %-12s %s\n", svc.Instance, svc.URL(), ver, auth)
	}
	return nil
}
