package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/sweeper/internal/minesweeper"
	"github.com/vovakirdan/sweeper/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sweeper SSH server",
	Long: `Start an SSH server that lets users connect and play.

Each SSH connection gets its own board. Finished games are stored in the
server's database under the SSH user name.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise uses paths.host_key from the config (~/.sweeper/host_key),
    generating it on first start

Examples:
  sweeper serve                           # Listen on :23234
  sweeper serve --ssh :2222               # Listen on port 2222
  sweeper serve --preset expert           # Serve expert boards
  sweeper serve --host-key ./my_host_key  # Use specific host key

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (default from config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (default from config)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout in minutes (default from config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := settings
	addr := cfg.Serve.Address
	if flagSSHAddr != "" {
		addr = flagSSHAddr
	}
	hostKey := cfg.Paths.HostKey
	if flagHostKey != "" {
		hostKey = flagHostKey
	}
	idle := cfg.Serve.IdleTimeout
	if flagIdleTimeout > 0 {
		idle = time.Duration(flagIdleTimeout) * time.Minute
	}

	board := cfg.Board
	// Every session gets a different layout even when a seed is configured.
	board.Seed = 0

	server, err := tui.NewSSHServer(tui.SSHServerConfig{
		Address:     addr,
		HostKeyPath: hostKey,
		DBPath:      cfg.Paths.Database,
		IdleTimeout: idle,
		NewBoard: func() (*minesweeper.Board, error) {
			return newBoard(board)
		},
		Logger: logger.WithPrefix("sweeper-ssh"),
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	fmt.Printf("Starting sweeper SSH server on %s (%s boards)\n", addr, boardName(board))
	fmt.Println("Press Ctrl+C to stop")

	return server.ListenAndServe()
}
