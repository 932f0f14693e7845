package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/sweeper/internal/config"
	"github.com/vovakirdan/sweeper/internal/platform/tui"
	"github.com/vovakirdan/sweeper/internal/storage"
)

var (
	flagPlayMenu   bool
	flagPlayTheme  string
	flagPlayPlayer string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game",
	Long: `Start an interactive game on the configured board.

Controls:
  Arrows/hjkl   - Move the cursor
  Space/Enter   - Reveal
  F             - Flag or unflag
  R             - New game
  Q/Ctrl+C      - Quit

The first reveal is always safe. Finished games are stored and the best
times are listed by 'sweeper stats'.

Examples:
  sweeper play
  sweeper play --preset expert
  sweeper play --menu
  sweeper play --seed 42 --theme mono`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&flagPlayMenu, "menu", false, "Pick a board preset from a menu")
	playCmd.Flags().StringVar(&flagPlayTheme, "theme", "default", "Color theme: default, mono")
	playCmd.Flags().StringVar(&flagPlayPlayer, "player", os.Getenv("USER"), "Name stored with your times")
}

func runPlay(_ *cobra.Command, _ []string) error {
	theme, err := tui.ThemeByName(flagPlayTheme)
	if err != nil {
		return err
	}

	cfg := settings
	if flagPlayMenu {
		width, _ := terminalSize()
		preset, ok, menuErr := tui.RunMenu(width)
		if menuErr != nil {
			return menuErr
		}
		// User quit the menu
		if !ok {
			return nil
		}
		if err := config.ApplyPreset(&cfg, string(preset.Name)); err != nil {
			return err
		}
	}

	if err := checkFits(cfg.Board); err != nil {
		return err
	}

	board, err := newBoard(cfg.Board)
	if err != nil {
		return err
	}

	playCfg := tui.PlayConfig{
		Player: flagPlayPlayer,
		Theme:  &theme,
		Logger: logger,
	}

	// Open score storage; the game still works without it
	store, err := storage.Open(cfg.Paths.Database)
	if err != nil {
		logger.Warn("could not open scores database", "error", err)
	} else {
		defer store.Close()
		playCfg.Scores = store
	}

	if err := tui.RunPlay(board, playCfg); err != nil {
		return fmt.Errorf("running game: %w", err)
	}
	return nil
}
