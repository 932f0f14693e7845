package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/sweeper/internal/agent"
	"github.com/vovakirdan/sweeper/internal/env"
	"github.com/vovakirdan/sweeper/internal/platform/tui"
	"github.com/vovakirdan/sweeper/internal/storage"
)

var (
	flagWatchTable    string
	flagWatchRun      string
	flagWatchInterval time.Duration
	flagWatchTheme    string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a trained table play",
	Long: `Let a trained table play the configured board in the terminal. Every
tick the greedy action for the current board is applied.

Controls:
  P/Space  - Pause
  R        - New episode
  Q/Esc    - Quit

Examples:
  sweeper watch
  sweeper watch --interval 100ms
  sweeper watch --run 6f1c0d9e-3c3a-4a55-9a43-2b8f1f0f7a11`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&flagWatchTable, "table", "", "Table file (default from config)")
	watchCmd.Flags().StringVar(&flagWatchRun, "run", "", "Watch the policy stored by this run")
	watchCmd.Flags().DurationVar(&flagWatchInterval, "interval", tui.DefaultWatchInterval, "Delay between moves")
	watchCmd.Flags().StringVar(&flagWatchTheme, "theme", "default", "Color theme: default, mono")
}

func runWatch(_ *cobra.Command, _ []string) error {
	cfg := settings
	theme, err := tui.ThemeByName(flagWatchTheme)
	if err != nil {
		return err
	}
	if err := checkFits(cfg.Board); err != nil {
		return err
	}

	tablePath := cfg.Paths.Table
	if flagWatchTable != "" {
		tablePath = flagWatchTable
	}

	// The database is only needed when the table file is missing
	store, err := storage.Open(cfg.Paths.Database)
	if err != nil {
		logger.Warn("could not open database", "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	table, source, err := loadTable(store, flagWatchRun, tablePath, boardShape(cfg.Board))
	if err != nil {
		return err
	}
	logger.Debug("loaded table", "source", source, "entries", table.Len())

	e, err := env.New(envConfig(cfg), envOptions(cfg)...)
	if err != nil {
		return err
	}
	params := agentParams(cfg)
	params.Exploration, params.ExplorationDecay, params.MinExploration = 0, 1, 0
	learner, err := agent.New(table, e.ActionSpace(), params, nil)
	if err != nil {
		return err
	}

	if err := tui.RunWatch(e, learner, tui.WatchConfig{
		Interval: flagWatchInterval,
		MaxSteps: cfg.Training.MaxSteps,
		Theme:    &theme,
	}); err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}
