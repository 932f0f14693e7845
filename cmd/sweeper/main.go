// sweeper is a terminal Minesweeper with a tabular Q-learning trainer.
//
// Usage:
//
//	sweeper play             - Play a game in the terminal
//	sweeper train            - Train a value table and record the run
//	sweeper eval             - Evaluate a trained table
//	sweeper watch            - Watch a trained table play
//	sweeper presets          - List board presets
//	sweeper stats            - Show recent runs and best play times
//	sweeper serve            - Start SSH server for remote play
//
// Global flags:
//
//	--config <path>    - Config file (default search: ~/.sweeper/config.yaml, ./configs/sweeper.yaml)
//	--preset <name>    - Board preset: beginner, intermediate, expert, grandmaster
//	--seed <value>     - RNG seed for reproducible boards
//	--db <path>        - Database path (default: ~/.sweeper/sweeper.db)
//	--log-level <lvl>  - debug, info, warn, error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/sweeper/internal/config"
)

var (
	// Global flags
	flagConfigPath string
	flagPreset     string
	flagSeed       int64
	flagDBPath     string
	flagLogLevel   string
)

// Resolved by the root command before any subcommand runs.
var (
	settings config.Config
	logger   *log.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sweeper",
	Short: "Minesweeper in your terminal, with a Q-learning agent",
	Long: `Sweeper is a terminal Minesweeper. Play it yourself, or train a
tabular Q-learning agent on it and watch the agent play.

Available commands:
  play     - Play a game
  train    - Train a value table
  eval     - Evaluate a trained table
  watch    - Watch a trained table play
  presets  - List board presets
  stats    - Recent runs and best times
  serve    - Start SSH server for remote play

Examples:
  sweeper play --preset expert
  sweeper train --preset beginner --episodes 20000 --workers 4
  sweeper eval --episodes 500
  sweeper watch
  sweeper serve --ssh :2222`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagPreset, "preset", "", "Board preset (see 'sweeper presets')")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = config value, random if unset)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to database (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadSettings loads the config file and applies the global flags on top.
func loadSettings(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return err
	}

	cfg, err = applyGlobalFlags(cfg)
	if err != nil {
		return err
	}

	settings = cfg
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "sweeper",
		Level:           cfg.LogLevel(),
	})
	logger.Debug("config loaded", "board", boardName(cfg.Board), "db", cfg.Paths.Database)
	return nil
}

// applyGlobalFlags overrides config values with the flags that were set.
func applyGlobalFlags(cfg config.Config) (config.Config, error) {
	if flagPreset != "" {
		if err := config.ApplyPreset(&cfg, flagPreset); err != nil {
			return cfg, err
		}
	}
	if flagSeed != 0 {
		cfg.Board.Seed = flagSeed
	}
	if flagDBPath != "" {
		cfg.Paths.Database = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}
