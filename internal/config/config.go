// Package config provides YAML-based configuration loading and board
// presets for the sweeper engine, trainer and terminal front end.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/sweeper/internal/minesweeper"
)

// Config is the full configuration surface.
type Config struct {
	Board    BoardConfig    `yaml:"board"`
	Agent    AgentConfig    `yaml:"agent"`
	Training TrainingConfig `yaml:"training"`
	Eval     EvalConfig     `yaml:"eval"`
	Paths    PathsConfig    `yaml:"paths"`
	Serve    ServeConfig    `yaml:"serve"`
	Log      LogConfig      `yaml:"log"`
}

// BoardConfig describes the boards that are played and trained on.
type BoardConfig struct {
	Width      int   `yaml:"width"`
	Height     int   `yaml:"height"`
	Mines      int   `yaml:"mines"`
	SafeRadius int   `yaml:"safe_radius"` // negative disables the first-click safe zone
	Seed       int64 `yaml:"seed"`        // 0 = random
}

// AgentConfig holds the learner hyperparameters.
type AgentConfig struct {
	LearningRate     float64 `yaml:"learning_rate"`
	Discount         float64 `yaml:"discount"`
	Exploration      float64 `yaml:"exploration"`
	ExplorationDecay float64 `yaml:"exploration_decay"`
	MinExploration   float64 `yaml:"min_exploration"`
}

// TrainingConfig controls the training loop.
type TrainingConfig struct {
	Episodes int `yaml:"episodes"`
	MaxSteps int `yaml:"max_steps"` // per-episode step cap
	Workers  int `yaml:"workers"`
	LogEvery int `yaml:"log_every"`
}

// EvalConfig controls evaluation runs.
type EvalConfig struct {
	Episodes    int     `yaml:"episodes"`
	Exploration float64 `yaml:"exploration"`
}

// PathsConfig locates persistent files. A leading ~ expands to the home
// directory.
type PathsConfig struct {
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
	HostKey  string `yaml:"host_key"`
}

// ServeConfig configures the SSH server.
type ServeConfig struct {
	Address     string        `yaml:"address"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Validate returns every constraint violation joined into one error.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	b := c.Board
	if b.Width <= 0 || b.Height <= 0 {
		add("board: dimensions must be positive, got %dx%d", b.Width, b.Height)
	}
	switch {
	case b.Mines < 0 || b.Mines >= b.Width*b.Height:
		add("board: mines must be in [0,%d), got %d", max(b.Width*b.Height, 0), b.Mines)
	case b.Mines > minesweeper.MaxMines(b.Width, b.Height, b.SafeRadius):
		add("board: %d mines leave no room for safe radius %d on %dx%d, at most %d fit",
			b.Mines, b.SafeRadius, b.Width, b.Height, minesweeper.MaxMines(b.Width, b.Height, b.SafeRadius))
	}

	a := c.Agent
	if a.LearningRate <= 0 || a.LearningRate > 1 {
		add("agent: learning_rate must be in (0,1], got %v", a.LearningRate)
	}
	if a.Discount < 0 || a.Discount > 1 {
		add("agent: discount must be in [0,1], got %v", a.Discount)
	}
	if a.Exploration < 0 || a.Exploration > 1 {
		add("agent: exploration must be in [0,1], got %v", a.Exploration)
	}
	if a.ExplorationDecay <= 0 || a.ExplorationDecay > 1 {
		add("agent: exploration_decay must be in (0,1], got %v", a.ExplorationDecay)
	}
	if a.MinExploration < 0 || a.MinExploration > a.Exploration {
		add("agent: min_exploration must be in [0,exploration], got %v", a.MinExploration)
	}

	tr := c.Training
	if tr.Episodes <= 0 {
		add("training: episodes must be positive, got %d", tr.Episodes)
	}
	if tr.MaxSteps <= 0 {
		add("training: max_steps must be positive, got %d", tr.MaxSteps)
	}
	if tr.Workers <= 0 {
		add("training: workers must be positive, got %d", tr.Workers)
	}
	if tr.LogEvery < 0 {
		add("training: log_every must not be negative, got %d", tr.LogEvery)
	}

	if c.Eval.Episodes <= 0 {
		add("eval: episodes must be positive, got %d", c.Eval.Episodes)
	}
	if c.Eval.Exploration < 0 || c.Eval.Exploration > 1 {
		add("eval: exploration must be in [0,1], got %v", c.Eval.Exploration)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		add("log: unknown level %q", c.Log.Level)
	}

	return errors.Join(errs...)
}

// LogLevel returns the parsed log level, defaulting to info.
func (c Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
