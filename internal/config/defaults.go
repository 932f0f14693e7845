package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/sweeper.yaml
var defaultYAML []byte

// Default returns the hardcoded default configuration. It matches the
// embedded defaults/sweeper.yaml.
func Default() Config {
	return Config{
		Board: BoardConfig{
			Width:      9,
			Height:     9,
			Mines:      10,
			SafeRadius: 2,
		},
		Agent: AgentConfig{
			LearningRate:     0.1,
			Discount:         0.9,
			Exploration:      1.0,
			ExplorationDecay: 0.995,
			MinExploration:   0,
		},
		Training: TrainingConfig{
			Episodes: 1000,
			MaxSteps: 1000,
			Workers:  1,
			LogEvery: 100,
		},
		Eval: EvalConfig{
			Episodes:    100,
			Exploration: 0,
		},
		Paths: PathsConfig{
			Database: "~/.sweeper/sweeper.db",
			Table:    "~/.sweeper/qtable.gob",
			HostKey:  "~/.sweeper/host_key",
		},
		Serve: ServeConfig{
			Address:     ":23234",
			IdleTimeout: 30 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
