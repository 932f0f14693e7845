package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/term"

	"github.com/vovakirdan/sweeper/internal/agent"
	"github.com/vovakirdan/sweeper/internal/config"
	"github.com/vovakirdan/sweeper/internal/env"
	"github.com/vovakirdan/sweeper/internal/minesweeper"
	"github.com/vovakirdan/sweeper/internal/storage"
	"github.com/vovakirdan/sweeper/internal/trainer"
)

func boardName(b config.BoardConfig) string {
	return fmt.Sprintf("%dx%d/%d", b.Width, b.Height, b.Mines)
}

func envConfig(cfg config.Config) env.Config {
	return env.Config{
		Width:  cfg.Board.Width,
		Height: cfg.Board.Height,
		Mines:  cfg.Board.Mines,
		Seed:   cfg.Board.Seed,
	}
}

func envOptions(cfg config.Config) []env.Option {
	return []env.Option{env.WithSafeRadius(cfg.Board.SafeRadius)}
}

func agentParams(cfg config.Config) agent.Params {
	return agent.Params{
		LearningRate:     cfg.Agent.LearningRate,
		Discount:         cfg.Agent.Discount,
		Exploration:      cfg.Agent.Exploration,
		ExplorationDecay: cfg.Agent.ExplorationDecay,
		MinExploration:   cfg.Agent.MinExploration,
	}
}

func trainerConfig(cfg config.Config) trainer.Config {
	return trainer.Config{
		Episodes:        cfg.Training.Episodes,
		MaxSteps:        cfg.Training.MaxSteps,
		Workers:         cfg.Training.Workers,
		LogEvery:        cfg.Training.LogEvery,
		EvalExploration: cfg.Eval.Exploration,
	}
}

func runParams(p agent.Params) storage.RunParams {
	return storage.RunParams{
		LearningRate:     p.LearningRate,
		Discount:         p.Discount,
		Exploration:      p.Exploration,
		ExplorationDecay: p.ExplorationDecay,
		MinExploration:   p.MinExploration,
	}
}

func runTotals(s trainer.Summary) storage.RunTotals {
	return storage.RunTotals{
		Episodes:         s.Episodes,
		Wins:             s.Wins,
		Losses:           s.Losses,
		Truncated:        s.Truncated,
		TotalReward:      s.TotalReward,
		TotalSteps:       s.TotalSteps,
		FinalExploration: s.FinalExploration,
		Duration:         s.Duration,
	}
}

// envFactory gives every worker its own Env. Seeded configs get seed+worker
// so workers do not replay the same boards.
func envFactory(cfg env.Config, opts ...env.Option) trainer.EnvFactory {
	return func(worker int) (*env.Env, error) {
		c := cfg
		if c.Seed != 0 {
			c.Seed += int64(worker)
		}
		return env.New(c, opts...)
	}
}

// newBoard builds an interactive board from the board settings.
func newBoard(b config.BoardConfig) (*minesweeper.Board, error) {
	opts := []minesweeper.Option{minesweeper.WithSafeRadius(b.SafeRadius)}
	if b.Seed != 0 {
		opts = append(opts, minesweeper.WithSeed(b.Seed))
	}
	return minesweeper.New(b.Width, b.Height, b.Mines, opts...)
}

// terminalSize returns the size of stdout, or 80x24 when it is not a terminal.
func terminalSize() (width, height int) {
	width, height = 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}
	return width, height
}

// checkFits reports an error when a board of the given size cannot be drawn
// in the terminal. Each tile takes two columns; the HUD takes six rows.
func checkFits(b config.BoardConfig) error {
	w, h := terminalSize()
	needW, needH := b.Width*2, b.Height+6
	if needW > w || needH > h {
		return fmt.Errorf("terminal is %dx%d but a %dx%d board needs %dx%d", w, h, b.Width, b.Height, needW, needH)
	}
	return nil
}

// boardShape identifies the configured board for value tables.
func boardShape(b config.BoardConfig) agent.Shape {
	return agent.Shape{Width: b.Width, Height: b.Height, Mines: b.Mines}
}

// loadTable resolves a value table for the given board. A run ID selects
// that run's stored policy. Otherwise the table file is read, falling back
// to the newest stored policy for the board when the file does not exist.
// A table trained on another board is rejected.
func loadTable(store *storage.Store, runID, path string, shape agent.Shape) (*agent.Table, string, error) {
	table := agent.NewTable()

	if runID == "" {
		err := table.LoadFile(config.ExpandPath(path))
		if err == nil {
			if err := table.CheckShape(shape); err != nil {
				return nil, "", fmt.Errorf("%s: %w", path, err)
			}
			return table, path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) || store == nil {
			return nil, "", err
		}
	}

	if store == nil {
		return nil, "", errors.New("a database is needed to load a stored policy")
	}

	var policy storage.Policy
	var err error
	if runID != "" {
		policy, err = store.LoadPolicy(runID)
	} else {
		policy, err = store.LatestPolicy(shape.Width, shape.Height, shape.Mines)
	}
	if err != nil {
		return nil, "", err
	}

	stored := agent.Shape{Width: policy.Width, Height: policy.Height, Mines: policy.Mines}
	if !stored.IsZero() && stored != shape {
		return nil, "", fmt.Errorf("policy of run %s: %w: trained on %s, board is %s",
			policy.RunID, agent.ErrShapeMismatch, stored, shape)
	}
	if err := table.UnmarshalBinary(policy.Data); err != nil {
		return nil, "", fmt.Errorf("policy of run %s: %w", policy.RunID, err)
	}
	if err := table.CheckShape(shape); err != nil {
		return nil, "", fmt.Errorf("policy of run %s: %w", policy.RunID, err)
	}
	return table, "run " + policy.RunID, nil
}
