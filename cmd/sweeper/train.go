package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/sweeper/internal/agent"
	"github.com/vovakirdan/sweeper/internal/config"
	"github.com/vovakirdan/sweeper/internal/storage"
	"github.com/vovakirdan/sweeper/internal/trainer"
)

// episodeBatch is how many episodes are buffered before a database write.
const episodeBatch = 200

var (
	flagTrainEpisodes int
	flagTrainWorkers  int
	flagTrainMaxSteps int
	flagTrainTable    string
	flagTrainResume   bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a value table",
	Long: `Run Q-learning episodes on the configured board.

The table is written to the table file (paths.table in the config) and
stored in the database together with per-episode statistics. Ctrl+C stops
training early; the episodes that finished are still saved.

Examples:
  sweeper train
  sweeper train --preset beginner --episodes 50000 --workers 4
  sweeper train --resume --episodes 10000
  sweeper train --table ./beginner.gob --seed 7`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().IntVar(&flagTrainEpisodes, "episodes", 0, "Episodes to run (default from config)")
	trainCmd.Flags().IntVar(&flagTrainWorkers, "workers", 0, "Parallel workers (default from config)")
	trainCmd.Flags().IntVar(&flagTrainMaxSteps, "max-steps", 0, "Step cap per episode (default from config)")
	trainCmd.Flags().StringVar(&flagTrainTable, "table", "", "Table file (default from config)")
	trainCmd.Flags().BoolVar(&flagTrainResume, "resume", false, "Continue from the existing table file")
}

func runTrain(_ *cobra.Command, _ []string) error {
	cfg := settings
	if flagTrainEpisodes > 0 {
		cfg.Training.Episodes = flagTrainEpisodes
	}
	if flagTrainWorkers > 0 {
		cfg.Training.Workers = flagTrainWorkers
	}
	if flagTrainMaxSteps > 0 {
		cfg.Training.MaxSteps = flagTrainMaxSteps
	}
	tablePath := cfg.Paths.Table
	if flagTrainTable != "" {
		tablePath = flagTrainTable
	}
	tablePath = config.ExpandPath(tablePath)

	shape := boardShape(cfg.Board)
	table := agent.NewTable()
	if flagTrainResume {
		err := table.LoadFile(tablePath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Info("no table to resume, starting fresh", "path", tablePath)
		case err != nil:
			return err
		default:
			if err := table.CheckShape(shape); err != nil {
				return fmt.Errorf("cannot resume %s: %w", tablePath, err)
			}
			logger.Info("resuming table", "path", tablePath, "entries", table.Len())
		}
	}
	table.SetShape(shape)

	store, err := storage.Open(cfg.Paths.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	params := agentParams(cfg)
	runID, err := store.CreateRun(storage.Run{
		Kind:   storage.KindTrain,
		Width:  cfg.Board.Width,
		Height: cfg.Board.Height,
		Mines:  cfg.Board.Mines,
		Params: runParams(params),
	})
	if err != nil {
		return err
	}

	rec := newEpisodeRecorder(store, runID)
	tr, err := trainer.New(trainerConfig(cfg), params, table, envFactory(envConfig(cfg), envOptions(cfg)...),
		trainer.WithLogger(logger),
		trainer.WithObserver(rec.observe),
		trainer.WithSeed(cfg.Board.Seed),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("training",
		"run", runID,
		"board", boardName(cfg.Board),
		"episodes", cfg.Training.Episodes,
		"workers", cfg.Training.Workers,
	)
	summary, trainErr := tr.Train(ctx)
	if trainErr != nil && !errors.Is(trainErr, context.Canceled) {
		return trainErr
	}
	if trainErr != nil {
		logger.Warn("training interrupted, saving finished episodes", "episodes", summary.Episodes)
	}

	if err := rec.flush(); err != nil {
		return err
	}
	if err := store.FinishRun(runID, runTotals(summary)); err != nil {
		return err
	}
	if err := table.SaveFile(tablePath); err != nil {
		return err
	}
	data, err := table.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := store.SavePolicy(storage.Policy{
		RunID:   runID,
		Width:   shape.Width,
		Height:  shape.Height,
		Mines:   shape.Mines,
		Entries: table.Len(),
		Data:    data,
	}); err != nil {
		return err
	}

	printSummary("Training", runID, summary)
	fmt.Printf("Table:       %s (%d entries, %d states)\n", tablePath, table.Len(), table.States())
	return nil
}

// episodeRecorder buffers finished episodes and writes them in batches.
// The trainer serializes observer calls, so no locking is needed.
type episodeRecorder struct {
	store  *storage.Store
	runID  string
	buf    []storage.Episode
	failed error
}

func newEpisodeRecorder(store *storage.Store, runID string) *episodeRecorder {
	return &episodeRecorder{
		store: store,
		runID: runID,
		buf:   make([]storage.Episode, 0, episodeBatch),
	}
}

func (r *episodeRecorder) observe(res trainer.EpisodeResult) {
	r.buf = append(r.buf, storage.Episode{
		Episode:     res.Episode,
		Worker:      res.Worker,
		Steps:       res.Steps,
		Reward:      res.Reward,
		Outcome:     res.Outcome.String(),
		Exploration: res.Exploration,
	})
	if len(r.buf) >= episodeBatch {
		if err := r.flush(); err != nil && r.failed == nil {
			// Keep training; the error is reported by the final flush.
			logger.Warn("could not save episodes", "error", err)
			r.failed = err
		}
	}
}

func (r *episodeRecorder) flush() error {
	if len(r.buf) > 0 {
		if err := r.store.SaveEpisodes(r.runID, r.buf); err != nil {
			r.buf = r.buf[:0]
			return err
		}
		r.buf = r.buf[:0]
	}
	return r.failed
}

func printSummary(title, runID string, s trainer.Summary) {
	fmt.Printf("%s run %s\n", title, runID)
	fmt.Println()
	fmt.Printf("  Episodes:    %d\n", s.Episodes)
	fmt.Printf("  Won:         %d (%.1f%%)\n", s.Wins, s.WinRate()*100)
	fmt.Printf("  Lost:        %d\n", s.Losses)
	fmt.Printf("  Truncated:   %d\n", s.Truncated)
	fmt.Printf("  Avg reward:  %.2f\n", s.AvgReward())
	fmt.Printf("  Avg steps:   %.1f\n", s.AvgSteps())
	fmt.Printf("  Epsilon:     %.4f\n", s.FinalExploration)
	fmt.Printf("  Duration:    %s\n", s.Duration.Round(time.Millisecond))
	fmt.Println()
}
