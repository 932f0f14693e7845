package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/sweeper/internal/storage"
	"github.com/vovakirdan/sweeper/internal/trainer"
)

var (
	flagEvalEpisodes    int
	flagEvalExploration float64
	flagEvalTable       string
	flagEvalRun         string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a trained table",
	Long: `Play episodes with a trained table without updating it and report
the win rate. The policy is greedy unless --exploration is given.

The table comes from --run (a stored training run), otherwise from the
table file, otherwise from the newest stored policy.

Examples:
  sweeper eval
  sweeper eval --episodes 1000 --exploration 0.05
  sweeper eval --run 6f1c0d9e-3c3a-4a55-9a43-2b8f1f0f7a11`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().IntVar(&flagEvalEpisodes, "episodes", 0, "Episodes to play (default from config)")
	evalCmd.Flags().Float64Var(&flagEvalExploration, "exploration", -1, "Fixed epsilon (default from config)")
	evalCmd.Flags().StringVar(&flagEvalTable, "table", "", "Table file (default from config)")
	evalCmd.Flags().StringVar(&flagEvalRun, "run", "", "Evaluate the policy stored by this run")
}

func runEval(_ *cobra.Command, _ []string) error {
	cfg := settings
	if flagEvalEpisodes > 0 {
		cfg.Eval.Episodes = flagEvalEpisodes
	}
	if flagEvalExploration >= 0 {
		cfg.Eval.Exploration = flagEvalExploration
	}
	tablePath := cfg.Paths.Table
	if flagEvalTable != "" {
		tablePath = flagEvalTable
	}

	store, err := storage.Open(cfg.Paths.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	table, source, err := loadTable(store, flagEvalRun, tablePath, boardShape(cfg.Board))
	if err != nil {
		return err
	}
	logger.Info("loaded table", "source", source, "entries", table.Len())

	params := agentParams(cfg)
	tr, err := trainer.New(trainerConfig(cfg), params, table, envFactory(envConfig(cfg), envOptions(cfg)...),
		trainer.WithLogger(logger),
		trainer.WithSeed(cfg.Board.Seed),
	)
	if err != nil {
		return err
	}

	evalParams := params
	evalParams.Exploration = cfg.Eval.Exploration
	evalParams.ExplorationDecay = 1
	evalParams.MinExploration = 0
	runID, err := store.CreateRun(storage.Run{
		Kind:   storage.KindEval,
		Width:  cfg.Board.Width,
		Height: cfg.Board.Height,
		Mines:  cfg.Board.Mines,
		Params: runParams(evalParams),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, evalErr := tr.Evaluate(ctx, cfg.Eval.Episodes)
	if evalErr != nil && !errors.Is(evalErr, context.Canceled) {
		return evalErr
	}
	if evalErr != nil {
		logger.Warn("evaluation interrupted", "episodes", summary.Episodes)
	}

	if err := store.FinishRun(runID, runTotals(summary)); err != nil {
		return err
	}

	printSummary("Evaluation", runID, summary)
	return nil
}
