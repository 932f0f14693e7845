package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/sweeper/internal/platform/tui"
	"github.com/vovakirdan/sweeper/internal/storage"
	"github.com/vovakirdan/sweeper/internal/trainer"
)

var (
	flagStatsRuns   int
	flagStatsBrowse bool
)

var statsCmd = &cobra.Command{
	Use:   "stats [run-id]",
	Short: "Show recent runs and best play times",
	Long: `Without arguments, list the most recent training and evaluation runs and
the play statistics of every board size. With a run ID, show that run and
its win rate over the course of training.

Examples:
  sweeper stats
  sweeper stats --runs 5
  sweeper stats --browse
  sweeper stats 6f1c0d9e-3c3a-4a55-9a43-2b8f1f0f7a11`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&flagStatsRuns, "runs", 10, "Number of recent runs to list")
	statsCmd.Flags().BoolVar(&flagStatsBrowse, "browse", false, "Browse best times interactively")
}

func runStats(_ *cobra.Command, args []string) error {
	store, err := storage.Open(settings.Paths.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	if flagStatsBrowse {
		width, height := terminalSize()
		return tui.RunScoreboard(store, width, height)
	}
	if len(args) == 1 {
		return showRun(store, args[0])
	}

	runs, err := store.RecentRuns(flagStatsRuns)
	if err != nil {
		return err
	}

	fmt.Println("Recent runs")
	fmt.Println()
	if len(runs) == 0 {
		fmt.Println("  No runs recorded yet. Start one with 'sweeper train'.")
	} else {
		fmt.Printf("  %-36s  %-5s  %-9s  %8s  %7s  %s\n", "ID", "Kind", "Board", "Episodes", "Win %", "Started")
		for _, r := range runs {
			status := fmt.Sprintf("%6.1f%%", r.Totals.WinRate()*100)
			if !r.Finished() {
				status = "running"
			}
			fmt.Printf("  %-36s  %-5s  %-9s  %8d  %7s  %s\n",
				r.ID, r.Kind, fmt.Sprintf("%dx%d/%d", r.Width, r.Height, r.Mines),
				r.Totals.Episodes, status, r.StartedAt.Local().Format("2006-01-02 15:04"))
		}
	}
	fmt.Println()

	boards, err := store.AllBoardStats()
	if err != nil {
		return err
	}

	fmt.Println("Played boards")
	fmt.Println()
	if len(boards) == 0 {
		fmt.Println("  No games recorded yet. Start one with 'sweeper play'.")
		return nil
	}
	fmt.Printf("  %-9s  %6s  %5s  %9s\n", "Board", "Games", "Wins", "Best")
	for _, b := range boards {
		best := "-"
		if b.BestTime > 0 {
			best = fmt.Sprintf("%.1fs", b.BestTime.Seconds())
		}
		fmt.Printf("  %-9s  %6d  %5d  %9s\n",
			fmt.Sprintf("%dx%d/%d", b.Width, b.Height, b.Mines), b.Games, b.Wins, best)
	}
	return nil
}

// progressBuckets is how many slices a run's episodes are split into.
const progressBuckets = 10

func showRun(store *storage.Store, id string) error {
	run, err := store.Run(id)
	if err != nil {
		return err
	}
	episodes, err := store.Episodes(id)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s (%s, %dx%d/%d)\n", run.ID, run.Kind, run.Width, run.Height, run.Mines)
	fmt.Printf("  alpha %.3g  gamma %.3g  epsilon %.3g decay %.4g min %.3g\n",
		run.Params.LearningRate, run.Params.Discount, run.Params.Exploration,
		run.Params.ExplorationDecay, run.Params.MinExploration)
	if run.Finished() {
		fmt.Printf("  %d episodes, %d won (%.1f%%), %d lost, %d truncated in %s\n",
			run.Totals.Episodes, run.Totals.Wins, run.Totals.WinRate()*100,
			run.Totals.Losses, run.Totals.Truncated, run.Totals.Duration)
	} else {
		fmt.Println("  still running or interrupted")
	}
	fmt.Println()

	if len(episodes) == 0 {
		fmt.Println("  No episodes recorded.")
		return nil
	}

	fmt.Printf("  %-13s  %7s  %10s  %9s  %8s\n", "Episodes", "Win %", "Avg reward", "Avg steps", "Epsilon")
	for _, b := range bucketEpisodes(episodes, progressBuckets) {
		fmt.Printf("  %-13s  %6.1f%%  %10.2f  %9.1f  %8.4f\n",
			fmt.Sprintf("%d-%d", b.first, b.last), b.summary.WinRate()*100,
			b.summary.AvgReward(), b.summary.AvgSteps(), b.summary.FinalExploration)
	}
	return nil
}

type episodeBucket struct {
	first, last int
	summary     trainer.Summary
}

// bucketEpisodes splits episodes (in episode order) into at most n
// consecutive slices of near-equal size and summarizes each.
func bucketEpisodes(episodes []storage.Episode, n int) []episodeBucket {
	if len(episodes) == 0 || n <= 0 {
		return nil
	}
	n = min(n, len(episodes))

	buckets := make([]episodeBucket, 0, n)
	for i := range n {
		lo := i * len(episodes) / n
		hi := (i + 1) * len(episodes) / n
		b := episodeBucket{first: episodes[lo].Episode, last: episodes[hi-1].Episode}
		for _, e := range episodes[lo:hi] {
			b.summary.Episodes++
			b.summary.TotalReward += e.Reward
			b.summary.TotalSteps += e.Steps
			switch outcome, _ := trainer.ParseOutcome(e.Outcome); outcome {
			case trainer.OutcomeWon:
				b.summary.Wins++
			case trainer.OutcomeLost:
				b.summary.Losses++
			default:
				b.summary.Truncated++
			}
		}
		b.summary.FinalExploration = episodes[hi-1].Exploration
		buckets = append(buckets, b)
	}
	return buckets
}
