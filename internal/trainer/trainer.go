// Package trainer runs training and evaluation episodes: it drives one
// env.Env per worker with an agent.Learner over a shared agent.Table.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/sweeper/internal/agent"
	"github.com/vovakirdan/sweeper/internal/env"
	"github.com/vovakirdan/sweeper/internal/minesweeper"
)

// Config controls the episode loop.
type Config struct {
	Episodes int
	MaxSteps int // per-episode step cap
	Workers  int
	LogEvery int // 0 disables progress logging

	// EvalExploration is the fixed epsilon used by Evaluate.
	EvalExploration float64
}

// DefaultConfig returns 1000 episodes of at most 1000 steps on one worker.
func DefaultConfig() Config {
	return Config{
		Episodes: 1000,
		MaxSteps: 1000,
		Workers:  1,
		LogEvery: 100,
	}
}

// Validate reports every out-of-range field.
func (c Config) Validate() error {
	var errs []error
	if c.Episodes <= 0 {
		errs = append(errs, fmt.Errorf("episodes must be positive, got %d", c.Episodes))
	}
	if c.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("max steps must be positive, got %d", c.MaxSteps))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.LogEvery < 0 {
		errs = append(errs, fmt.Errorf("log every must not be negative, got %d", c.LogEvery))
	}
	if c.EvalExploration < 0 || c.EvalExploration > 1 {
		errs = append(errs, fmt.Errorf("eval exploration %v not in [0,1]", c.EvalExploration))
	}
	return errors.Join(errs...)
}

// EnvFactory builds the environment a worker plays in. Each worker calls it
// once.
type EnvFactory func(worker int) (*env.Env, error)

// Observer receives every finished episode. Calls are serialized.
type Observer func(EpisodeResult)

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets the progress logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Trainer) {
		t.logger = l
	}
}

// WithObserver registers fn for every finished episode.
func WithObserver(fn Observer) Option {
	return func(t *Trainer) {
		t.observer = fn
	}
}

// WithSeed seeds each worker's policy randomness with seed+worker.
func WithSeed(seed int64) Option {
	return func(t *Trainer) {
		t.seed = seed
	}
}

// Trainer runs episodes against a shared value table.
type Trainer struct {
	cfg      Config
	params   agent.Params
	table    *agent.Table
	newEnv   EnvFactory
	logger   *log.Logger
	observer Observer
	seed     int64
}

// New validates cfg and params and returns a Trainer.
func New(cfg Config, params agent.Params, table *agent.Table, newEnv EnvFactory, opts ...Option) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("trainer: invalid config: %w", err)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("trainer: invalid params: %w", err)
	}
	if table == nil || newEnv == nil {
		return nil, errors.New("trainer: table and env factory are required")
	}

	t := &Trainer{
		cfg:    cfg,
		params: params,
		table:  table,
		newEnv: newEnv,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Table returns the shared value table.
func (t *Trainer) Table() *agent.Table {
	return t.table
}

// Train runs cfg.Episodes learning episodes. On cancellation it returns the
// summary of the episodes that finished together with the context error.
func (t *Trainer) Train(ctx context.Context) (Summary, error) {
	return t.run(ctx, t.cfg.Episodes, true, t.params)
}

// Evaluate plays episodes without updating the table, with epsilon fixed
// at cfg.EvalExploration.
func (t *Trainer) Evaluate(ctx context.Context, episodes int) (Summary, error) {
	if episodes <= 0 {
		return Summary{}, fmt.Errorf("trainer: episodes must be positive, got %d", episodes)
	}
	p := t.params
	p.Exploration = t.cfg.EvalExploration
	p.MinExploration = 0
	p.ExplorationDecay = 1
	return t.run(ctx, episodes, false, p)
}

func (t *Trainer) run(ctx context.Context, episodes int, learn bool, params agent.Params) (Summary, error) {
	mode := "eval"
	if learn {
		mode = "train"
	}

	workers := min(t.cfg.Workers, episodes)
	rec := &recorder{
		summary:  Summary{},
		observer: t.observer,
		table:    t.table,
		logger:   t.logger,
		logEvery: t.cfg.LogEvery,
		mode:     mode,
	}
	start := time.Now()

	t.logger.Info("starting "+mode, "episodes", episodes, "workers", workers, "max_steps", t.cfg.MaxSteps)

	var next atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() error {
			e, err := t.newEnv(w)
			if err != nil {
				return fmt.Errorf("trainer: worker %d: %w", w, err)
			}

			var rng *rand.Rand
			if t.seed != 0 {
				rng = rand.New(rand.NewSource(t.seed + int64(w)))
			}
			l, err := agent.New(t.table, e.ActionSpace(), params, rng)
			if err != nil {
				return fmt.Errorf("trainer: worker %d: %w", w, err)
			}

			for {
				n := int(next.Add(1))
				if n > episodes {
					return nil
				}
				res, err := t.episode(gctx, e, l, learn)
				if err != nil {
					return err
				}
				res.Episode = n
				res.Worker = w
				rec.record(res)
			}
		})
	}

	err := g.Wait()
	summary := rec.result()
	summary.Duration = time.Since(start)

	if err != nil {
		t.logger.Warn(mode+" stopped", "episodes", summary.Episodes, "error", err)
		return summary, err
	}
	t.logger.Info(mode+" finished",
		"episodes", summary.Episodes,
		"win_rate", fmt.Sprintf("%.3f", summary.WinRate()),
		"avg_reward", fmt.Sprintf("%.2f", summary.AvgReward()),
		"duration", summary.Duration.Round(time.Millisecond),
	)
	return summary, nil
}

// episode plays until the board is terminal or the step cap is reached.
func (t *Trainer) episode(ctx context.Context, e *env.Env, l *agent.Learner, learn bool) (EpisodeResult, error) {
	var res EpisodeResult
	start := time.Now()

	obs, err := e.Reset()
	if err != nil {
		return res, err
	}

	for res.Steps < t.cfg.MaxSteps {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		a := l.ChooseAction(obs)
		step, err := e.Step(a)
		if err != nil {
			return res, fmt.Errorf("trainer: step %s: %w", a, err)
		}
		if learn {
			l.Update(obs, a, step.Reward, step.Observation)
		}

		res.Steps++
		res.Reward += step.Reward
		obs = step.Observation

		if step.Done {
			break
		}
	}

	switch e.Board().State() {
	case minesweeper.StateWon:
		res.Outcome = OutcomeWon
	case minesweeper.StateLost:
		res.Outcome = OutcomeLost
	default:
		res.Outcome = OutcomeTruncated
	}
	res.Exploration = l.Exploration()
	res.Duration = time.Since(start)
	return res, nil
}

// recorder folds episode results into a Summary.
type recorder struct {
	mu       sync.Mutex
	summary  Summary
	last     int
	observer Observer
	table    *agent.Table
	logger   *log.Logger
	logEvery int
	mode     string
}

func (r *recorder) record(res EpisodeResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.summary.add(res)
	if res.Episode > r.last {
		r.last = res.Episode
		r.summary.FinalExploration = res.Exploration
	}
	if r.observer != nil {
		r.observer(res)
	}

	if r.logEvery > 0 && r.summary.Episodes%r.logEvery == 0 {
		r.logger.Info(r.mode,
			"episodes", r.summary.Episodes,
			"win_rate", fmt.Sprintf("%.3f", r.summary.WinRate()),
			"avg_reward", fmt.Sprintf("%.2f", r.summary.AvgReward()),
			"epsilon", fmt.Sprintf("%.4f", res.Exploration),
			"table", r.table.Len(),
		)
	}
}

func (r *recorder) result() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}
