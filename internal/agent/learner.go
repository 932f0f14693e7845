package agent

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/vovakirdan/sweeper/internal/env"
)

// Params are the learning hyperparameters.
type Params struct {
	LearningRate     float64 // alpha
	Discount         float64 // gamma
	Exploration      float64 // initial epsilon
	ExplorationDecay float64 // epsilon multiplier after every update; 1 keeps it fixed
	MinExploration   float64 // epsilon floor
}

// DefaultParams returns alpha 0.1, gamma 0.9, epsilon 1.0 decaying by 0.995
// with no floor.
func DefaultParams() Params {
	return Params{
		LearningRate:     0.1,
		Discount:         0.9,
		Exploration:      1.0,
		ExplorationDecay: 0.995,
		MinExploration:   0,
	}
}

// Validate reports every out-of-range parameter.
func (p Params) Validate() error {
	var errs []error
	if p.LearningRate <= 0 || p.LearningRate > 1 {
		errs = append(errs, fmt.Errorf("learning rate %v not in (0,1]", p.LearningRate))
	}
	if p.Discount < 0 || p.Discount > 1 {
		errs = append(errs, fmt.Errorf("discount %v not in [0,1]", p.Discount))
	}
	if p.Exploration < 0 || p.Exploration > 1 {
		errs = append(errs, fmt.Errorf("exploration %v not in [0,1]", p.Exploration))
	}
	if p.ExplorationDecay <= 0 || p.ExplorationDecay > 1 {
		errs = append(errs, fmt.Errorf("exploration decay %v not in (0,1]", p.ExplorationDecay))
	}
	if p.MinExploration < 0 || p.MinExploration > p.Exploration {
		errs = append(errs, fmt.Errorf("min exploration %v not in [0,%v]", p.MinExploration, p.Exploration))
	}
	return errors.Join(errs...)
}

// Learner is an epsilon-greedy Q-learning policy over a shared Table.
// A Learner is not safe for concurrent use; give each worker its own.
type Learner struct {
	table   *Table
	actions []env.Action
	params  Params
	epsilon float64
	rng     *rand.Rand
}

// New returns a Learner choosing among actions. A nil rng is seeded from
// the clock.
func New(table *Table, actions []env.Action, p Params, rng *rand.Rand) (*Learner, error) {
	if table == nil {
		return nil, errors.New("agent: nil table")
	}
	if len(actions) == 0 {
		return nil, errors.New("agent: empty action space")
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("agent: invalid params: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Learner{
		table:   table,
		actions: actions,
		params:  p,
		epsilon: p.Exploration,
		rng:     rng,
	}, nil
}

// ChooseAction picks a uniformly random action with probability epsilon and
// the greedy action otherwise.
func (l *Learner) ChooseAction(obs env.Observation) env.Action {
	if l.rng.Float64() < l.epsilon {
		return l.actions[l.rng.Intn(len(l.actions))]
	}
	return l.Greedy(obs)
}

// Greedy returns the highest-valued action for obs. Ties go to the first
// action in enumeration order.
func (l *Learner) Greedy(obs env.Observation) env.Action {
	a, _ := l.table.Best(obs.Key(), l.actions)
	return a
}

// Update applies the one-step Q-learning rule
//
//	Q(s,a) += alpha * (r + gamma * max_a' Q(s',a') - Q(s,a))
//
// then decays epsilon. It returns the new Q(s,a).
func (l *Learner) Update(state env.Observation, a env.Action, reward float64, next env.Observation) float64 {
	maxNext := l.table.MaxValue(next.Key(), l.actions)
	alpha, gamma := l.params.LearningRate, l.params.Discount

	v := l.table.Update(state.Key(), a, func(q float64) float64 {
		return q + alpha*(reward+gamma*maxNext-q)
	})

	l.epsilon = math.Max(l.epsilon*l.params.ExplorationDecay, l.params.MinExploration)
	return v
}

// Exploration returns the current epsilon.
func (l *Learner) Exploration() float64 {
	return l.epsilon
}

// SetExploration overrides epsilon, e.g. to 0 for greedy evaluation.
func (l *Learner) SetExploration(eps float64) {
	l.epsilon = eps
}

// Params returns the hyperparameters the learner was built with.
func (l *Learner) Params() Params {
	return l.params
}

// Table returns the shared value table.
func (l *Learner) Table() *Table {
	return l.table
}
