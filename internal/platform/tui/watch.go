package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/sweeper/internal/agent"
	"github.com/vovakirdan/sweeper/internal/env"
	"github.com/vovakirdan/sweeper/internal/minesweeper"
)

// DefaultWatchInterval is the delay between two policy steps.
const DefaultWatchInterval = 300 * time.Millisecond

// WatchConfig contains the optional parts of a policy viewer.
type WatchConfig struct {
	Interval time.Duration // zero means DefaultWatchInterval
	MaxSteps int           // per episode; zero means unlimited
	Theme    *Theme
}

// WatchModel is the Bubble Tea model that lets a learned table play.
// Every tick the greedy action for the current observation is applied to
// the environment.
type WatchModel struct {
	env      *env.Env
	learner  *agent.Learner
	obs      env.Observation
	keys     WatchKeyMap
	help     help.Model
	theme    Theme
	interval time.Duration
	maxSteps int

	steps      int
	reward     float64
	last       env.Action
	lastReward float64
	hasLast    bool
	episodes   int
	wins       int
	err        error
	paused     bool
	quitting   bool
}

// NewWatchModel creates a viewer over e driven by l.
func NewWatchModel(e *env.Env, l *agent.Learner, cfg WatchConfig) WatchModel {
	theme := DefaultTheme()
	if cfg.Theme != nil {
		theme = *cfg.Theme
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	return WatchModel{
		env:      e,
		learner:  l,
		obs:      env.Observe(e.Board()),
		keys:     DefaultWatchKeyMap(),
		help:     help.New(),
		theme:    theme,
		interval: interval,
		maxSteps: cfg.MaxSteps,
	}
}

// Init starts the step loop.
func (m WatchModel) Init() tea.Cmd {
	return tickCmd(m.interval)
}

// Update handles messages and updates the model state.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Restart):
			m.restart()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		if !m.paused && !m.finished() {
			m.step()
		}
		return m, tickCmd(m.interval)
	}

	return m, nil
}

// finished reports whether the episode is over or hit the step cap.
func (m WatchModel) finished() bool {
	if m.err != nil || m.env.Done() {
		return true
	}
	return m.maxSteps > 0 && m.steps >= m.maxSteps
}

func (m *WatchModel) step() {
	a := m.learner.Greedy(m.obs)
	res, err := m.env.Step(a)
	if err != nil {
		m.err = err
		return
	}

	m.obs = res.Observation
	m.steps++
	m.reward += res.Reward
	m.last, m.lastReward, m.hasLast = a, res.Reward, true

	if res.Done {
		m.episodes++
		if m.env.Board().State() == minesweeper.StateWon {
			m.wins++
		}
	}
}

func (m *WatchModel) restart() {
	obs, err := m.env.Reset()
	if err != nil {
		m.err = err
		return
	}
	m.obs = obs
	m.steps = 0
	m.reward = 0
	m.hasLast = false
	m.err = nil
}

// Steps returns the number of actions taken in the current episode.
func (m WatchModel) Steps() int {
	return m.steps
}

// Reward returns the cumulative reward of the current episode.
func (m WatchModel) Reward() float64 {
	return m.reward
}

// Episodes returns the number of finished episodes and how many were won.
func (m WatchModel) Episodes() (played, won int) {
	return m.episodes, m.wins
}

// View renders the current state to a string for display.
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}

	snap := m.env.Board().Snapshot()

	var b strings.Builder
	title := fmt.Sprintf("POLICY  %dx%d, %d mines", snap.Width, snap.Height, snap.Mines)
	b.WriteString(m.theme.Title.Render(title))
	b.WriteString("\n\n")
	cursor := minesweeper.P(m.last.X, m.last.Y)
	b.WriteString(RenderBoard(snap, cursor, m.hasLast && !snap.State.Terminal(), m.theme))
	b.WriteString("\n\n")
	b.WriteString(RenderStatus(snap, m.theme))
	b.WriteString("\n")

	sep := m.theme.Separator.Render(" | ")
	stats := []string{
		m.theme.Label.Render("Step ") + m.theme.Value.Render(fmt.Sprintf("%d", m.steps)),
		m.theme.Label.Render("Reward ") + m.theme.Value.Render(fmt.Sprintf("%+.1f", m.reward)),
	}
	if m.hasLast {
		stats = append(stats, m.theme.Label.Render("Last ")+
			m.theme.Value.Render(fmt.Sprintf("%s %+.0f", m.last, m.lastReward)))
	}
	stats = append(stats, m.theme.Label.Render("Won ")+
		m.theme.Value.Render(fmt.Sprintf("%d/%d", m.wins, m.episodes)))
	b.WriteString(strings.Join(stats, sep))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(m.theme.Lost.Render(m.err.Error()))
	case m.paused:
		b.WriteString(m.theme.Message.Render("paused"))
	case m.finished() && !m.env.Done():
		b.WriteString(m.theme.Message.Render("step limit reached, press r to restart"))
	case m.env.Done():
		b.WriteString(m.theme.Message.Render("episode over, press r to restart"))
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Help.Render(m.help.View(m.keys)))

	return b.String()
}

// RunWatch starts the Bubble Tea program for the policy viewer.
func RunWatch(e *env.Env, l *agent.Learner, cfg WatchConfig) error {
	p := tea.NewProgram(
		NewWatchModel(e, l, cfg),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
