package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/sweeper/internal/minesweeper"
	"github.com/vovakirdan/sweeper/internal/storage"
)

// ScoreRecorder stores finished games. *storage.Store satisfies it.
type ScoreRecorder interface {
	SaveScore(score storage.Score) (int64, error)
}

// PlayConfig contains the optional parts of a game session.
type PlayConfig struct {
	Scores ScoreRecorder // nil disables score saving
	Player string
	Theme  *Theme // nil means DefaultTheme
	Logger *log.Logger
}

// PlayModel is the Bubble Tea model for an interactive game.
type PlayModel struct {
	board    *minesweeper.Board
	cursor   minesweeper.Point
	keys     PlayKeyMap
	help     help.Model
	theme    Theme
	scores   ScoreRecorder
	player   string
	logger   *log.Logger
	message  string
	recorded bool // Whether the current game has been saved
	quitting bool
}

// NewPlayModel creates a game model around board. The cursor starts in
// the middle of the board.
func NewPlayModel(board *minesweeper.Board, cfg PlayConfig) PlayModel {
	theme := DefaultTheme()
	if cfg.Theme != nil {
		theme = *cfg.Theme
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return PlayModel{
		board:  board,
		cursor: minesweeper.P(board.Width()/2, board.Height()/2),
		keys:   DefaultPlayKeyMap(),
		help:   help.New(),
		theme:  theme,
		scores: cfg.Scores,
		player: cfg.Player,
		logger: logger,
	}
}

// Init starts the once-per-second clock refresh.
func (m PlayModel) Init() tea.Cmd {
	return tickCmd(time.Second)
}

// Update handles messages and updates the model state.
func (m PlayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		// Nothing changes on the board; the redraw picks up the new elapsed time.
		return m, tickCmd(time.Second)
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m PlayModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(1, 0)

	case key.Matches(msg, m.keys.Reveal):
		if t, ok := m.board.Tile(m.cursor.X, m.cursor.Y); ok && t.Flagged && !m.board.State().Terminal() {
			m.message = "Unflag the tile before revealing it"
			return m, nil
		}
		res, err := m.board.Reveal(m.cursor.X, m.cursor.Y)
		m.afterMove(res, err)

	case key.Matches(msg, m.keys.Flag):
		res, err := m.board.ToggleFlag(m.cursor.X, m.cursor.Y)
		m.afterMove(res, err)

	case key.Matches(msg, m.keys.Reset):
		m.board.Reset()
		m.recorded = false
		m.message = ""

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

func (m *PlayModel) moveCursor(dx, dy int) {
	x := min(max(m.cursor.X+dx, 0), m.board.Width()-1)
	y := min(max(m.cursor.Y+dy, 0), m.board.Height()-1)
	m.cursor = minesweeper.P(x, y)
}

func (m *PlayModel) afterMove(res minesweeper.MoveResult, err error) {
	if err != nil {
		m.message = err.Error()
		return
	}

	switch res.Kind {
	case minesweeper.Exploded:
		m.message = "You hit a mine. Press r for a new game"
	case minesweeper.Won:
		m.message = fmt.Sprintf("Board cleared in %s. Press r for a new game", formatElapsed(m.board.Elapsed()))
	default:
		m.message = ""
	}
	m.recordScore()
}

// recordScore saves a finished game once.
func (m *PlayModel) recordScore() {
	state := m.board.State()
	if !state.Terminal() || m.recorded {
		return
	}
	m.recorded = true
	if m.scores == nil {
		return
	}

	score := storage.Score{
		Player:   m.player,
		Width:    m.board.Width(),
		Height:   m.board.Height(),
		Mines:    m.board.Mines(),
		Duration: m.board.Elapsed(),
		Won:      state == minesweeper.StateWon,
	}
	if _, err := m.scores.SaveScore(score); err != nil {
		m.logger.Warn("could not save score", "error", err)
		return
	}
	m.logger.Debug("score saved", "player", m.player, "won", score.Won, "duration", score.Duration)
}

// Cursor returns the selected tile.
func (m PlayModel) Cursor() minesweeper.Point {
	return m.cursor
}

// Message returns the last feedback line, or "".
func (m PlayModel) Message() string {
	return m.message
}

// View renders the current state to a string for display.
func (m PlayModel) View() string {
	if m.quitting {
		return ""
	}

	snap := m.board.Snapshot()
	gameOver := snap.State.Terminal()

	var b strings.Builder
	title := fmt.Sprintf("MINESWEEPER  %dx%d, %d mines", snap.Width, snap.Height, snap.Mines)
	b.WriteString(m.theme.Title.Render(title))
	b.WriteString("\n\n")
	b.WriteString(RenderBoard(snap, m.cursor, !gameOver, m.theme))
	b.WriteString("\n\n")
	b.WriteString(RenderStatus(snap, m.theme))
	b.WriteString("\n")
	if m.message != "" {
		b.WriteString(m.theme.Message.Render(m.message))
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Help.Render(m.help.View(m.keys)))

	return b.String()
}

// RunPlay starts the Bubble Tea program for a local game.
func RunPlay(board *minesweeper.Board, cfg PlayConfig) error {
	p := tea.NewProgram(
		NewPlayModel(board, cfg),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
