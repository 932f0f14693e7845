package tui

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/sweeper/internal/agent"
	"github.com/vovakirdan/sweeper/internal/env"
	"github.com/vovakirdan/sweeper/internal/minesweeper"
	"github.com/vovakirdan/sweeper/internal/storage"
)

var (
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// plain has no styling so rendered output can be compared directly.
var plain = Theme{}

// smallBoard is 3x2 with a mine in the top-left corner. Revealing (2,1)
// opens everything except (0,0) and (0,1).
func smallBoard(t *testing.T) *minesweeper.Board {
	t.Helper()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b, err := minesweeper.NewFromLayout(3, 2, []minesweeper.Point{minesweeper.P(0, 0)},
		minesweeper.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return b
}

type fakeScores struct {
	saved []storage.Score
	err   error
}

func (f *fakeScores) SaveScore(s storage.Score) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.saved = append(f.saved, s)
	return int64(len(f.saved)), nil
}

func press(t *testing.T, m tea.Model, msgs ...tea.Msg) PlayModel {
	t.Helper()
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	pm, ok := m.(PlayModel)
	require.True(t, ok)
	return pm
}

func TestRenderBoard(t *testing.T) {
	b := smallBoard(t)
	_, err := b.Reveal(2, 1)
	require.NoError(t, err)

	assert.Equal(t, "# 1 .\n# 1 .", RenderBoard(b.Snapshot(), minesweeper.Point{}, false, plain))

	_, err = b.ToggleFlag(0, 1)
	require.NoError(t, err)
	assert.Equal(t, "# 1 .\nF 1 .", RenderBoard(b.Snapshot(), minesweeper.P(1, 1), true, plain))
}

func TestRenderBoardAfterLoss(t *testing.T) {
	b := smallBoard(t)
	_, err := b.Reveal(2, 1)
	require.NoError(t, err)
	_, err = b.ToggleFlag(0, 1)
	require.NoError(t, err)
	_, err = b.Reveal(0, 0)
	require.NoError(t, err)
	require.Equal(t, minesweeper.StateLost, b.State())

	assert.Equal(t, "* 1 .\nX 1 .", RenderBoard(b.Snapshot(), minesweeper.Point{}, false, plain))
}

func TestRenderBoardAfterWinFlagsMines(t *testing.T) {
	b := smallBoard(t)
	_, err := b.Reveal(2, 1)
	require.NoError(t, err)
	_, err = b.Reveal(0, 1)
	require.NoError(t, err)
	require.Equal(t, minesweeper.StateWon, b.State())

	assert.Equal(t, "F 1 .\n1 1 .", RenderBoard(b.Snapshot(), minesweeper.Point{}, false, plain))
}

func TestRenderStatus(t *testing.T) {
	b := smallBoard(t)
	assert.Equal(t, "Flags 0/1 | Time 0s | playing", RenderStatus(b.Snapshot(), plain))

	_, err := b.ToggleFlag(0, 0)
	require.NoError(t, err)
	_, err = b.Reveal(2, 1)
	require.NoError(t, err)
	_, err = b.Reveal(0, 1)
	require.NoError(t, err)
	assert.Equal(t, "Flags 1/1 | Time 0s | CLEARED", RenderStatus(b.Snapshot(), plain))
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{1500 * time.Millisecond, "1s"},
		{59 * time.Second, "59s"},
		{61 * time.Second, "1:01"},
		{10*time.Minute + 5*time.Second, "10:05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatElapsed(tt.d), tt.d.String())
	}
}

func TestThemeByName(t *testing.T) {
	for _, name := range []string{"", "default", "mono", "Monochrome"} {
		_, err := ThemeByName(name)
		assert.NoError(t, err, name)
	}
	_, err := ThemeByName("neon")
	assert.Error(t, err)
}

func TestPlayCursorStaysOnBoard(t *testing.T) {
	m := NewPlayModel(smallBoard(t), PlayConfig{Theme: &plain})
	assert.Equal(t, minesweeper.P(1, 1), m.Cursor())

	m = press(t, m, keyLeft, keyLeft, keyLeft)
	assert.Equal(t, minesweeper.P(0, 1), m.Cursor())

	m = press(t, m, keyUp, keyUp)
	assert.Equal(t, minesweeper.P(0, 0), m.Cursor())

	m = press(t, m, runeKey('l'), runeKey('l'), runeKey('l'), runeKey('j'), runeKey('j'))
	assert.Equal(t, minesweeper.P(2, 1), m.Cursor())

	m = press(t, m, runeKey('h'), runeKey('k'), keyDown, keyRight)
	assert.Equal(t, minesweeper.P(2, 1), m.Cursor())
}

func TestPlayWinIsRecordedOnce(t *testing.T) {
	b := smallBoard(t)
	scores := &fakeScores{}
	m := NewPlayModel(b, PlayConfig{Scores: scores, Player: "ann", Theme: &plain})

	m = press(t, m, keyRight, keySpace)
	assert.Equal(t, minesweeper.StateActive, b.State())
	assert.Empty(t, scores.saved)

	m = press(t, m, keyLeft, keyLeft, keyEnter)
	require.Equal(t, minesweeper.StateWon, b.State())
	require.Len(t, scores.saved, 1)
	assert.Equal(t, storage.Score{Player: "ann", Width: 3, Height: 2, Mines: 1, Won: true}, scores.saved[0])
	assert.Contains(t, m.Message(), "Board cleared")

	m = press(t, m, keySpace, runeKey('f'))
	assert.Len(t, scores.saved, 1)
}

func TestPlayLossIsRecorded(t *testing.T) {
	b := smallBoard(t)
	scores := &fakeScores{}
	m := NewPlayModel(b, PlayConfig{Scores: scores, Theme: &plain})

	m = press(t, m, keyRight, keySpace, keyLeft, keyLeft, keyUp, keySpace)
	require.Equal(t, minesweeper.StateLost, b.State())
	require.Len(t, scores.saved, 1)
	assert.False(t, scores.saved[0].Won)
	assert.Contains(t, m.Message(), "hit a mine")
}

func TestPlayScoreErrorDoesNotStopGame(t *testing.T) {
	b := smallBoard(t)
	scores := &fakeScores{err: errors.New("disk full")}
	m := NewPlayModel(b, PlayConfig{Scores: scores, Theme: &plain})

	m = press(t, m, keyLeft, keyUp, keySpace)
	assert.Equal(t, minesweeper.StateLost, b.State())
	assert.Empty(t, scores.saved)
}

func TestPlayFlaggedTileIsNotRevealed(t *testing.T) {
	b := smallBoard(t)
	m := NewPlayModel(b, PlayConfig{Theme: &plain})

	m = press(t, m, runeKey('f'), keySpace)
	tile, ok := b.Tile(1, 1)
	require.True(t, ok)
	assert.True(t, tile.Flagged)
	assert.False(t, tile.Revealed)
	assert.Contains(t, m.Message(), "Unflag")

	m = press(t, m, runeKey('f'), keySpace)
	tile, _ = b.Tile(1, 1)
	assert.True(t, tile.Revealed)
	assert.Empty(t, m.Message())
}

func TestPlayResetStartsNewGame(t *testing.T) {
	b := smallBoard(t)
	scores := &fakeScores{}
	m := NewPlayModel(b, PlayConfig{Scores: scores, Theme: &plain})

	m = press(t, m, keyLeft, keyUp, keySpace)
	require.Equal(t, minesweeper.StateLost, b.State())

	m = press(t, m, runeKey('r'))
	assert.Equal(t, minesweeper.StateActive, b.State())
	assert.False(t, b.MinesGenerated())
	assert.Empty(t, m.Message())
	assert.Len(t, scores.saved, 1)
}

func TestPlayTickAndQuit(t *testing.T) {
	m := NewPlayModel(smallBoard(t), PlayConfig{Theme: &plain})
	assert.NotNil(t, m.Init())

	_, cmd := m.Update(TickMsg(time.Now()))
	assert.NotNil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "MINESWEEPER  3x2, 1 mines")
	assert.Contains(t, view, "Flags 0/1 | Time 0s | playing")

	next, cmd := m.Update(runeKey('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

// watchEnv is 3x2 with a mine at (2,1). Revealing (0,0) opens four tiles
// and leaves (2,0) as the last safe tile.
func watchEnv(t *testing.T) *env.Env {
	t.Helper()
	e, err := env.New(env.Config{Width: 3, Height: 2, Mines: 1}, env.WithBoardFactory(func() (*minesweeper.Board, error) {
		return minesweeper.NewFromLayout(3, 2, []minesweeper.Point{minesweeper.P(2, 1)})
	}))
	require.NoError(t, err)
	return e
}

func watchLearner(t *testing.T, e *env.Env, table *agent.Table) *agent.Learner {
	t.Helper()
	l, err := agent.New(table, e.ActionSpace(), agent.DefaultParams(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return l
}

func tick(t *testing.T, m tea.Model, n int) WatchModel {
	t.Helper()
	for range n {
		var cmd tea.Cmd
		m, cmd = m.Update(TickMsg(time.Now()))
		require.NotNil(t, cmd)
	}
	wm, ok := m.(WatchModel)
	require.True(t, ok)
	return wm
}

func TestWatchStepsGreedyPolicy(t *testing.T) {
	e := watchEnv(t)
	m := NewWatchModel(e, watchLearner(t, e, agent.NewTable()), WatchConfig{MaxSteps: 2, Theme: &plain})

	// An empty table picks reveal(0,0) first, then repeats it for -1.
	m = tick(t, m, 1)
	assert.Equal(t, 1, m.Steps())
	assert.Equal(t, env.RewardOpen, m.Reward())

	m = tick(t, m, 1)
	assert.Equal(t, 2, m.Steps())
	assert.Equal(t, env.RewardOpen+env.RewardNoChange, m.Reward())

	m = tick(t, m, 3)
	assert.Equal(t, 2, m.Steps(), "step cap")
	assert.Contains(t, m.View(), "step limit reached")

	next, _ := m.Update(runeKey('r'))
	m = next.(WatchModel)
	assert.Equal(t, 0, m.Steps())
	assert.Zero(t, m.Reward())
}

func TestWatchPlaysLearnedWin(t *testing.T) {
	// Teach the table that (2,0) is the move after the opening reveal.
	scratch := watchEnv(t)
	res, err := scratch.Step(env.Action{X: 0, Y: 0, Kind: env.Reveal})
	require.NoError(t, err)
	table := agent.NewTable()
	table.Update(res.Observation.Key(), env.Action{X: 2, Y: 0, Kind: env.Reveal}, func(float64) float64 { return 1 })

	e := watchEnv(t)
	m := NewWatchModel(e, watchLearner(t, e, table), WatchConfig{Theme: &plain})

	m = tick(t, m, 4)
	assert.Equal(t, 2, m.Steps())
	assert.Equal(t, env.RewardOpen+env.RewardWin, m.Reward())
	played, won := m.Episodes()
	assert.Equal(t, 1, played)
	assert.Equal(t, 1, won)
	assert.Contains(t, m.View(), "episode over")
}

func TestWatchPause(t *testing.T) {
	e := watchEnv(t)
	m := NewWatchModel(e, watchLearner(t, e, agent.NewTable()), WatchConfig{Theme: &plain})

	next, _ := m.Update(runeKey('p'))
	m = tick(t, next, 3)
	assert.Equal(t, 0, m.Steps())
	assert.Contains(t, m.View(), "paused")
}

func TestMenuSelectsPreset(t *testing.T) {
	var m tea.Model = NewMenuModel(80)
	m, _ = m.Update(keyDown)
	m, _ = m.Update(keyDown)
	m, _ = m.Update(keyUp)
	m, cmd := m.Update(keyEnter)
	require.NotNil(t, cmd)

	menu := m.(MenuModel)
	require.NotNil(t, menu.Selected())
	assert.Equal(t, "intermediate", string(menu.Selected().Name))
}

func TestMenuQuitSelectsNothing(t *testing.T) {
	var m tea.Model = NewMenuModel(80)
	m, _ = m.Update(runeKey('q'))
	assert.Nil(t, m.(MenuModel).Selected())
}

type fakeSource struct {
	boards []storage.BoardStats
	times  map[[3]int][]storage.Score
}

func (f fakeSource) AllBoardStats() ([]storage.BoardStats, error) {
	return f.boards, nil
}

func (f fakeSource) BestTimes(w, h, mines, _ int) ([]storage.Score, error) {
	return f.times[[3]int{w, h, mines}], nil
}

func TestScoreboardCyclesBoards(t *testing.T) {
	src := fakeSource{
		boards: []storage.BoardStats{
			{Width: 16, Height: 16, Mines: 40, Games: 3, Wins: 1},
			{Width: 9, Height: 9, Mines: 10, Games: 5, Wins: 2},
		},
		times: map[[3]int][]storage.Score{
			{16, 16, 40}: {{Player: "ann", Duration: 95 * time.Second, Won: true}},
			{9, 9, 10}:   {{Player: "bob", Duration: 12 * time.Second, Won: true}},
		},
	}

	var m tea.Model = NewScoreboardModel(src, 100, 30)
	sb := m.(ScoreboardModel)
	board, ok := sb.SelectedBoard()
	require.True(t, ok)
	assert.Equal(t, 16, board.Width)
	assert.Contains(t, sb.View(), "16x16/40")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	board, _ = m.(ScoreboardModel).SelectedBoard()
	assert.Equal(t, 9, board.Width)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	board, _ = m.(ScoreboardModel).SelectedBoard()
	assert.Equal(t, 16, board.Width)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	board, _ = m.(ScoreboardModel).SelectedBoard()
	assert.Equal(t, 9, board.Width)
}

func TestScoreboardEmpty(t *testing.T) {
	sb := NewScoreboardModel(fakeSource{}, 60, 20)
	_, ok := sb.SelectedBoard()
	assert.False(t, ok)
	assert.Contains(t, sb.View(), "No wins recorded yet")
}
