package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/sweeper/internal/minesweeper"
)

// Tile glyphs.
const (
	glyphHidden    = '#'
	glyphEmpty     = '.'
	glyphFlag      = 'F'
	glyphMine      = '*'
	glyphWrongFlag = 'X'
)

// cellClass selects the style a cell is drawn with.
type cellClass int

const (
	classHidden cellClass = iota
	classEmpty
	classFlag
	classMine
	classCursor
	classNumber // classNumber+n for a count of n
)

// cellGlyph returns the rune and style class for a tile. Once the game is
// over, hidden mines are uncovered and wrong flags marked.
func cellGlyph(t minesweeper.Tile, state minesweeper.State) (rune, cellClass) {
	switch {
	case t.Flagged:
		if state == minesweeper.StateLost && !t.Mine {
			return glyphWrongFlag, classMine
		}
		return glyphFlag, classFlag
	case t.Revealed && t.Mine:
		return glyphMine, classMine
	case t.Revealed && t.NeighborMines == 0:
		return glyphEmpty, classEmpty
	case t.Revealed:
		return rune('0' + t.NeighborMines), classNumber + cellClass(t.NeighborMines)
	case t.Mine && state == minesweeper.StateLost:
		return glyphMine, classMine
	case t.Mine && state == minesweeper.StateWon:
		return glyphFlag, classFlag
	default:
		return glyphHidden, classHidden
	}
}

func (th Theme) style(c cellClass) lipgloss.Style {
	switch {
	case c == classHidden:
		return th.Hidden
	case c == classEmpty:
		return th.Empty
	case c == classFlag:
		return th.Flag
	case c == classMine:
		return th.Mine
	case c == classCursor:
		return th.Cursor
	case c > classNumber && int(c-classNumber) < len(th.Numbers):
		return th.Numbers[c-classNumber]
	default:
		return lipgloss.NewStyle()
	}
}

// RenderBoard draws a snapshot, one glyph per tile separated by spaces.
// When showCursor is set the tile under cursor is drawn with the cursor
// style. Adjacent cells of the same style are grouped to keep ANSI escape
// sequences down.
func RenderBoard(s minesweeper.Snapshot, cursor minesweeper.Point, showCursor bool, theme Theme) string {
	classify := func(x, y int) (rune, cellClass) {
		r, c := cellGlyph(s.At(x, y), s.State)
		if showCursor && x == cursor.X && y == cursor.Y {
			c = classCursor
		}
		return r, c
	}

	var sb strings.Builder
	sb.Grow(s.Width*s.Height*2 + s.Height)

	for y := range s.Height {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width {
			_, startClass := classify(x, y)

			var run strings.Builder
			for x < s.Width {
				r, c := classify(x, y)
				if c != startClass {
					break
				}
				if run.Len() > 0 {
					run.WriteRune(' ')
				}
				run.WriteRune(r)
				x++
			}

			sb.WriteString(theme.style(startClass).Render(run.String()))
			if x < s.Width {
				sb.WriteRune(' ')
			}
		}
	}
	return sb.String()
}

// RenderStatus draws the one-line HUD under the board.
func RenderStatus(s minesweeper.Snapshot, theme Theme) string {
	sep := theme.Separator.Render(" | ")

	parts := []string{
		theme.Label.Render("Flags ") + theme.Value.Render(fmt.Sprintf("%d/%d", s.FlagsPlaced, s.Mines)),
		theme.Label.Render("Time ") + theme.Value.Render(formatElapsed(s.Elapsed)),
		renderState(s.State, theme),
	}
	return strings.Join(parts, sep)
}

func renderState(state minesweeper.State, theme Theme) string {
	switch state {
	case minesweeper.StateWon:
		return theme.Won.Render("CLEARED")
	case minesweeper.StateLost:
		return theme.Lost.Render("BOOM")
	default:
		return theme.Value.Render("playing")
	}
}

// formatElapsed renders whole seconds, switching to m:ss past a minute.
func formatElapsed(d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text
}
