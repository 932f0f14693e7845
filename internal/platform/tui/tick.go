// Package tui provides the Bubble Tea front ends for the sweeper: the
// interactive game, the policy viewer, the best-times browser and the SSH
// server that hosts the game remotely.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent on every timer refresh.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends a TickMsg after interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
