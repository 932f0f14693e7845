package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/sweeper/internal/config"
)

// MenuModel is the Bubble Tea model for the board preset picker.
type MenuModel struct {
	items    []config.BoardPreset
	cursor   int
	width    int
	keys     MenuKeyMap
	help     help.Model
	theme    Theme
	quitting bool
	selected *config.BoardPreset // Set when user picks a preset
}

// NewMenuModel creates a new menu model listing every preset.
func NewMenuModel(width int) MenuModel {
	return MenuModel{
		items: config.Presets(),
		width: width,
		keys:  DefaultMenuKeyMap(),
		help:  help.New(),
		theme: DefaultTheme(),
	}
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input for menu navigation.
func (m MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Select):
		if len(m.items) > 0 {
			selected := m.items[m.cursor]
			m.selected = &selected
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting || m.selected != nil {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText(m.theme.Title.Render("  M I N E S W E E P E R  "), m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText(m.theme.MenuDescription.Render("Choose a board"), m.width))
	b.WriteString("\n\n")

	for i, p := range m.items {
		cursor := "  "
		style := m.theme.MenuItemNormal
		if i == m.cursor {
			cursor = "> "
			style = m.theme.MenuItemActive
		}

		line := fmt.Sprintf("%s%-13s %2dx%-2d %3d mines", cursor, p.Name, p.Width, p.Height, p.Mines)
		b.WriteString(centerText(style.Render(line), m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText(m.theme.Help.Render(m.help.View(m.keys)), m.width))
	b.WriteString("\n")

	return b.String()
}

// Selected returns the chosen preset, or nil if none was chosen.
func (m MenuModel) Selected() *config.BoardPreset {
	return m.selected
}

// RunMenu shows the preset picker. ok is false when the user quit without
// choosing.
func RunMenu(width int) (preset config.BoardPreset, ok bool, err error) {
	p := tea.NewProgram(
		NewMenuModel(width),
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return config.BoardPreset{}, false, err
	}

	m, isMenu := finalModel.(MenuModel)
	if !isMenu || m.Selected() == nil {
		return config.BoardPreset{}, false, nil
	}
	return *m.Selected(), true, nil
}
