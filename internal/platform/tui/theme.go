package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme contains all configurable visual styles for the board views.
type Theme struct {
	// Tile styles
	Hidden  lipgloss.Style
	Empty   lipgloss.Style
	Flag    lipgloss.Style
	Mine    lipgloss.Style
	Numbers [9]lipgloss.Style // indexed by neighbor count, 0 unused
	Cursor  lipgloss.Style

	// HUD styles
	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Separator lipgloss.Style
	Won       lipgloss.Style
	Lost      lipgloss.Style
	Message   lipgloss.Style
	Help      lipgloss.Style

	// Menu styles
	MenuItemNormal  lipgloss.Style
	MenuItemActive  lipgloss.Style
	MenuDescription lipgloss.Style
}

// DefaultTheme returns the classic colored number palette.
func DefaultTheme() Theme {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}

	return Theme{
		Hidden: fg("240"),
		Empty:  fg("236"),
		Flag:   fg("208").Bold(true),
		Mine:   fg("196").Bold(true),
		Numbers: [9]lipgloss.Style{
			lipgloss.NewStyle(),
			fg("33"),  // blue
			fg("34"),  // green
			fg("196"), // red
			fg("19"),  // navy
			fg("88"),  // maroon
			fg("37"),  // teal
			fg("255"), // white
			fg("245"), // gray
		},
		Cursor: lipgloss.NewStyle().Reverse(true),

		Title:     fg("51").Bold(true),
		Label:     fg("245"),
		Value:     fg("255"),
		Separator: fg("240"),
		Won:       fg("46").Bold(true),
		Lost:      fg("196").Bold(true),
		Message:   fg("226"),
		Help:      fg("241"),

		MenuItemNormal:  fg("252"),
		MenuItemActive:  fg("226").Bold(true),
		MenuDescription: fg("245"),
	}
}

// MonochromeTheme returns a grayscale theme for terminals with poor color
// support.
func MonochromeTheme() Theme {
	theme := DefaultTheme()
	for i := 1; i < len(theme.Numbers); i++ {
		theme.Numbers[i] = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	}
	theme.Flag = lipgloss.NewStyle().Bold(true)
	theme.Mine = lipgloss.NewStyle().Bold(true)
	theme.Won = lipgloss.NewStyle().Bold(true)
	theme.Lost = lipgloss.NewStyle().Bold(true)
	return theme
}

// ThemeByName resolves "default" or "mono". An empty name is the default.
func ThemeByName(name string) (Theme, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return DefaultTheme(), nil
	case "mono", "monochrome":
		return MonochromeTheme(), nil
	default:
		return Theme{}, fmt.Errorf("unknown theme %q (want default or mono)", name)
	}
}
