package config

import (
	"fmt"
	"strings"
)

// Preset names a standard board size.
type Preset string

const (
	PresetBeginner     Preset = "beginner"
	PresetIntermediate Preset = "intermediate"
	PresetExpert       Preset = "expert"
	PresetGrandmaster  Preset = "grandmaster"
)

// BoardPreset is a named board size and mine count.
type BoardPreset struct {
	Name   Preset
	Width  int
	Height int
	Mines  int
}

// Density returns the fraction of cells that hold a mine.
func (p BoardPreset) Density() float64 {
	return float64(p.Mines) / float64(p.Width*p.Height)
}

var presets = []BoardPreset{
	{PresetBeginner, 9, 9, 10},
	{PresetIntermediate, 16, 16, 40},
	{PresetExpert, 30, 16, 99},
	{PresetGrandmaster, 40, 22, 182},
}

// Presets returns the standard boards from smallest to largest.
func Presets() []BoardPreset {
	out := make([]BoardPreset, len(presets))
	copy(out, presets)
	return out
}

// LookupPreset finds a preset by case-insensitive name.
func LookupPreset(name string) (BoardPreset, bool) {
	for _, p := range presets {
		if strings.EqualFold(string(p.Name), name) {
			return p, true
		}
	}
	return BoardPreset{}, false
}

// ApplyPreset sets the board dimensions and mine count from a preset.
// Safe radius and seed are kept.
func ApplyPreset(cfg *Config, name string) error {
	p, ok := LookupPreset(name)
	if !ok {
		return fmt.Errorf("unknown preset %q (want one of %s)", name, presetNames())
	}
	cfg.Board.Width = p.Width
	cfg.Board.Height = p.Height
	cfg.Board.Mines = p.Mines
	return nil
}

func presetNames() string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = string(p.Name)
	}
	return strings.Join(names, ", ")
}
