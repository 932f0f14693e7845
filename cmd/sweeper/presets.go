package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/sweeper/internal/config"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List board presets",
	Long: `Display every board preset that --preset accepts.

Example:
  sweeper presets`,
	Args: cobra.NoArgs,
	Run:  runPresets,
}

func runPresets(_ *cobra.Command, _ []string) {
	fmt.Println("Board presets:")
	fmt.Println()

	for _, p := range config.Presets() {
		fmt.Printf("  %-14s %2dx%-2d %4d mines  %4.1f%%\n", p.Name, p.Width, p.Height, p.Mines, p.Density()*100)
	}

	fmt.Println()
	fmt.Println("Use 'sweeper play --preset <name>' to play one.")
}
