package main

import (
	"github.com/spf13/cobra"
)

// Command group IDs, used to split help output into sections.
const (
	groupCore  = "core"
	groupSetup = "setup"
)

var rootCmd = &cobra.Command{
	Use:   "zigstory",
	Short: "persistent shell command history with frecency ranking",
	Long: `zigstory - a persistent shell command history database
  - every command you run is recorded with its directory, exit code and duration
  - suggestions offer the most recently used commands matching what you typed
  - Ctrl+R-style interactive search across your whole history`,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupCore, Title: "Core Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(statusCmd)
}
