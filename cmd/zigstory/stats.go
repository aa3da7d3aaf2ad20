package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zigstory/zigstory/internal/analytics"
	"github.com/zigstory/zigstory/internal/config"
	"github.com/zigstory/zigstory/internal/store"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show the analytics report (top commands, hourly activity, top directories)",
	GroupID: groupCore,
	Long: `Show an overview of your command history: row counts, success rate,
the 10 most-used commands, an hourly activity histogram, and the 10
most-visited directories.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	s, err := store.Open(paths.DatabaseFile())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := analytics.Generate(ctx, s.DB())
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	fmt.Print(report.Render())
	return nil
}
