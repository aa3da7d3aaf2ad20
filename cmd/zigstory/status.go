package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zigstory/zigstory/internal/config"
	"github.com/zigstory/zigstory/internal/store"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show zigstory store health",
	GroupID: groupSetup,
	Long: `Show the store's on-disk path, row counts, and whether a migration
backfill is still pending.`,
	RunE: runStatus,
}

type statusCheck struct {
	name    string
	status  string // "ok", "warn", "error"
	message string
}

func runStatus(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	fmt.Println("zigstory status")
	fmt.Println("----------------------------------------")

	checks := []statusCheck{checkStorePath(paths), checkStoreHealth(paths)}

	hasErrors, hasWarnings := false, false
	for _, c := range checks {
		var icon string
		switch c.status {
		case "ok":
			icon = "[OK]"
		case "warn":
			icon = "[WARN]"
			hasWarnings = true
		case "error":
			icon = "[ERROR]"
			hasErrors = true
		}
		fmt.Printf("  %-8s %-10s %s\n", icon, c.name, c.message)
	}

	fmt.Println()
	if hasErrors {
		return fmt.Errorf("status check found errors")
	}
	if hasWarnings {
		fmt.Println("All critical checks passed.")
	} else {
		fmt.Println("All checks passed!")
	}
	return nil
}

func checkStorePath(paths *config.Paths) statusCheck {
	dbFile := paths.DatabaseFile()
	info, err := os.Stat(dbFile)
	if os.IsNotExist(err) {
		return statusCheck{name: "Storage", status: "warn", message: fmt.Sprintf("%s (will be created)", dbFile)}
	}
	if err != nil {
		return statusCheck{name: "Storage", status: "error", message: err.Error()}
	}
	return statusCheck{name: "Storage", status: "ok", message: fmt.Sprintf("%s (%s)", dbFile, formatSize(info.Size()))}
}

func checkStoreHealth(paths *config.Paths) statusCheck {
	s, err := store.Open(paths.DatabaseFile())
	if err != nil {
		return statusCheck{name: "Migration", status: "error", message: err.Error()}
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var total, pending int64
	if err := s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&total); err != nil {
		return statusCheck{name: "Migration", status: "error", message: err.Error()}
	}
	if err := s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM history WHERE rank IS NULL OR command_hash IS NULL`).Scan(&pending); err != nil {
		return statusCheck{name: "Migration", status: "error", message: err.Error()}
	}
	if pending > 0 {
		return statusCheck{name: "Migration", status: "warn", message: fmt.Sprintf("%d/%d rows pending backfill", pending, total)}
	}
	return statusCheck{name: "Migration", status: "ok", message: fmt.Sprintf("%d rows, fully migrated", total)}
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
