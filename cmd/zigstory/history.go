package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zigstory/zigstory/internal/config"
	"github.com/zigstory/zigstory/internal/store"
	"github.com/zigstory/zigstory/internal/writer"
)

var (
	historyLimit  int
	historyCWD    string
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:     "history [prefix]",
	Short:   "Show recent command history",
	GroupID: groupCore,
	Long: `Show recent command history from the zigstory database.

Without arguments, shows the most recent commands across all directories.
With a prefix argument, only commands starting with it are shown.

Examples:
  zigstory history                  # Last 20 commands
  zigstory history --limit 50       # Last 50 commands
  zigstory history -c /tmp          # Commands run from /tmp
  zigstory history --format json    # Emit JSON rows`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of commands to show")
	historyCmd.Flags().StringVarP(&historyCWD, "cwd", "c", "", "filter by working directory")
	historyCmd.Flags().StringVar(&historyFormat, "format", "raw", "output format: raw or json")

	historyCmd.AddCommand(historyImportCmd)
}

type historyRow struct {
	Command    string `json:"command"`
	CWD        string `json:"cwd"`
	ExitCode   int    `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
	EventTime  int64  `json:"event_time"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("invalid --limit: must be > 0")
	}

	paths := config.DefaultPaths()
	s, err := store.Open(paths.DatabaseFile())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `SELECT command, cwd, exit_code, duration_ms, event_time FROM history WHERE 1=1`
	var queryArgs []any
	if len(args) > 0 {
		query += ` AND command LIKE ? ESCAPE '\' COLLATE NOCASE`
		queryArgs = append(queryArgs, store.EscapeLikePattern(args[0])+"%")
	}
	if historyCWD != "" {
		query += ` AND cwd = ?`
		queryArgs = append(queryArgs, historyCWD)
	}
	query += ` ORDER BY event_time DESC, id DESC LIMIT ?`
	queryArgs = append(queryArgs, historyLimit)

	rows, err := s.DB().QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []historyRow
	for rows.Next() {
		var r historyRow
		if err := rows.Scan(&r.Command, &r.CWD, &r.ExitCode, &r.DurationMs, &r.EventTime); err != nil {
			return err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	return printHistory(out)
}

func printHistory(rows []historyRow) error {
	switch strings.ToLower(strings.TrimSpace(historyFormat)) {
	case "", "raw":
		for _, r := range rows {
			fmt.Println(r.Command)
		}
		return nil
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		return enc.Encode(rows)
	default:
		return fmt.Errorf("invalid --format: %s (use raw or json)", historyFormat)
	}
}

// --- history import subcommand ---

var (
	importPath string
	importJSON bool
)

var historyImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a shell history file or JSON batch into zigstory",
	Long: `Import commands from a plain-text shell history file (one command per
line) or a JSON array of {cmd, cwd, exit_code, duration_ms} objects.

Shell-history lines get descending synthetic timestamps, one minute apart,
counted back from the moment of the import; any (command, cwd, event_time)
triple already present is skipped. A re-import started in a later second
gets different timestamps and so adds the lines again.

Examples:
  zigstory history import --path ~/.bash_history
  zigstory history import --path dump.json --json`,
	RunE: runHistoryImport,
}

func init() {
	historyImportCmd.Flags().StringVar(&importPath, "path", "", "file to import (required)")
	historyImportCmd.Flags().BoolVar(&importJSON, "json", false, "treat --path as a JSON batch rather than a text history file")
	_ = historyImportCmd.MarkFlagRequired("path")
}

func runHistoryImport(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	s, err := store.Open(paths.DatabaseFile())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	f, err := os.Open(importPath)
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	w := writer.New(s)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var result writer.BatchResult
	if importJSON {
		result, err = w.ImportJSON(ctx, f, "", "")
	} else {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			cwd = ""
		}
		result, err = w.ImportText(ctx, f, cwd, "", "", time.Now())
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported %d of %d entries (%d skipped).\n", result.Imported, result.Total, result.Skipped)
	return nil
}
