package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zigstory/zigstory/internal/config"
	"github.com/zigstory/zigstory/internal/store"
	"github.com/zigstory/zigstory/internal/writer"
)

// runIngest reads one command event from the environment and writes it.
// Failures here are best-effort: every failure mode short-circuits to exit
// 0 so a flaky store never disrupts the user's prompt. Each failure (a
// missing or malformed variable, a store that won't open, a failed write)
// is logged to stderr for debugging.
func runIngest(args []string, stderr io.Writer) int {
	if os.Getenv("ZIGSTORY_NO_RECORD") == "1" {
		return 0
	}

	rec, err := readIngestEnv()
	if err != nil {
		fmt.Fprintf(stderr, "zigstory-hook ingest: %v\n", err)
		return 0
	}

	paths := config.DefaultPaths()
	s, err := store.Open(paths.DatabaseFile())
	if err != nil {
		fmt.Fprintf(stderr, "zigstory-hook ingest: %v\n", err)
		return 0
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := writer.New(s).Write(ctx, rec); err != nil {
		fmt.Fprintf(stderr, "zigstory-hook ingest: %v\n", err)
	}
	return 0
}

func readIngestEnv() (writer.Record, error) {
	cmd := os.Getenv("ZIGSTORY_CMD")
	if cmd == "" {
		return writer.Record{}, fmt.Errorf("ZIGSTORY_CMD is required")
	}
	cwd := os.Getenv("ZIGSTORY_CWD")
	if cwd == "" {
		return writer.Record{}, fmt.Errorf("ZIGSTORY_CWD is required")
	}

	rec := writer.Record{
		Command:   toValidUTF8(cmd),
		CWD:       cwd,
		SessionID: os.Getenv("ZIGSTORY_SESSION_ID"),
		Hostname:  os.Getenv("ZIGSTORY_HOSTNAME"),
	}

	if v := os.Getenv("ZIGSTORY_EXIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return writer.Record{}, fmt.Errorf("ZIGSTORY_EXIT must be an integer: %w", err)
		}
		rec.ExitCode = n
	}
	if v := os.Getenv("ZIGSTORY_DURATION_MS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return writer.Record{}, fmt.Errorf("ZIGSTORY_DURATION_MS must be an integer: %w", err)
		}
		rec.DurationMs = n
	}

	return rec, nil
}

// toValidUTF8 performs lossy UTF-8 conversion by replacing invalid bytes
// with the Unicode replacement character (U+FFFD), so a command captured
// from a shell running in a non-UTF-8 locale can still be stored and
// JSON-encoded safely.
func toValidUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
		} else {
			b.WriteRune(r)
		}
		i += size
	}

	return b.String()
}
