package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// jsonEntry is the wire shape of one element of a JSON batch import file.
// Fields beyond these are ignored.
type jsonEntry struct {
	Command    string `json:"cmd"`
	CWD        string `json:"cwd"`
	ExitCode   int    `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
}

// ImportJSON reads a JSON array of command entries from r and writes them as
// one batch under a single session/host tag. Entries that don't parse as a
// jsonEntry are skipped rather than aborting the whole import; entries that
// parse but fail Record validation are also dropped by WriteBatch.
func (w *Writer) ImportJSON(ctx context.Context, r io.Reader, sessionID, hostname string) (BatchResult, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return BatchResult{}, fmt.Errorf("writer: decode json batch: %w", err)
	}

	recs := make([]BatchRecord, 0, len(raw))
	malformed := 0
	for _, msg := range raw {
		var e jsonEntry
		if err := json.Unmarshal(msg, &e); err != nil {
			malformed++
			continue
		}
		recs = append(recs, BatchRecord{
			Command:    e.Command,
			CWD:        e.CWD,
			ExitCode:   e.ExitCode,
			DurationMs: e.DurationMs,
		})
	}

	result, err := w.WriteBatch(ctx, recs, sessionID, hostname)
	if err != nil {
		return BatchResult{}, err
	}
	result.Total += malformed
	result.Skipped += malformed
	return result, nil
}
