package main

import (
	"os"
	"testing"
)

// TestRunRejectsDumbTerminal covers the preflight chain: whether or not a
// real /dev/tty is available in the test environment, TERM=dumb (or a
// missing tty) must short-circuit before the lock or store are ever
// touched, and must never return the "confirmed" exit code.
func TestRunRejectsDumbTerminal(t *testing.T) {
	t.Setenv("TERM", "dumb")
	t.Setenv("ZIGSTORY_HOME", t.TempDir())

	code := run(nil, os.Stdout, os.Stderr)
	if code != exitCancelled {
		t.Fatalf("code = %d, want %d", code, exitCancelled)
	}
}
