// zigstory-browse is the interactive TUI entry point for the history
// browser. It preflights the TTY, TERM and terminal width before ever
// touching bubbletea, so a script piping stdout or running under
// TERM=dumb gets a clear error instead of a wedged terminal.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/zigstory/zigstory/internal/browser"
	"github.com/zigstory/zigstory/internal/config"
	"github.com/zigstory/zigstory/internal/store"
)

// Exit codes match the expectations of shell integrations:
//
//	0 = a row was confirmed, stdout carries its command text
//	1 = cancelled by the user, or the browser could not start
const (
	exitConfirmed = 0
	exitCancelled = 1
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	if err := checkTTY(); err != nil {
		fmt.Fprintf(stderr, "zigstory-browse: %v\n", err)
		return exitCancelled
	}
	if err := checkTERM(); err != nil {
		fmt.Fprintf(stderr, "zigstory-browse: %v\n", err)
		return exitCancelled
	}
	if err := checkTermWidth(); err != nil {
		fmt.Fprintf(stderr, "zigstory-browse: %v\n", err)
		return exitCancelled
	}

	paths := config.DefaultPaths()
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Fprintf(stderr, "zigstory-browse: %v\n", err)
		return exitCancelled
	}

	lockFd, err := acquireLock(paths.LockFile())
	if err != nil {
		fmt.Fprintf(stderr, "zigstory-browse: %v\n", err)
		return exitCancelled
	}
	defer releaseLock(lockFd)

	s, err := store.Open(paths.DatabaseFile())
	if err != nil {
		fmt.Fprintf(stderr, "zigstory-browse: cannot open history store: %v\n", err)
		return exitCancelled
	}
	defer s.Close()

	launchCWD, err := os.Getwd()
	if err != nil {
		launchCWD = ""
	}
	model := browser.New(s.DB(), launchCWD)

	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(stderr, "zigstory-browse: cannot open /dev/tty: %v\n", err)
		return exitCancelled
	}
	defer tty.Close()

	// stdout is reserved for the confirmed selection, so the TUI itself is
	// driven entirely through the real tty.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithInput(tty),
		tea.WithOutput(tty),
	)

	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(stderr, "zigstory-browse: TUI error: %v\n", err)
		return exitCancelled
	}

	m, ok := finalModel.(browser.Model)
	if !ok {
		fmt.Fprintln(stderr, "zigstory-browse: unexpected model type")
		return exitCancelled
	}

	if m.Cancelled() {
		return exitCancelled
	}
	if result := m.Result(); result != "" {
		fmt.Fprintln(stdout, result)
		return exitConfirmed
	}
	return exitCancelled
}
