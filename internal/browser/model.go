package browser

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// debounceInterval is the delay after the last filter keystroke before a
// new filter-mode query fires.
const debounceInterval = 100 * time.Millisecond

// DefaultViewportRows is used before the first tea.WindowSizeMsg arrives.
const DefaultViewportRows = 20

type fetchDoneMsg struct {
	requestID  uint64
	rows       []Row
	totalCount int64
	err        error
}

type debounceMsg struct{ id uint64 }

type initMsg struct{}

// Model is the bubbletea model driving the interactive history browser.
type Model struct {
	db       *sql.DB
	cwdScope string // captured at launch; empty means global scope requested
	global   bool   // current toggle state; flips which scope is in effect

	filter textinput.Model
	nav    NavState

	rows       []Row
	renderRows []RenderRow
	err        error

	confirmed bool
	cancelled bool
	result    string

	requestID  uint64
	debounceID uint64
	loading    bool

	width  int
	height int
}

// New returns a Model scoped to db, with launchCWD captured for the
// directory-scope toggle. The browser starts in global scope.
func New(db *sql.DB, launchCWD string) Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter..."

	return Model{
		db:       db,
		cwdScope: launchCWD,
		global:   true,
		filter:   ti,
		nav:      NavState{ViewportRows: DefaultViewportRows},
	}
}

// Result returns the confirmed command text, or "" if the browser was
// cancelled.
func (m Model) Result() string { return m.result }

// Cancelled reports whether the user dismissed the browser without
// selecting a row.
func (m Model) Cancelled() bool { return m.cancelled }

// activeScope returns the cwd to filter by, or "" for global scope.
func (m Model) activeScope() string {
	if m.global {
		return ""
	}
	return m.cwdScope
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return initMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.nav.ViewportRows = viewportRowsFor(msg.Height)
		return m, m.fetch()
	case fetchDoneMsg:
		return m.handleFetchDone(msg)
	case debounceMsg:
		if msg.id != m.debounceID {
			return m, nil
		}
		return m, m.fetch()
	case initMsg:
		return m, m.fetch()
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func viewportRowsFor(height int) int {
	const chrome = 4 // header + filter line + footer + padding
	h := height - chrome
	if h < 1 {
		return DefaultViewportRows
	}
	return h
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.cancelled = true
		return m, tea.Quit

	case tea.KeyEnter:
		return m.handleConfirm()

	case tea.KeyUp:
		m.nav.MoveUp()
		return m, m.fetchIfBrowsing()

	case tea.KeyDown:
		m.nav.MoveDown()
		return m, m.fetchIfBrowsing()

	case tea.KeyPgUp:
		m.nav.PageUp()
		return m, m.fetchIfBrowsing()

	case tea.KeyPgDown:
		m.nav.PageDown()
		return m, m.fetchIfBrowsing()

	case tea.KeyHome:
		m.nav.Home()
		return m, m.fetchIfBrowsing()

	case tea.KeyEnd:
		m.nav.End()
		return m, m.fetchIfBrowsing()

	case tea.KeyCtrlF:
		if m.nav.InFilterMode {
			m.nav.ExitFilterMode()
		} else {
			m.nav.EnterFilterMode()
		}
		return m, m.fetch()

	case tea.KeyCtrlU:
		m.filter.SetValue("")
		m.nav.ClearFilter()
		return m, m.fetch()

	case tea.KeyCtrlG:
		m.global = !m.global
		m.nav.ScrollOffset = 0
		m.nav.SelectedIndex = 0
		return m, m.fetch()

	case tea.KeyCtrlR:
		return m, m.fetch()
	}

	if !m.nav.InFilterMode {
		return m, nil
	}
	prev := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != prev {
		m.nav.ScrollOffset = 0
		m.nav.SelectedIndex = 0
		return m, tea.Batch(cmd, m.startDebounce())
	}
	return m, cmd
}

func (m Model) handleConfirm() (tea.Model, tea.Cmd) {
	idx := m.nav.ResolveRowIndex()
	if idx < 0 || idx >= len(m.rows) {
		m.cancelled = true
		return m, tea.Quit
	}
	m.result = m.rows[idx].Command
	m.confirmed = true
	_ = clipboard.WriteAll(m.result) // best-effort; browser still prints to stdout regardless
	return m, tea.Quit
}

func (m *Model) startDebounce() tea.Cmd {
	m.debounceID++
	id := m.debounceID
	return tea.Tick(debounceInterval, func(time.Time) tea.Msg {
		return debounceMsg{id: id}
	})
}

// fetchIfBrowsing re-fetches the current page only in browse mode, where
// navigation changes which window of rows is loaded. In filter mode every
// row is already loaded, so navigation alone needs no new query.
func (m *Model) fetchIfBrowsing() tea.Cmd {
	if m.nav.InFilterMode {
		return nil
	}
	return m.fetch()
}

// fetch issues the query for the current mode/scope/scroll position as a
// tea.Cmd, tagged with a fresh request id so stale responses (from a since-
// superseded keystroke or scroll) are discarded on arrival rather than
// overwriting a newer result.
func (m *Model) fetch() tea.Cmd {
	m.requestID++
	reqID := m.requestID
	m.loading = true

	db := m.db
	scope := m.activeScope()
	inFilter := m.nav.InFilterMode
	filterText := m.filter.Value()
	viewport := m.nav.ViewportRows
	scroll := m.nav.ScrollOffset

	return func() tea.Msg {
		ctx := context.Background()
		if inFilter {
			rows, err := FilterPage(ctx, db, filterText, scope, 0)
			if err != nil {
				return fetchDoneMsg{requestID: reqID, err: err}
			}
			return fetchDoneMsg{requestID: reqID, rows: rows, totalCount: int64(len(rows))}
		}

		total, err := BrowseTotalCount(ctx, db, scope)
		if err != nil {
			return fetchDoneMsg{requestID: reqID, err: err}
		}
		rows, err := BrowsePage(ctx, db, viewport, scroll, scope)
		if err != nil {
			return fetchDoneMsg{requestID: reqID, err: err}
		}
		return fetchDoneMsg{requestID: reqID, rows: rows, totalCount: total}
	}
}

func (m Model) handleFetchDone(msg fetchDoneMsg) (tea.Model, tea.Cmd) {
	if msg.requestID != m.requestID {
		return m, nil // stale: discard
	}
	m.loading = false
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}
	m.err = nil
	m.rows = msg.rows
	m.nav.SetTotalCount(int(msg.totalCount))
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	scopeLabel := "global"
	if !m.global {
		scopeLabel = "cwd"
	}
	fmt.Fprintf(&b, "zigstory history  [%s]\n\n", scopeLabel)

	now := time.Now().Unix()
	rendered := RenderRows(m.rows, m.filter.Value(), now, dirColumnWidth(m.width))

	if len(rendered) == 0 {
		if m.err != nil {
			b.WriteString(fmt.Sprintf("error: %s\n", m.err))
		} else if m.loading {
			b.WriteString("loading...\n")
		} else {
			b.WriteString("no matches\n")
		}
	} else {
		idx := m.nav.ResolveRowIndex()
		for i, r := range rendered {
			b.WriteString(renderLine(r, i == idx))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.nav.InFilterMode {
		b.WriteString(m.filter.View())
	} else {
		b.WriteString(lipgloss.NewStyle().Faint(true).Render("Ctrl+F filter · Ctrl+G scope · Enter select · Esc cancel"))
	}

	return b.String()
}

func dirColumnWidth(termWidth int) int {
	w := termWidth / 3
	if w < 10 {
		w = 20
	}
	return w
}

func renderLine(r RenderRow, selected bool) string {
	marker := "  "
	style := lipgloss.NewStyle()
	if selected {
		marker = "> "
		style = style.Bold(true)
	}
	if r.Failed {
		style = style.Foreground(lipgloss.Color("196"))
	}

	cmd := highlightCommand(r.Command, r.Highlights, style)
	meta := r.RelativeTime
	if r.Duration != "" {
		meta += " " + r.Duration
	}
	return marker + cmd + "  " + lipgloss.NewStyle().Faint(true).Render(r.Directory+"  "+meta)
}

func highlightCommand(cmd string, ranges []Range, base lipgloss.Style) string {
	if len(ranges) == 0 {
		return base.Render(cmd)
	}
	hl := base.Foreground(lipgloss.Color("214"))

	var b strings.Builder
	pos := 0
	for _, r := range ranges {
		if r.Start > pos {
			b.WriteString(base.Render(cmd[pos:r.Start]))
		}
		b.WriteString(hl.Render(cmd[r.Start:r.End]))
		pos = r.End
	}
	if pos < len(cmd) {
		b.WriteString(base.Render(cmd[pos:]))
	}
	return b.String()
}
