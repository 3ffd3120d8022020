package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"langfmt/internal/format"
)

const tickInterval = 120 * time.Millisecond

const (
	fileWidth   = 44
	statusWidth = 11
	detailWidth = 48
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type fileRow struct {
	path   string
	status string
	detail string
	final  bool
}

// HookModel shows the formatter jar on one line and a row per file below
// it. While files are being checked a footer counts finished files.
type HookModel struct {
	formatter       string
	formatterStatus string
	formatterDetail string

	rows  []fileRow
	index map[string]int

	started     time.Time
	tick        int
	done        bool
	interrupted bool
}

// NewHookModel starts every file as pending. A path passed twice gets a
// single row.
func NewHookModel(spec format.Spec, files []string) HookModel {
	m := HookModel{
		formatter:       spec.String(),
		formatterStatus: "pending",
		index:           make(map[string]int, len(files)),
		started:         time.Now(),
	}
	for _, f := range files {
		if _, dup := m.index[f]; dup {
			continue
		}
		m.index[f] = len(m.rows)
		m.rows = append(m.rows, fileRow{path: f, status: "pending"})
	}
	return m
}

func scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m HookModel) Init() tea.Cmd {
	return scheduleTick()
}

func (m HookModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.tick++
		return m, scheduleTick()

	case formatterMsg:
		m.formatterStatus = msg.status
		m.formatterDetail = msg.detail

	case fileMsg:
		i, ok := m.index[msg.path]
		if !ok {
			return m, nil
		}
		row := &m.rows[i]
		row.status = msg.status
		row.final = msg.final
		if msg.detail != "" {
			row.detail = msg.detail
		}

	case doneMsg:
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.done = true
			m.interrupted = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m HookModel) View() string {
	var b strings.Builder

	bold := lipgloss.NewStyle().Bold(true)
	faint := lipgloss.NewStyle().Faint(true)
	fmt.Fprintf(&b, "%s  %s  %s\n\n",
		bold.Render(m.formatter),
		StatusStyle(m.formatterStatus).Render(m.formatterStatus),
		faint.Render(TruncateWithEllipsis(m.formatterDetail, detailWidth)))

	header := pad("FILE", fileWidth) + "  " + pad("STATUS", statusWidth) + "  " + "DETAIL"
	b.WriteString(HeaderStyle.Render(header))
	b.WriteByte('\n')

	for _, row := range m.rows {
		status := StatusStyle(row.status).Render(pad(row.status, statusWidth))
		line := pad(TruncatePath(row.path, fileWidth), fileWidth) + "  " + status + "  " +
			TruncateWithEllipsis(row.detail, detailWidth)
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}

	switch {
	case m.interrupted:
		b.WriteString("\ninterrupted\n")
	case !m.done:
		finished, total := m.counts()
		spinner := spinnerFrames[m.tick%len(spinnerFrames)]
		fmt.Fprintf(&b, "\n%s %d/%d files (%s)\n", spinner, finished, total, formatElapsed(time.Since(m.started)))
	}
	return b.String()
}

// counts returns how many files have an outcome and how many there are.
func (m HookModel) counts() (int, int) {
	finished := 0
	for _, row := range m.rows {
		if row.final {
			finished++
		}
	}
	return finished, len(m.rows)
}

// Interrupted reports whether the user quit before the run finished.
func (m HookModel) Interrupted() bool {
	return m.interrupted
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
