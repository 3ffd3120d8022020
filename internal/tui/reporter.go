package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"langfmt/internal/format"
	"langfmt/internal/hook"
)

// HookReporter turns hook progress callbacks into table updates.
type HookReporter struct {
	send  func(tea.Msg)
	ready bool
}

func NewHookReporter(send func(tea.Msg)) *HookReporter {
	return &HookReporter{send: send}
}

// Acquiring implements hook.Reporter.
func (r *HookReporter) Acquiring(spec format.Spec) {
	r.send(formatterMsg{status: "acquiring", detail: "resolving jar"})
}

// Start implements hook.Reporter. The first file means the jar was
// acquired and verified.
func (r *HookReporter) Start(path string) {
	r.settleFormatter("ready", "verified")
	r.send(fileMsg{path: path, status: "checking"})
}

// Complete implements hook.Reporter. Errors before any Start come from
// acquiring the jar, so they are shown on the formatter line as well.
func (r *HookReporter) Complete(file hook.FileReport) {
	if file.Outcome == hook.OutcomeError {
		r.settleFormatter("error", file.Error)
	}
	r.send(fileMsg{
		path:   file.Path,
		status: string(file.Outcome),
		detail: Detail(file),
		final:  true,
	})
}

func (r *HookReporter) settleFormatter(status, detail string) {
	if r.ready {
		return
	}
	r.ready = true
	r.send(formatterMsg{status: status, detail: detail})
}

// Detail summarizes a file outcome in one line.
func Detail(file hook.FileReport) string {
	switch {
	case file.Error != "":
		return file.Error
	case len(file.Issues) == 1:
		return file.Issues[0].String()
	case len(file.Issues) > 1:
		return fmt.Sprintf("%s (+%d more)", file.Issues[0], len(file.Issues)-1)
	default:
		return "-"
	}
}

var _ hook.Reporter = (*HookReporter)(nil)
