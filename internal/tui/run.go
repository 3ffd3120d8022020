package tui

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"langfmt/internal/hook"
)

// ErrInterrupted is returned by RunHook when the user quits the table.
var ErrInterrupted = errors.New("interrupted")

// RunHook shows model on out while work runs in the background. work gets a
// hook.Reporter that feeds the table; RunHook returns once work has returned
// or the user has quit, whichever comes first.
func RunHook(out io.Writer, model HookModel, work func(hook.Reporter)) error {
	p := tea.NewProgram(model, tea.WithOutput(out))

	go func() {
		work(NewHookReporter(p.Send))
		p.Send(doneMsg{})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(HookModel); ok && m.Interrupted() {
		return ErrInterrupted
	}
	return nil
}
