package tui

import "time"

// tickMsg advances the spinner and the elapsed clock.
type tickMsg time.Time

// formatterMsg updates the formatter line above the file table.
type formatterMsg struct {
	status string
	detail string
}

// fileMsg updates the row of one file. final marks a hook outcome; the row
// then counts toward the footer total.
type fileMsg struct {
	path   string
	status string
	detail string
	final  bool
}

// doneMsg is sent once hook.Run has returned.
type doneMsg struct{}
