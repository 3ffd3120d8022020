// Package logx builds the slog logger shared by every command.
package logx

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// IsTerminal is swapped out in tests.
var IsTerminal = term.IsTerminal

// New creates a logger that writes tinted records to w. Color is only used
// when w is a terminal and NO_COLOR is unset. verbose enables debug records.
func New(w io.Writer, verbose bool) *slog.Logger {
	return newTinted(w, verbose, colorEnabled(w))
}

// Deferred creates a logger for w that holds records in memory until flush
// is called. Used while the progress table owns the terminal.
func Deferred(w io.Writer, verbose bool) (*slog.Logger, func() error) {
	buf := &lockedBuffer{}
	flush := func() error {
		buf.mu.Lock()
		defer buf.mu.Unlock()
		_, err := buf.b.WriteTo(w)
		return err
	}
	return newTinted(buf, verbose, colorEnabled(w)), flush
}

func newTinted(w io.Writer, verbose, color bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !color,
	}))
}

type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return IsTerminal(int(f.Fd()))
}
