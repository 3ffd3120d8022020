package tui

import (
	"io"
	"os"
	"runtime"
	"strings"

	"golang.org/x/term"
)

// OutputMode describes how progress output should be rendered.
type OutputMode int

const (
	// ModeTUI redraws a bubbletea table while files are processed.
	ModeTUI OutputMode = iota
	// ModePlain prints one line per file after the run.
	ModePlain
	// ModeJSON writes the report as JSON.
	ModeJSON
)

// DetectMode picks ModeTUI only for an interactive, capable terminal.
// pre-commit captures hook output, so hooks normally land in ModePlain.
func DetectMode(out io.Writer, noProgress, jsonOutput bool) OutputMode {
	if jsonOutput {
		return ModeJSON
	}
	if noProgress {
		return ModePlain
	}
	file, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return ModePlain
	}
	if runtime.GOOS != "windows" {
		t := os.Getenv("TERM")
		if t == "" || strings.EqualFold(t, "dumb") {
			return ModePlain
		}
	}
	return ModeTUI
}
