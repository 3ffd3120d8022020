// Package formattest provides a fake java runner that behaves like the ktlint
// and ktfmt jars on a toy subset of Kotlin: a file is formatted when each line
// is indented by brace depth, carries no trailing whitespace, and never
// repeats a blank line.
package formattest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"langfmt/internal/format"
)

// Indent widths used by the fake tools.
const (
	KtlintIndent     = 4
	GoogleIndent     = 2
	KotlinlangIndent = 4
)

// SyntaxError is returned by Format for unbalanced braces.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:1: %s", e.Line, e.Msg)
}

// Format returns src in canonical form for the given indent width.
func Format(src []byte, indent int) ([]byte, error) {
	text := strings.ReplaceAll(string(src), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var out []string
	depth := 0
	blank := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(out) > 0 {
				blank = true
			}
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		level := depth
		if strings.HasPrefix(trimmed, "}") {
			level--
		}
		depth += strings.Count(trimmed, "{") - strings.Count(trimmed, "}")
		if level < 0 || depth < 0 {
			return nil, &SyntaxError{Line: i + 1, Msg: "unexpected '}'"}
		}
		out = append(out, strings.Repeat(" ", level*indent)+trimmed)
	}
	if depth != 0 {
		return nil, &SyntaxError{Line: len(lines), Msg: "expecting '}'"}
	}
	return []byte(strings.Join(out, "\n") + "\n"), nil
}

// Runner answers "java -jar <jar> ..." calls by jar file name.
type Runner struct {
	// Err, when set, is returned from every call as a launch failure.
	Err error

	mu    sync.Mutex
	calls [][]string
}

// Calls returns the argument lists seen so far.
func (r *Runner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *Runner) Run(ctx context.Context, command string, args []string) (format.RunResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string(nil), args...))
	r.mu.Unlock()

	if r.Err != nil {
		return format.RunResult{}, r.Err
	}
	if err := ctx.Err(); err != nil {
		return format.RunResult{}, err
	}

	jarIdx := indexOf(args, "-jar")
	if jarIdx < 0 || jarIdx+1 >= len(args) {
		return format.RunResult{}, errors.New("formattest: missing -jar")
	}
	jar := filepath.Base(args[jarIdx+1])
	rest := args[jarIdx+2:]
	switch {
	case strings.Contains(jar, "ktlint"):
		return ktlint(rest)
	case strings.Contains(jar, "ktfmt"):
		return ktfmt(rest)
	default:
		return format.RunResult{}, fmt.Errorf("formattest: unknown jar %s", jar)
	}
}

type lintFile struct {
	File   string      `json:"file"`
	Errors []lintError `json:"errors"`
}

type lintError struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
	Rule    string `json:"rule"`
}

func ktlint(args []string) (format.RunResult, error) {
	sep := indexOf(args, "--")
	if sep < 0 || sep+1 >= len(args) {
		return format.RunResult{Stderr: []byte("no files"), ExitCode: 2}, nil
	}
	path := args[sep+1]
	fix := indexOf(args[:sep], "--format") >= 0

	src, err := os.ReadFile(path)
	if err != nil {
		return format.RunResult{}, err
	}
	formatted, ferr := Format(src, KtlintIndent)
	if ferr != nil {
		return lintReport(path, []lintError{{
			Line: 1, Column: 1, Message: "Not a valid Kotlin file (" + ferr.Error() + ")",
		}}, 1)
	}
	if fix {
		if denied, err := writeBack(path, formatted); denied != nil || err != nil {
			return *denied, err
		}
		return lintReport(path, nil, 0)
	}
	if string(formatted) == string(src) {
		return lintReport(path, nil, 0)
	}
	return lintReport(path, diffLines(src, formatted), 1)
}

func lintReport(path string, errs []lintError, code int) (format.RunResult, error) {
	var files []lintFile
	if len(errs) > 0 {
		files = append(files, lintFile{File: path, Errors: errs})
	} else {
		files = []lintFile{}
	}
	out, err := json.Marshal(files)
	if err != nil {
		return format.RunResult{}, err
	}
	return format.RunResult{Stdout: out, ExitCode: code}, nil
}

func diffLines(src, want []byte) []lintError {
	got := strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
	exp := strings.Split(string(want), "\n")
	var errs []lintError
	for i := 0; i < len(got) && i < len(exp); i++ {
		if got[i] != exp[i] {
			errs = append(errs, lintError{Line: i + 1, Column: 1, Message: "Unexpected indentation", Rule: "standard:indent"})
		}
	}
	if len(errs) == 0 {
		errs = append(errs, lintError{Line: 1, Column: 1, Message: "Needless blank line(s)", Rule: "standard:no-consecutive-blank-lines"})
	}
	return errs
}

func ktfmt(args []string) (format.RunResult, error) {
	if len(args) == 0 {
		return format.RunResult{Stderr: []byte("no files"), ExitCode: 2}, nil
	}
	path := args[len(args)-1]
	indent := GoogleIndent
	if indexOf(args, "--kotlinlang-style") >= 0 {
		indent = KotlinlangIndent
	}
	dryRun := indexOf(args, "--dry-run") >= 0
	exitIfChanged := indexOf(args, "--set-exit-if-changed") >= 0

	src, err := os.ReadFile(path)
	if err != nil {
		return format.RunResult{}, err
	}
	formatted, ferr := Format(src, indent)
	if ferr != nil {
		return format.RunResult{Stderr: []byte(path + ":" + ferr.Error() + "\n"), ExitCode: 1}, nil
	}
	changed := string(formatted) != string(src)
	if dryRun {
		if !changed {
			return format.RunResult{}, nil
		}
		res := format.RunResult{Stdout: []byte(path + "\n")}
		if exitIfChanged {
			res.ExitCode = 1
		}
		return res, nil
	}
	if changed {
		if denied, err := writeBack(path, formatted); denied != nil || err != nil {
			return *denied, err
		}
	}
	return format.RunResult{}, nil
}

// writeBack rewrites path the way the jars do. A file without the owner
// write bit is refused regardless of the user running the tests.
func writeBack(path string, data []byte) (*format.RunResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return &format.RunResult{}, err
	}
	if info.Mode().Perm()&0o200 == 0 {
		return &format.RunResult{
			Stderr:   []byte("java.nio.file.AccessDeniedException: " + path + "\n"),
			ExitCode: 1,
		}, nil
	}
	if err := os.WriteFile(path, data, info.Mode().Perm()); err != nil {
		return &format.RunResult{}, err
	}
	return nil, nil
}

func indexOf(args []string, want string) int {
	for i, a := range args {
		if a == want {
			return i
		}
	}
	return -1
}

var _ format.Runner = (*Runner)(nil)
