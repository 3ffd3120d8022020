package format

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Ktfmt drives the ktfmt jar-with-dependencies.
type Ktfmt struct {
	Jar    string
	Java   string
	Style  Style
	Runner Runner
}

func (k *Ktfmt) Name() string { return "ktfmt" }

// Check uses --dry-run so the file is never touched. ktfmt prints the name of
// every file it would change and exits non-zero; a parse failure also exits
// non-zero but prints nothing on stdout.
func (k *Ktfmt) Check(ctx context.Context, path string) Result {
	res := Result{Path: path}
	args := []string{"-jar", k.Jar, "--set-exit-if-changed", "--dry-run", k.Style.ktfmtFlag(), path}
	out, err := k.Runner.Run(ctx, k.Java, args)
	if err != nil {
		res.Err = fmt.Errorf("run ktfmt: %w", err)
		return res
	}
	switch {
	case out.ExitCode == 0:
		res.Conforms = true
	case listsFile(out.Stdout, path):
		res.Issues = []Issue{{Line: 1, Column: 1, Message: fmt.Sprintf("not formatted with %s style", k.Style)}}
	default:
		detail := firstLine(out.Stderr)
		if detail == "" {
			detail = fmt.Sprintf("ktfmt exited with status %d", out.ExitCode)
		}
		res.Err = &InvalidInputError{Path: path, Backend: k.Name(), Detail: detail}
	}
	return res
}

func (k *Ktfmt) Fix(ctx context.Context, path string) Result {
	return fixInPlace(ctx, path, func(ctx context.Context, tmp string) error {
		out, err := k.Runner.Run(ctx, k.Java, []string{"-jar", k.Jar, k.Style.ktfmtFlag(), tmp})
		if err != nil {
			return fmt.Errorf("run ktfmt: %w", err)
		}
		if out.ExitCode != 0 {
			return &InvalidInputError{Path: path, Backend: k.Name(), Detail: scrubPath(firstLine(out.Stderr), tmp, path)}
		}
		return nil
	})
}

func listsFile(stdout []byte, path string) bool {
	want := filepath.Clean(path)
	for _, line := range strings.Split(string(stdout), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if filepath.Clean(line) == want {
			return true
		}
	}
	return false
}
