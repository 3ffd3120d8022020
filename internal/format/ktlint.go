package format

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ktlint needs reflective access on JDK 16+.
var ktlintJVMArgs = []string{"--add-opens", "java.base/java.lang=ALL-UNNAMED"}

// invalidFileMarker is how ktlint reports a file it cannot parse.
const invalidFileMarker = "Not a valid Kotlin file"

// Ktlint drives the ktlint CLI jar. Style is fixed by ktlint itself.
type Ktlint struct {
	Jar    string
	Java   string
	Runner Runner
}

func (k *Ktlint) Name() string { return "ktlint" }

func (k *Ktlint) args(extra ...string) []string {
	args := make([]string, 0, len(ktlintJVMArgs)+2+len(extra))
	args = append(args, ktlintJVMArgs...)
	args = append(args, "-jar", k.Jar)
	return append(args, extra...)
}

type ktlintFile struct {
	File   string        `json:"file"`
	Errors []ktlintError `json:"errors"`
}

type ktlintError struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
	Rule    string `json:"rule"`
}

// parseKtlintReport decodes the json reporter. It returns the lint issues and,
// separately, a parse failure detail when ktlint rejected the file outright.
func parseKtlintReport(stdout []byte) ([]Issue, string, error) {
	start := bytes.IndexByte(stdout, '[')
	if start < 0 {
		if len(bytes.TrimSpace(stdout)) == 0 {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("unexpected ktlint output: %s", firstLine(stdout))
	}
	var files []ktlintFile
	if err := json.NewDecoder(bytes.NewReader(stdout[start:])).Decode(&files); err != nil {
		return nil, "", fmt.Errorf("decode ktlint report: %w", err)
	}
	var issues []Issue
	for _, f := range files {
		for _, e := range f.Errors {
			if e.Rule == "" || strings.Contains(e.Message, invalidFileMarker) {
				return nil, e.Message, nil
			}
			issues = append(issues, Issue{Line: e.Line, Column: e.Column, Rule: e.Rule, Message: e.Message})
		}
	}
	return issues, "", nil
}

func (k *Ktlint) Check(ctx context.Context, path string) Result {
	res := Result{Path: path}
	out, err := k.Runner.Run(ctx, k.Java, k.args("--reporter=json", "--", path))
	if err != nil {
		res.Err = fmt.Errorf("run ktlint: %w", err)
		return res
	}
	issues, invalid, perr := parseKtlintReport(out.Stdout)
	switch {
	case perr != nil:
		res.Err = fmt.Errorf("ktlint exited with status %d: %w", out.ExitCode, perr)
	case invalid != "":
		res.Err = &InvalidInputError{Path: path, Backend: k.Name(), Detail: invalid}
	case len(issues) > 0:
		res.Issues = issues
	case out.ExitCode == 0:
		res.Conforms = true
	default:
		res.Err = fmt.Errorf("ktlint exited with status %d: %s", out.ExitCode, firstLine(out.Stderr))
	}
	return res
}

// Fix runs ktlint --format. Violations ktlint cannot correct leave a non-zero
// exit but are not an error here; the follow-up check reports them.
func (k *Ktlint) Fix(ctx context.Context, path string) Result {
	return fixInPlace(ctx, path, func(ctx context.Context, tmp string) error {
		out, err := k.Runner.Run(ctx, k.Java, k.args("--format", "--reporter=json", "--", tmp))
		if err != nil {
			return fmt.Errorf("run ktlint: %w", err)
		}
		_, invalid, perr := parseKtlintReport(out.Stdout)
		switch {
		case invalid != "":
			return &InvalidInputError{Path: path, Backend: k.Name(), Detail: scrubPath(invalid, tmp, path)}
		case perr != nil && out.ExitCode != 0:
			return fmt.Errorf("ktlint exited with status %d: %w", out.ExitCode, perr)
		}
		return nil
	})
}
