package hook

import (
	"errors"
	"fmt"

	"langfmt/internal/format"
	"langfmt/internal/tools"
)

// Outcome is the terminal state of one file.
type Outcome string

const (
	OutcomeConforms Outcome = "conforms"
	OutcomeFixed    Outcome = "fixed"
	OutcomeDirty    Outcome = "unformatted"
	OutcomeInvalid  Outcome = "invalid"
	OutcomeError    Outcome = "error"
)

// OK reports whether the outcome leaves the file in a committed-ready state.
func (o Outcome) OK() bool {
	return o == OutcomeConforms || o == OutcomeFixed
}

type FileReport struct {
	Path    string         `json:"path"`
	Outcome Outcome        `json:"outcome"`
	Issues  []format.Issue `json:"issues,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Report aggregates a run.
type Report struct {
	Formatter string         `json:"formatter"`
	Artifact  tools.Artifact `json:"artifact"`
	Files     []FileReport   `json:"files"`
	// Err is set when the formatter could not be obtained or trusted.
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

// ExitCode is 0 when every file conforms or was fixed, 1 otherwise.
func (r Report) ExitCode() int {
	if r.Err != nil {
		return 1
	}
	for _, f := range r.Files {
		if !f.Outcome.OK() {
			return 1
		}
	}
	return 0
}

// Counts tallies files per outcome.
func (r Report) Counts() map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, f := range r.Files {
		counts[f.Outcome]++
	}
	return counts
}

// Failures joins one error per file that did not end up conforming.
func (r Report) Failures() error {
	if r.Err != nil {
		return r.Err
	}
	var errs []error
	for _, f := range r.Files {
		if f.Outcome.OK() {
			continue
		}
		reason := f.Error
		if reason == "" {
			reason = string(f.Outcome)
		}
		errs = append(errs, fmt.Errorf("%s: %s", f.Path, reason))
	}
	return errors.Join(errs...)
}
