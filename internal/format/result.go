package format

import (
	"errors"
	"fmt"
)

// Mode selects between checking and rewriting a file.
type Mode int

const (
	ModeCheck Mode = iota
	ModeFix
)

func (m Mode) String() string {
	if m == ModeFix {
		return "fix"
	}
	return "check"
}

// Issue is a single finding reported by a backend.
type Issue struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Rule != "" {
		return fmt.Sprintf("%d:%d %s (%s)", i.Line, i.Column, i.Message, i.Rule)
	}
	return fmt.Sprintf("%d:%d %s", i.Line, i.Column, i.Message)
}

// Result is the outcome of one backend call for one file. A file that needs
// formatting is Conforms == false with a nil Err.
type Result struct {
	Path     string
	Conforms bool
	// Changed is set by Fix when the file on disk was rewritten.
	Changed bool
	Issues  []Issue
	Err     error
}

// InvalidInputError reports a file the backend could not parse.
type InvalidInputError struct {
	Path    string
	Backend string
	Detail  string
}

func (e *InvalidInputError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s cannot parse file", e.Path, e.Backend)
	}
	return fmt.Sprintf("%s: %s cannot parse file: %s", e.Path, e.Backend, e.Detail)
}

// IsInvalidInput reports whether err is an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}
