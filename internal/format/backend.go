package format

import (
	"context"
	"fmt"

	"langfmt/internal/tools"
)

// Backend checks and rewrites Kotlin files with one formatter jar.
type Backend interface {
	Name() string
	// Check reports whether path conforms without modifying it.
	Check(ctx context.Context, path string) Result
	// Fix rewrites path in place. Result.Changed reports whether any byte moved.
	Fix(ctx context.Context, path string) Result
}

// Spec selects a formatter and its options.
type Spec struct {
	Tool    tools.Tool
	Version string
	Style   Style
}

func (s Spec) String() string {
	version := s.Version
	if version == "" {
		version = tools.DefaultVersion(s.Tool)
	}
	if s.Tool == tools.Ktfmt {
		return fmt.Sprintf("%s %s (%s style)", s.Tool, version, s.Style)
	}
	return fmt.Sprintf("%s %s", s.Tool, version)
}

// New builds the backend for spec around an acquired jar. A nil runner runs
// real processes.
func New(spec Spec, jar, java string, runner Runner) (Backend, error) {
	if jar == "" {
		return nil, fmt.Errorf("%s: jar path is required", spec.Tool)
	}
	if java == "" {
		return nil, ErrJavaNotFound
	}
	if runner == nil {
		runner = CmdRunner{}
	}
	switch spec.Tool {
	case tools.Ktlint:
		return &Ktlint{Jar: jar, Java: java, Runner: runner}, nil
	case tools.Ktfmt:
		style := spec.Style
		if style == "" {
			style = StyleDefault
		}
		if _, err := ParseStyle(string(style)); err != nil {
			return nil, err
		}
		return &Ktfmt{Jar: jar, Java: java, Style: style, Runner: runner}, nil
	default:
		return nil, fmt.Errorf("unsupported formatter %q", spec.Tool)
	}
}

// Invoke dispatches to Check or Fix.
func Invoke(ctx context.Context, b Backend, path string, mode Mode) Result {
	if mode == ModeFix {
		return b.Fix(ctx, path)
	}
	return b.Check(ctx, path)
}
