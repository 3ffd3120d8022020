package format

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Style selects a ktfmt rule set. Styles are independent: a file formatted
// for one is generally not formatted for another.
type Style string

const (
	StyleDefault    Style = "default"
	StyleGoogle     Style = "google"
	StyleKotlinlang Style = "kotlinlang"
)

// Styles lists the accepted style names.
func Styles() []Style {
	return []Style{StyleDefault, StyleGoogle, StyleKotlinlang}
}

// ParseStyle accepts a style name; the empty string means StyleDefault.
func ParseStyle(s string) (Style, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return StyleDefault, nil
	}
	for _, st := range Styles() {
		if string(st) == name {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown ktfmt style %q (want one of %s)", s, styleList())
}

func styleList() string {
	names := make([]string, 0, len(Styles()))
	for _, st := range Styles() {
		names = append(names, string(st))
	}
	return strings.Join(names, ", ")
}

// ktfmtFlag maps a style onto ktfmt's command line. The default style is the
// Google rule set the hook has always used.
func (s Style) ktfmtFlag() string {
	switch s {
	case StyleKotlinlang:
		return "--kotlinlang-style"
	default:
		return "--google-style"
	}
}

func (s Style) String() string {
	if s == "" {
		return string(StyleDefault)
	}
	return string(s)
}

// Set implements pflag.Value.
func (s *Style) Set(v string) error {
	st, err := ParseStyle(v)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Type implements pflag.Value.
func (s *Style) Type() string { return "style" }

var _ pflag.Value = (*Style)(nil)
