package tools

import (
	"errors"
	"fmt"
)

// ErrNoChecksum is returned when no expected digest exists for a tool
// version. Verification is never skipped.
var ErrNoChecksum = errors.New("no expected checksum")

// DownloadError reports a failure to retrieve an artifact.
type DownloadError struct {
	Tool    Tool
	Version string
	URL     string
	Err     error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s %s from %s: %v", e.Tool, e.Version, e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// IntegrityError reports bytes that do not match the expected digest, or an
// expected digest that cannot be compared at all.
type IntegrityError struct {
	Tool     Tool
	Version  string
	Expected string
	Actual   string
	Err      error
}

func (e *IntegrityError) Error() string {
	subject := "artifact"
	if e.Tool != "" {
		subject = fmt.Sprintf("%s %s", e.Tool, e.Version)
	}
	if e.Err != nil {
		return fmt.Sprintf("verify %s: %v", subject, e.Err)
	}
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", subject, e.Expected, e.Actual)
}

func (e *IntegrityError) Unwrap() error { return e.Err }
