package format

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// rewriteFunc formats the file at tmp in place.
type rewriteFunc func(ctx context.Context, tmp string) error

// fixInPlace runs rewrite against a sibling copy of path and moves the copy
// over path only when its content changed, so an interrupted run never leaves
// a half-written source file behind.
func fixInPlace(ctx context.Context, path string, rewrite rewriteFunc) Result {
	res := Result{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		res.Err = fmt.Errorf("stat %s: %w", path, err)
		return res
	}
	original, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("read %s: %w", path, err)
		return res
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".langfmt-*-"+filepath.Base(path))
	if err != nil {
		res.Err = fmt.Errorf("create scratch copy of %s: %w", path, err)
		return res
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(original); err != nil {
		tmp.Close()
		res.Err = fmt.Errorf("write scratch copy of %s: %w", path, err)
		return res
	}
	if err := tmp.Close(); err != nil {
		res.Err = fmt.Errorf("write scratch copy of %s: %w", path, err)
		return res
	}
	if err := rewrite(ctx, tmpPath); err != nil {
		res.Err = err
		return res
	}

	formatted, err := os.ReadFile(tmpPath)
	if err != nil {
		res.Err = fmt.Errorf("read formatted %s: %w", path, err)
		return res
	}
	if bytes.Equal(formatted, original) {
		return res
	}
	// The scratch copy stays owner-writable while the tool runs; the source
	// mode is applied only to the finished file.
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		res.Err = fmt.Errorf("chmod scratch copy of %s: %w", path, err)
		return res
	}
	if err := atomic.ReplaceFile(tmpPath, path); err != nil {
		res.Err = fmt.Errorf("replace %s: %w", path, err)
		return res
	}
	res.Changed = true
	return res
}

// firstLine trims tool chatter down to something fit for a one-line report.
func firstLine(b []byte) string {
	text := strings.TrimSpace(string(b))
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	return text
}

// scrubPath replaces the scratch file name in tool output with the real one.
func scrubPath(text, tmp, path string) string {
	if tmp == "" {
		return text
	}
	return strings.ReplaceAll(text, tmp, path)
}
