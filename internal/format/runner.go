package format

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// RunResult carries captured output. A process that ran and exited non-zero
// is reported through ExitCode with a nil error.
type RunResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner starts the formatter process. Tests swap in a fake so no JVM is
// needed.
type Runner interface {
	Run(ctx context.Context, command string, args []string) (RunResult, error)
}

type CmdRunner struct{}

func (CmdRunner) Run(ctx context.Context, command string, args []string) (RunResult, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}

var _ Runner = CmdRunner{}
