package zoomvideo

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// RunResult is what the encoder left behind.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner starts an external process and waits for it. A non-zero exit is
// reported through RunResult.ExitCode; err is reserved for processes that
// could not be started or were cut short by ctx.
type Runner interface {
	Run(ctx context.Context, name string, args []string) (RunResult, error)
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string) (RunResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := RunResult{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, err
	}
	return res, nil
}
