package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// waitDelay bounds how long Wait blocks on inherited stdout/stderr pipes
// after the process group has been signalled.
const waitDelay = 2 * time.Second

// ProcessResult is what a finished subprocess left behind.
type ProcessResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// runProcess starts name with args and waits for it, bounded by timeout.
//
// A non-zero exit status is not an error: it is reported in ExitCode.
// The returned error wraps ErrSpawn when the process could not be started,
// ErrTimeout when the timeout fired, or the context error when ctx itself
// was cancelled. Whatever output was captured is returned with the error.
func runProcess(ctx context.Context, timeout time.Duration, name string, args ...string) (*ProcessResult, error) {
	parent := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(ctx, name, args...)
	execCmd.SysProcAttr = sysProcAttr()
	// kill the whole group so grandchildren don't keep the pipes open
	execCmd.Cancel = func() error {
		return killProcess(execCmd.Process.Pid)
	}
	execCmd.WaitDelay = waitDelay

	var stdoutBuffer bytes.Buffer
	var stderrBuffer bytes.Buffer
	execCmd.Stdout = &stdoutBuffer
	execCmd.Stderr = &stderrBuffer

	start := time.Now()
	if err := execCmd.Start(); err != nil {
		return &ProcessResult{ExitCode: -1}, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	err := execCmd.Wait()
	result := &ProcessResult{
		Stdout:   stdoutBuffer.String(),
		Stderr:   stderrBuffer.String(),
		Duration: time.Since(start),
	}

	switch {
	case parent.Err() != nil:
		result.ExitCode = -1
		return result, parent.Err()
	case ctx.Err() != nil:
		result.ExitCode = -1
		return result, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}

	if err != nil {
		// check if it's a non-zero exit code (expected)
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		result.ExitCode = -1
		return result, fmt.Errorf("command execution failed: %w", err)
	}

	return result, nil
}

// diagnostics picks the text shown for a failed stage: the captured stderr
// verbatim, or the error when the process wrote nothing.
func diagnostics(stderr string, err error) string {
	if stderr != "" {
		return stderr
	}
	if err != nil {
		return describe(err)
	}
	return ""
}
