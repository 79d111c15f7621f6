package runner

import (
	"context"
	"time"
)

// ExecResult is what the produced executable did.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// Err wraps ErrSpawn or ErrTimeout when the program never started or
	// did not finish in time.
	Err      error
	Duration time.Duration
}

// Completed reports whether the program started and exited on its own.
func (r *ExecResult) Completed() bool {
	return r.Err == nil
}

// Diagnostics is the text shown when the run did not complete.
func (r *ExecResult) Diagnostics() string {
	if r.Err == nil {
		return r.Stderr
	}
	return diagnostics(r.Stderr, r.Err)
}

// Executor runs produced executables with no arguments.
type Executor struct {
	Timeout time.Duration
}

// Run executes the program at path. The returned error is non-nil only when
// ctx was cancelled.
func (e *Executor) Run(ctx context.Context, path string) (*ExecResult, error) {
	proc, err := runProcess(ctx, e.Timeout, path)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return &ExecResult{
		ExitCode: proc.ExitCode,
		Stdout:   proc.Stdout,
		Stderr:   proc.Stderr,
		Err:      err,
		Duration: proc.Duration,
	}, nil
}
