package runner

import (
	"context"
	"time"
)

// CompileResult is the outcome of one compiler invocation.
type CompileResult struct {
	Assembly    string // stdout, verbatim; empty unless OK
	Diagnostics string
	ExitCode    int
	OK          bool
	Err         error // why the compiler failed when it did not simply exit non-zero
	Duration    time.Duration
}

// Compiler drives the compiler under test. It takes the fixture path as its
// only argument and prints assembly on stdout.
type Compiler struct {
	Path    string
	Timeout time.Duration
}

// Compile runs the compiler on one fixture.
//
// A failing compiler (non-zero exit, timeout, missing executable) is reported
// through the result. The returned error is non-nil only when ctx was
// cancelled, in which case the fixture did not finish.
func (c *Compiler) Compile(ctx context.Context, fixturePath string) (*CompileResult, error) {
	proc, err := runProcess(ctx, c.Timeout, c.Path, fixturePath)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result := &CompileResult{
		ExitCode: proc.ExitCode,
		Duration: proc.Duration,
		Err:      err,
	}

	if err != nil || proc.ExitCode != 0 {
		// stdout is not trusted as assembly once the compiler failed
		result.Diagnostics = diagnostics(proc.Stderr, err)
		return result, nil
	}

	result.OK = true
	result.Assembly = proc.Stdout
	result.Diagnostics = proc.Stderr
	return result, nil
}
