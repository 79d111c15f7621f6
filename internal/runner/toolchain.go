package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultDriver is the system compiler driver used to assemble and link.
const DefaultDriver = "gcc"

// BuildResult is the outcome of assembling and linking one staged file.
type BuildResult struct {
	Executable  string
	Diagnostics string
	ExitCode    int
	OK          bool
	Err         error
	Duration    time.Duration
}

// Toolchain assembles and links staged assembly into a native executable
// with a system compiler driver, e.g. `gcc -m64 foo.s -o foo`.
type Toolchain struct {
	Driver    string
	WordWidth int // 0 leaves the driver's default target
	ExtraArgs []string
	Timeout   time.Duration
	OutputDir string
}

// OutputPath returns the executable path for one fixture execution.
func (t *Toolchain) OutputPath(stem string, id string) string {
	return filepath.Join(t.OutputDir, fmt.Sprintf("%s-%s%s", stem, id, exeSuffix))
}

// Args returns the driver arguments for one build.
func (t *Toolchain) Args(asmPath string, outPath string) []string {
	args := []string{}
	if t.WordWidth > 0 {
		args = append(args, "-m"+strconv.Itoa(t.WordWidth))
	}
	args = append(args, t.ExtraArgs...)
	return append(args, asmPath, "-o", outPath)
}

// Build runs the driver on asmPath, writing the executable to outPath.
//
// Any stderr output counts as a failure even when the driver exits zero:
// warnings from the assembler usually mean the compiler emitted something
// wrong. The returned error is non-nil only when ctx was cancelled.
func (t *Toolchain) Build(ctx context.Context, asmPath string, outPath string) (*BuildResult, error) {
	driver := t.Driver
	if driver == "" {
		driver = DefaultDriver
	}

	proc, err := runProcess(ctx, t.Timeout, driver, t.Args(asmPath, outPath)...)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result := &BuildResult{
		Executable:  outPath,
		Diagnostics: diagnostics(proc.Stderr, err),
		ExitCode:    proc.ExitCode,
		Err:         err,
		Duration:    proc.Duration,
	}
	if err == nil && proc.ExitCode != 0 && result.Diagnostics == "" {
		result.Diagnostics = fmt.Sprintf("%s exited with status %d", driver, proc.ExitCode)
	}

	result.OK = err == nil && proc.ExitCode == 0 && proc.Stderr == ""
	return result, nil
}
