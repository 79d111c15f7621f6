package runner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

var (
	ErrSpawn      = errors.New("failed to start process")
	ErrTimeout    = errors.New("timed out")
	ErrStageWrite = errors.New("failed to stage assembly")
)

// Stage names used in outcomes and logs.
const (
	StageCompile = "compile"
	StageStage   = "stage"
	StageBuild   = "build"
	StageRun     = "run"
)

// StageError ties a failure to the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func describe(err error) string {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return fmt.Sprintf("%v (executable not found)", err)

	case errors.Is(err, os.ErrPermission):
		return fmt.Sprintf("%v (is it executable?)", err)

	default:
		return err.Error()
	}
}
