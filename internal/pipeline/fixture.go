package pipeline

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/yonatan1811/ccheck/internal/fixture"
	"github.com/yonatan1811/ccheck/internal/report"
	"github.com/yonatan1811/ccheck/internal/runner"
	"github.com/yonatan1811/ccheck/ui/messages"
)

// RunFixture takes one fixture through compile, stage, build and run.
//
// The first failing stage decides the classification and nothing after it
// runs. The error is non-nil only when ctx was cancelled before the fixture
// finished; the outcome is meaningless in that case.
func (p *Pipeline) RunFixture(ctx context.Context, index int, f fixture.Fixture) (report.Outcome, error) {
	start := time.Now()
	log := p.log.With("fixture", f.Name)

	outcome := report.Outcome{Fixture: f.Name, Path: f.Path}
	finish := func(c report.Classification, stage string, diagnostic string) (report.Outcome, error) {
		outcome.Classification = c
		outcome.Stage = stage
		outcome.Diagnostic = diagnostic
		outcome.Duration = time.Since(start)
		log.Debug("fixture finished", "status", c, "stage", stage, "duration", outcome.Duration)
		return outcome, nil
	}

	p.emitStage(index, f, runner.StageCompile, 0)
	comp, err := p.Compiler.Compile(ctx, f.Path)
	if err != nil {
		return outcome, &runner.StageError{Stage: runner.StageCompile, Err: err}
	}
	outcome.ExitCode = comp.ExitCode
	log.Debug("compiled", "ok", comp.OK, "exit_code", comp.ExitCode, "duration", comp.Duration)

	if f.Expect.RejectsCompile() {
		if comp.OK {
			return finish(report.Failed, runner.StageCompile, "compiler accepted a program it should reject")
		}
		return finish(report.Passed, runner.StageCompile, comp.Diagnostics)
	}
	if !comp.OK {
		return finish(report.CompilerError, runner.StageCompile, comp.Diagnostics)
	}

	id := p.newID()
	asmPath := p.Stager.Path(f.Stem, id)
	exePath := p.Toolchain.OutputPath(f.Stem, id)
	if !p.keepArtifacts {
		defer func() {
			if err := p.Stager.Cleanup(asmPath, exePath); err != nil {
				log.Warn("failed to remove artifacts", "error", err)
			}
		}()
	}

	p.emitStage(index, f, runner.StageStage, len(comp.Assembly))
	artifact, err := p.Stager.Stage(asmPath, comp.Assembly)
	if err != nil {
		return finish(report.Failed, runner.StageStage, err.Error())
	}
	log.Debug("staged assembly", "path", artifact.Path, "size", humanize.Bytes(uint64(artifact.Size)))

	p.emitStage(index, f, runner.StageBuild, 0)
	build, err := p.Toolchain.Build(ctx, artifact.Path, exePath)
	if err != nil {
		return outcome, &runner.StageError{Stage: runner.StageBuild, Err: err}
	}
	outcome.ExitCode = build.ExitCode
	log.Debug("built", "ok", build.OK, "exit_code", build.ExitCode, "duration", build.Duration)
	if !build.OK {
		return finish(report.ToolchainError, runner.StageBuild, build.Diagnostics)
	}

	p.emitStage(index, f, runner.StageRun, 0)
	run, err := p.Executor.Run(ctx, build.Executable)
	if err != nil {
		return outcome, &runner.StageError{Stage: runner.StageRun, Err: err}
	}
	outcome.ExitCode = run.ExitCode
	outcome.Stdout = run.Stdout
	outcome.Stderr = run.Stderr
	log.Debug("executed", "exit_code", run.ExitCode, "duration", run.Duration)
	if !run.Completed() {
		return finish(report.Failed, runner.StageRun, run.Diagnostics())
	}

	if err := f.Expect.Verify(run.ExitCode, run.Stdout); err != nil {
		return finish(report.Failed, runner.StageRun, err.Error())
	}
	return finish(report.Passed, "", "")
}

func (p *Pipeline) emitStage(index int, f fixture.Fixture, stage string, size int) {
	p.emit(messages.StageMsg{Index: index, Name: f.Name, Stage: stage, Size: size})
}
