// Package pipeline drives fixtures through compile, stage, build and run,
// and collects one outcome per fixture.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yonatan1811/ccheck/internal/config"
	"github.com/yonatan1811/ccheck/internal/fixture"
	"github.com/yonatan1811/ccheck/internal/report"
	"github.com/yonatan1811/ccheck/internal/runner"
	"github.com/yonatan1811/ccheck/ui/messages"
)

// ErrRunAborted is returned by Run when the abort policy stopped the run
// after a toolchain failure.
var ErrRunAborted = errors.New("run aborted")

// Options carries the pieces of a pipeline that do not come from config.
type Options struct {
	Logger *slog.Logger
	// Events receives progress messages; nil disables them. Sends block, so
	// the reader must keep draining until Run returns.
	Events chan<- messages.Msg
	// NewID names per-fixture artifacts. Defaults to uuid.NewString.
	NewID func() string
}

type Pipeline struct {
	Compiler  *runner.Compiler
	Stager    *runner.Stager
	Toolchain *runner.Toolchain
	Executor  *runner.Executor

	workers       int
	policy        config.ToolchainPolicy
	keepArtifacts bool

	log      *slog.Logger
	events   chan<- messages.Msg
	newID    func() string
	tempDirs []string
}

// New wires the stage runners from cfg and prepares the staging and output
// directories. Directories left empty in cfg are created as temp dirs and
// removed again by Close.
func New(cfg *config.Config, opts Options) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		workers:       cfg.Workers,
		policy:        cfg.OnToolchainFailure,
		keepArtifacts: cfg.KeepArtifacts,
		log:           opts.Logger,
		events:        opts.Events,
		newID:         opts.NewID,
	}
	if p.log == nil {
		p.log = slog.New(slog.DiscardHandler)
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}

	stagingDir, err := p.workDir(cfg.StagingDir, "ccheck-staging-")
	if err != nil {
		p.Close()
		return nil, err
	}
	outputDir, err := p.workDir(cfg.OutputDir, "ccheck-bin-")
	if err != nil {
		p.Close()
		return nil, err
	}

	p.Compiler = &runner.Compiler{Path: cfg.Compiler, Timeout: cfg.Timeout}
	p.Stager = &runner.Stager{Dir: stagingDir}
	if err := p.Stager.Prepare(); err != nil {
		p.Close()
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	p.Toolchain = &runner.Toolchain{
		Driver:    cfg.Toolchain,
		WordWidth: cfg.WordWidth,
		ExtraArgs: cfg.ToolchainArgs,
		Timeout:   cfg.Timeout,
		OutputDir: outputDir,
	}
	p.Executor = &runner.Executor{Timeout: cfg.Timeout}

	return p, nil
}

// workDir resolves a configured directory, or makes a fresh temp dir when
// none is configured.
func (p *Pipeline) workDir(dir string, pattern string) (string, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", pattern)
		if err != nil {
			return "", fmt.Errorf("failed to create temp directory: %w", err)
		}
		p.tempDirs = append(p.tempDirs, tmp)
		return tmp, nil
	}

	// absolute, so a bare executable name is never looked up on PATH
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	return abs, nil
}

// Close removes the temp dirs New created, unless artifacts are kept.
func (p *Pipeline) Close() error {
	if p.keepArtifacts {
		for _, dir := range p.tempDirs {
			p.log.Info("keeping artifacts", "dir", dir)
		}
		return nil
	}

	var errs []error
	for _, dir := range p.tempDirs {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", dir, err))
		}
	}
	p.tempDirs = nil
	return errors.Join(errs...)
}

// Run pushes every fixture through the pipeline on up to the configured
// number of workers and returns the summary.
//
// Per-fixture failures end up in the summary, never in the error. The error
// is ErrRunAborted (wrapped) when the abort policy fired, or the context's
// error when ctx was cancelled. In both cases the summary holds every fixture
// that finished; fixtures cut off mid-flight are left out.
func (p *Pipeline) Run(ctx context.Context, fixtures []fixture.Fixture) (*report.Summary, error) {
	start := time.Now()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	agg := report.NewAggregator()

	var g errgroup.Group
	g.SetLimit(p.workers)

	for i, f := range fixtures {
		if runCtx.Err() != nil {
			break
		}

		g.Go(func() error {
			if runCtx.Err() != nil {
				return nil
			}

			p.emit(messages.StartFixtureMsg{Index: i, Name: f.Name})
			outcome, err := p.RunFixture(runCtx, i, f)
			if err != nil {
				p.log.Debug("fixture interrupted", "fixture", f.Name, "error", err)
				return nil
			}

			processed, passed := agg.Add(outcome)
			p.emit(messages.ResolveFixtureMsg{
				Outcome:   outcome,
				Processed: processed,
				Passed:    passed,
			})

			if outcome.Classification == report.ToolchainError && p.policy == config.ToolchainAbort {
				p.log.Debug("aborting run", "fixture", f.Name)
				cancel(fmt.Errorf("%w: toolchain failed on %s", ErrRunAborted, f.Name))
			}
			return nil
		})
	}

	// workers report failures through outcomes, never through the group
	_ = g.Wait()

	summary := agg.Summary()
	summary.Discovered = len(fixtures)
	summary.Duration = time.Since(start)

	if cause := context.Cause(runCtx); cause != nil {
		summary.Aborted = true
		summary.AbortReason = cause.Error()
		return summary, cause
	}
	return summary, nil
}

func (p *Pipeline) emit(msg messages.Msg) {
	if p.events != nil {
		p.events <- msg
	}
}
