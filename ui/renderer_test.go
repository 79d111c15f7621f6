package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonatan1811/ccheck/internal/report"
	"github.com/yonatan1811/ccheck/ui/messages"
)

func TestRendererPrintsOutcomesAndSummary(t *testing.T) {
	var buf bytes.Buffer
	ch := make(chan messages.Msg, 8)
	done := StartRenderer(&buf, false, ch)

	pass := report.Outcome{Fixture: "ok.c", Path: "/f/ok.c", Classification: report.Passed, Duration: 3 * time.Millisecond}
	fail := report.Outcome{
		Fixture:        "bad.c",
		Path:           "/f/bad.c",
		Classification: report.CompilerError,
		Stage:          "compile",
		Diagnostic:     "error: unexpected token\n",
	}

	ch <- messages.StartRunMsg{SourceDir: "/f", Compiler: "mycc", Fixtures: 2, Workers: 1}
	ch <- messages.StageMsg{Index: 0, Name: "ok.c", Stage: "compile"}
	ch <- messages.ResolveFixtureMsg{Outcome: pass, Processed: 1, Passed: 1}
	ch <- messages.ResolveFixtureMsg{Outcome: fail, Processed: 2, Passed: 1}

	done(&report.Summary{Total: 2, Passed: 1, Discovered: 2, Outcomes: []report.Outcome{fail, pass}})

	out := buf.String()
	assert.Contains(t, out, "mycc: 2 fixtures in /f")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "ok.c")
	assert.Contains(t, out, "COMPILER ERROR")
	assert.Contains(t, out, "error: unexpected token")
	assert.Contains(t, out, "[1/2]")
	assert.Contains(t, out, "[2/2]")
	assert.Contains(t, out, "Failures:")
	assert.Contains(t, out, "1 of 2 tests passed")
	assert.NotContains(t, out, "ok.c compile", "stage lines are verbose only")
	assert.NotContains(t, out, "Results:", "a single worker already prints in order")
}

func TestRendererVerboseShowsStages(t *testing.T) {
	var buf bytes.Buffer
	ch := make(chan messages.Msg, 8)
	done := StartRenderer(&buf, true, ch)

	ch <- messages.StageMsg{Index: 0, Name: "ok.c", Stage: "stage", Size: 2048}
	done(&report.Summary{})

	out := buf.String()
	assert.Contains(t, out, "ok.c stage (2.0 kB)")
	assert.Contains(t, out, "0 of 0 tests passed")
}

func TestRendererVerboseShowsProgress(t *testing.T) {
	var buf bytes.Buffer
	ch := make(chan messages.Msg, 8)
	done := StartRenderer(&buf, true, ch)

	ok := report.Outcome{Fixture: "ok.c", Path: "/f/ok.c", Classification: report.Passed}
	ch <- messages.StartRunMsg{SourceDir: "/f", Compiler: "mycc", Fixtures: 3, Workers: 1}
	ch <- messages.StartFixtureMsg{Index: 1, Name: "ok.c"}
	ch <- messages.StageMsg{Index: 1, Name: "ok.c", Stage: "compile"}
	ch <- messages.ResolveFixtureMsg{Outcome: ok, Processed: 2, Passed: 1}
	done(&report.Summary{Total: 2, Passed: 1, Discovered: 3, Outcomes: []report.Outcome{ok}})

	out := buf.String()
	assert.Contains(t, out, "▸ #2 ok.c")
	assert.Contains(t, out, "#2 ok.c compile")
	assert.Contains(t, out, "[2/3, 1 passed]")
}

func TestRendererOrdersResultsWithWorkers(t *testing.T) {
	var buf bytes.Buffer
	ch := make(chan messages.Msg, 8)
	done := StartRenderer(&buf, false, ch)

	a := report.Outcome{Fixture: "a.c", Path: "/f/a.c", Classification: report.Passed}
	b := report.Outcome{Fixture: "b.c", Path: "/f/b.c", Classification: report.Failed, Stage: "run"}
	c := report.Outcome{Fixture: "c.c", Path: "/f/c.c", Classification: report.Passed}

	ch <- messages.StartRunMsg{SourceDir: "/f", Compiler: "mycc", Fixtures: 3, Workers: 4}
	// completion order differs from path order
	ch <- messages.ResolveFixtureMsg{Outcome: c, Processed: 1, Passed: 1}
	ch <- messages.ResolveFixtureMsg{Outcome: a, Processed: 2, Passed: 2}
	ch <- messages.ResolveFixtureMsg{Outcome: b, Processed: 3, Passed: 2}
	done(&report.Summary{Total: 3, Passed: 2, Discovered: 3, Outcomes: []report.Outcome{a, b, c}})

	out := buf.String()
	results := strings.Index(out, "Results:")
	require.GreaterOrEqual(t, results, 0)

	ordered := out[results:]
	ia := strings.Index(ordered, "a.c")
	ib := strings.Index(ordered, "b.c")
	ic := strings.Index(ordered, "c.c")
	require.True(t, ia >= 0 && ib >= 0 && ic >= 0, ordered)
	assert.Less(t, ia, ib)
	assert.Less(t, ib, ic)
	assert.Contains(t, out, "2 of 3 tests passed")
}

func TestRendererAbortNotice(t *testing.T) {
	var buf bytes.Buffer
	ch := make(chan messages.Msg)
	done := StartRenderer(&buf, false, ch)

	done(&report.Summary{
		Total:       1,
		Discovered:  3,
		Aborted:     true,
		AbortReason: "run aborted: toolchain failed on b.c",
		Outcomes:    []report.Outcome{{Fixture: "b.c", Classification: report.ToolchainError}},
	})

	out := buf.String()
	assert.Contains(t, out, "toolchain failed on b.c")
	assert.Contains(t, out, "2 fixtures not run")
	assert.Contains(t, out, "0 of 1 tests passed")
}

func TestRendererNilSummaryPrintsNothingMore(t *testing.T) {
	var buf bytes.Buffer
	ch := make(chan messages.Msg)
	done := StartRenderer(&buf, false, ch)

	done(nil)
	assert.Empty(t, buf.String())
}
