package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/yonatan1811/ccheck/internal/report"
	"github.com/yonatan1811/ccheck/ui/messages"
)

var (
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	gray   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
)

const indent = "     "

// StartRenderer prints progress from ch to w as messages arrive. The returned
// func closes ch, waits for the remaining messages and prints the summary; it
// must be called exactly once, after the last send.
func StartRenderer(w io.Writer, verbose bool, ch chan messages.Msg) func(summary *report.Summary) {
	finished := make(chan struct{})
	total, workers := 0, 1

	go func() {
		defer close(finished)
		for msg := range ch {
			switch msg := msg.(type) {
			case messages.StartRunMsg:
				total, workers = msg.Fixtures, msg.Workers
				fmt.Fprintln(w, cyan.Render("● ")+fmt.Sprintf("%s: %d fixtures in %s", msg.Compiler, msg.Fixtures, msg.SourceDir))
				if msg.Workers > 1 {
					fmt.Fprintln(w, gray.Render(fmt.Sprintf("  %d workers", msg.Workers)))
				}
				fmt.Fprintln(w)

			case messages.StartFixtureMsg:
				if verbose {
					fmt.Fprintln(w, gray.Render(fmt.Sprintf("  ▸ #%d %s", msg.Index+1, msg.Name)))
				}

			case messages.StageMsg:
				if !verbose {
					continue
				}
				line := fmt.Sprintf("  · #%d %s %s", msg.Index+1, msg.Name, msg.Stage)
				if msg.Size > 0 {
					line += " (" + humanize.Bytes(uint64(msg.Size)) + ")"
				}
				fmt.Fprintln(w, gray.Render(line))

			case messages.ResolveFixtureMsg:
				counter := fmt.Sprintf("[%d/%d]", msg.Processed, total)
				if verbose {
					counter = fmt.Sprintf("[%d/%d, %d passed]", msg.Processed, total, msg.Passed)
				}
				displayOutcome(w, msg.Outcome, counter)
			}
		}
	}()

	return func(summary *report.Summary) {
		close(ch)
		<-finished

		if summary == nil {
			return
		}

		// live lines arrive in completion order when workers overlap
		if workers > 1 && len(summary.Outcomes) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, cyan.Render("Results:"))
			for _, o := range summary.Outcomes {
				fmt.Fprintf(w, "  %s %s\n", statusLabel(o.Classification), o.Fixture)
			}
		}

		fmt.Fprintln(w)
		if failed := failures(summary); len(failed) > 0 {
			fmt.Fprintln(w, red.Render("Failures:"))
			for _, o := range failed {
				fmt.Fprintf(w, "  %s %s\n", gray.Render("-"), o.Fixture)
			}
			fmt.Fprintln(w)
		}
		if summary.Aborted {
			fmt.Fprintln(w, yellow.Render(fmt.Sprintf("⚠ Run stopped early (%s), %d fixtures not run", summary.AbortReason, summary.Skipped())))
		}

		line := summary.Line()
		if summary.Total > 0 && summary.Passed == summary.Total {
			fmt.Fprintln(w, green.Render("✓ "+line))
		} else {
			fmt.Fprintln(w, red.Render("✗ "+line))
		}
	}
}

func failures(summary *report.Summary) []report.Outcome {
	var out []report.Outcome
	for _, o := range summary.Outcomes {
		if !o.Passed() {
			out = append(out, o)
		}
	}
	return out
}

func statusLabel(c report.Classification) string {
	switch c {
	case report.Passed:
		return green.Render("PASS")
	case report.CompilerError:
		return red.Render("COMPILER ERROR")
	case report.ToolchainError:
		return yellow.Render("TOOLCHAIN ERROR")
	default:
		return red.Render("FAIL")
	}
}

// displayOutcome prints one fixture's status line, plus its diagnostics when
// it did not pass.
func displayOutcome(w io.Writer, o report.Outcome, counter string) {
	fmt.Fprintf(w, "  %s %s %s %s\n", gray.Render(counter), statusLabel(o.Classification), o.Fixture, gray.Render(fmt.Sprintf("(%dms)", o.Duration.Milliseconds())))
	if o.Passed() {
		return
	}

	if o.Stage != "" {
		fmt.Fprintln(w, indent+gray.Render("stage: "+o.Stage))
	}
	if o.Diagnostic != "" {
		for _, line := range strings.Split(strings.TrimRight(o.Diagnostic, "\n"), "\n") {
			fmt.Fprintln(w, indent+red.Render(line))
		}
	}
	if o.Classification == report.Failed && o.Stage == "run" && o.Stdout != "" {
		fmt.Fprintln(w, indent+gray.Render("stdout:"))
		for _, line := range strings.Split(strings.TrimRight(o.Stdout, "\n"), "\n") {
			fmt.Fprintln(w, indent+gray.Render("  "+line))
		}
	}
}
